package burst

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nsiona/tvb-framework/internal/telemetry"
)

// statusWriteWait bounds how long a broadcast may block on one slow
// subscriber before it is disconnected.
const statusWriteWait = 5 * time.Second

// StatusConn is the connection surface the hub writes to. It is
// satisfied by *websocket.Conn; tests drive the hub with in-process
// implementations.
type StatusConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// StatusHub fans run status updates out to the browsers watching the
// burst page, one subscriber per session.
type StatusHub struct {
	mu          sync.Mutex
	subscribers map[string]*statusSubscriber
	counters    *telemetry.Counters
	logger      telemetry.Logger
}

type statusSubscriber struct {
	conn StatusConn
	mu   sync.Mutex
}

type statusMessage struct {
	Type       string  `json:"type"`
	ID         string  `json:"id"`
	Status     Status  `json:"status"`
	Progress   float64 `json:"progress"`
	ServerTime int64   `json:"serverTime"`
}

// NewStatusHub creates a hub with no subscribers.
func NewStatusHub(counters *telemetry.Counters, logger telemetry.Logger) *StatusHub {
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	return &StatusHub{
		subscribers: make(map[string]*statusSubscriber),
		counters:    counters,
		logger:      logger,
	}
}

// Subscribe registers a connection for a session, replacing and closing
// any previous one.
func (h *StatusHub) Subscribe(sessionID string, conn StatusConn) {
	h.mu.Lock()
	existing, ok := h.subscribers[sessionID]
	h.subscribers[sessionID] = &statusSubscriber{conn: conn}
	h.mu.Unlock()

	if ok {
		existing.conn.Close()
	} else {
		h.counters.AddWSSubscribers(1)
	}
}

// Disconnect removes a session's subscriber and closes its connection.
func (h *StatusHub) Disconnect(sessionID string) {
	h.mu.Lock()
	sub, ok := h.subscribers[sessionID]
	if ok {
		delete(h.subscribers, sessionID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.conn.Close()
	h.counters.AddWSSubscribers(-1)
}

// SubscriberCount reports the live subscriber count.
func (h *StatusHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// BroadcastStatus sends the configuration's current status to every
// subscriber. Subscribers that cannot be written to within the deadline
// are disconnected.
func (h *StatusHub) BroadcastStatus(cfg *Configuration) {
	msg := statusMessage{
		Type:       "burstStatus",
		ID:         cfg.ID,
		Status:     cfg.Status,
		Progress:   cfg.Progress,
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal status message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*statusSubscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(statusWriteWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			h.logger.Printf("failed to send status to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}
