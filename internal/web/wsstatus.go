package web

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nsiona/tvb-framework/internal/session"
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleStatusSocket subscribes the browser to burst status frames.
// One subscription per session; a reconnect replaces the old one.
func (s *Server) handleStatusSocket(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusBadRequest, "no session")
		return
	}
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "status channel disabled")
		return
	}

	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.hub.Subscribe(sess.ID(), conn)

	// The browser never sends anything meaningful here; the read loop
	// only notices the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.Disconnect(sess.ID())
			return
		}
	}
}
