package weblog

import (
	"context"

	"github.com/nsiona/tvb-framework/logging"
)

const (
	// EventRequestHandled is emitted after every HTTP request completes.
	EventRequestHandled logging.EventType = "web.request_handled"
	// EventSessionStarted is emitted when a browser gets a fresh session.
	EventSessionStarted logging.EventType = "web.session_started"
)

// RequestPayload captures the outcome of one HTTP request.
type RequestPayload struct {
	Method     string  `json:"method"`
	Path       string  `json:"path"`
	Status     int     `json:"status"`
	DurationMs float64 `json:"durationMs"`
}

// SessionPayload captures the client a new session was issued to.
type SessionPayload struct {
	RemoteAddr string `json:"remoteAddr,omitempty"`
}

// RequestHandled publishes a request completion event. Severity follows
// the response status.
func RequestHandled(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload RequestPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityInfo
	switch {
	case payload.Status >= 500:
		severity = logging.SeverityError
	case payload.Status >= 400:
		severity = logging.SeverityWarn
	}
	event := logging.Event{
		Type:     EventRequestHandled,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategoryWeb,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SessionStarted publishes a session creation event.
func SessionStarted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSessionStarted,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryWeb,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
