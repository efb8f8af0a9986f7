// Package session keeps per-browser state between requests. The burst
// workflow stores the configuration being edited and the surface
// parameters page stores its editing context here, keyed by constants.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nsiona/tvb-framework/internal/gid"
)

// Session value keys.
const (
	KeyBurstConfig    = "burst_configuration"
	KeySurfaceContext = "surface_model_parameters"
	KeyProject        = "project"
)

// CookieName is the browser cookie carrying the session id.
const CookieName = "tvbsession"

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 30 * time.Minute

type contextKey struct{}

// Session is one browser's state. Values are guarded by the session's
// own mutex so concurrent tabs cannot corrupt the map.
type Session struct {
	id string

	mu      sync.Mutex
	values  map[string]any
	expires time.Time
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Get returns a stored value.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expires)
}

func (s *Session) touch(expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires = expires
}

// Manager owns every live session. Sessions expire after the TTL of
// inactivity and are reaped by the sweep loop.
type Manager struct {
	ttl time.Duration
	now func() time.Time

	// OnNew runs after a session is created, OnEnd after one expires
	// or is replaced. Both may be nil.
	OnNew func(s *Session, r *http.Request)
	OnEnd func(s *Session)

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager builds a manager. A non-positive ttl falls back to
// DefaultTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Lookup returns a session by id. Tests use it to reach the state a
// request created.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.expired(m.now()) {
		return nil, false
	}
	return s, true
}

func (m *Manager) create() *Session {
	s := &Session{
		id:      gid.New(),
		values:  make(map[string]any),
		expires: m.now().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s
}

// Ensure is middleware: it resolves the request's session from the
// cookie, creating one when absent or expired, refreshes the TTL and
// injects the session into the request context.
func (m *Manager) Ensure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s *Session
		if cookie, err := r.Cookie(CookieName); err == nil {
			if existing, ok := m.Lookup(cookie.Value); ok {
				s = existing
			}
		}
		if s == nil {
			s = m.create()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    s.id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			if m.OnNew != nil {
				m.OnNew(s, r)
			}
		}
		s.touch(m.now().Add(m.ttl))
		ctx := context.WithValue(r.Context(), contextKey{}, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the session Ensure attached to the request, or
// nil outside the middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Sweep reaps expired sessions until stop closes.
func (m *Manager) Sweep(stop <-chan struct{}) {
	interval := m.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *Manager) reap() {
	now := m.now()
	var ended []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.expired(now) {
			delete(m.sessions, id)
			ended = append(ended, s)
		}
	}
	m.mu.Unlock()
	if m.OnEnd != nil {
		for _, s := range ended {
			m.OnEnd(s)
		}
	}
}
