package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/neural"
	"github.com/nsiona/tvb-framework/internal/spatial"
)

func passthrough(got **Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestEnsureCreatesSessionAndSetsCookie(t *testing.T) {
	m := NewManager(time.Minute)
	created := 0
	m.OnNew = func(s *Session, r *http.Request) { created++ }

	var seen *Session
	handler := m.Ensure(passthrough(&seen))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/burst/", nil))

	if seen == nil {
		t.Fatal("no session in request context")
	}
	if created != 1 {
		t.Fatalf("OnNew ran %d times, want 1", created)
	}
	if m.Count() != 1 {
		t.Fatalf("session count = %d, want 1", m.Count())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("cookies = %v, want one %s cookie", cookies, CookieName)
	}
	if cookies[0].Value != seen.ID() {
		t.Fatalf("cookie value = %q, want session id %q", cookies[0].Value, seen.ID())
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie is not HttpOnly")
	}
}

func TestEnsureReusesLiveSession(t *testing.T) {
	m := NewManager(time.Minute)

	var first *Session
	handler := m.Ensure(passthrough(&first))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var second *Session
	handler = m.Ensure(passthrough(&second))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: first.ID()})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if second != first {
		t.Fatal("second request did not reuse the session")
	}
	if m.Count() != 1 {
		t.Fatalf("session count = %d, want 1", m.Count())
	}
}

func TestEnsureReplacesExpiredSession(t *testing.T) {
	m := NewManager(time.Minute)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	var first *Session
	handler := m.Ensure(passthrough(&first))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	current = current.Add(2 * time.Minute)

	var second *Session
	handler = m.Ensure(passthrough(&second))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: first.ID()})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if second == first {
		t.Fatal("expired session was reused")
	}
	if second.ID() == first.ID() {
		t.Fatal("replacement session kept the old id")
	}
}

func TestReapRemovesExpiredSessions(t *testing.T) {
	m := NewManager(time.Minute)
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	ended := 0
	m.OnEnd = func(s *Session) { ended++ }

	handler := m.Ensure(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if m.Count() != 2 {
		t.Fatalf("session count = %d, want 2", m.Count())
	}

	m.reap()
	if m.Count() != 2 {
		t.Fatalf("reap removed live sessions, count = %d", m.Count())
	}

	current = current.Add(time.Hour)
	m.reap()
	if m.Count() != 0 {
		t.Fatalf("session count after reap = %d, want 0", m.Count())
	}
	if ended != 2 {
		t.Fatalf("OnEnd ran %d times, want 2", ended)
	}
}

func TestSweepStops(t *testing.T) {
	m := NewManager(time.Minute)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		m.Sweep(stop)
		close(done)
	}()
	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Sweep did not stop")
	}
}

func TestTypedAccessors(t *testing.T) {
	m := NewManager(time.Minute)
	var s *Session
	handler := m.Ensure(passthrough(&s))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if _, ok := BurstConfig(s); ok {
		t.Fatal("fresh session reported a burst configuration")
	}
	cfg := burst.NewConfiguration("demo")
	SetBurstConfig(s, cfg)
	got, ok := BurstConfig(s)
	if !ok || got != cfg {
		t.Fatal("burst configuration did not round-trip")
	}
	ClearBurstConfig(s)
	if _, ok := BurstConfig(s); ok {
		t.Fatal("burst configuration survived clear")
	}

	model, ok := neural.Lookup(neural.DefaultName)
	if !ok {
		t.Fatalf("model %s not registered", neural.DefaultName)
	}
	edit := spatial.NewContext(model)
	SetSurfaceContext(s, edit)
	gotCtx, ok := SurfaceContext(s)
	if !ok || gotCtx != edit {
		t.Fatal("surface context did not round-trip")
	}
	ClearSurfaceContext(s)
	if _, ok := SurfaceContext(s); ok {
		t.Fatal("surface context survived clear")
	}

	if _, ok := Project(s); ok {
		t.Fatal("fresh session reported a project")
	}
	SetProject(s, "demo")
	name, ok := Project(s)
	if !ok || name != "demo" {
		t.Fatalf("project = %q, %v, want demo", name, ok)
	}

	s.Set(KeyBurstConfig, "not a configuration")
	if _, ok := BurstConfig(s); ok {
		t.Fatal("accessor accepted a value of the wrong type")
	}
}
