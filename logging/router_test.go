package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close(context.Context) error {
	return nil
}

func (s *recordingSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Event, len(s.events))
	copy(copied, s.events)
	return copied
}

func waitForEvents(t *testing.T, sink *recordingSink, want int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := sink.snapshot()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d events, got %d", want, len(sink.snapshot()))
	return nil
}

func TestRouterForwardsEventsWithFieldsAndTimestamp(t *testing.T) {
	sink := &recordingSink{}
	cfg := DefaultConfig()
	cfg.Fields = map[string]any{"service": "tvbweb"}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	router, err := NewRouter(ClockFunc(func() time.Time { return fixed }), cfg, []NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = router.Close(ctx)
	}()

	router.Publish(context.Background(), Event{
		Type:     EventType("burst.launched"),
		Step:     7,
		Actor:    EntityRef{ID: "abc", Kind: EntityKindBurst},
		Severity: SeverityInfo,
		Category: CategoryBurst,
	})

	events := waitForEvents(t, sink, 1)
	got := events[0]
	if got.Type != "burst.launched" || got.Step != 7 {
		t.Fatalf("unexpected event %+v", got)
	}
	if !got.Time.Equal(fixed) {
		t.Fatalf("expected clock timestamp, got %v", got.Time)
	}
	if got.Extra["service"] != "tvbweb" {
		t.Fatalf("expected static field attached, got %v", got.Extra)
	}

	stats := router.Stats()
	if stats.EventsTotal != 1 {
		t.Fatalf("expected 1 routed event, got %d", stats.EventsTotal)
	}
}

func TestRouterHonorsSeverityFloor(t *testing.T) {
	sink := &recordingSink{}
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityWarn
	router, err := NewRouter(nil, cfg, []NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	router.Publish(context.Background(), Event{Type: "web.request_handled", Severity: SeverityInfo})
	router.Publish(context.Background(), Event{Type: "web.request_handled", Severity: SeverityError})

	events := waitForEvents(t, sink, 1)
	if len(events) != 1 || events[0].Severity != SeverityError {
		t.Fatalf("expected only the error event, got %+v", events)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRouterIgnoresUntypedAndClosed(t *testing.T) {
	sink := &recordingSink{}
	router, err := NewRouter(nil, DefaultConfig(), []NamedSink{{Name: "memory", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	router.Publish(context.Background(), Event{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	router.Publish(context.Background(), Event{Type: "web.request_handled"})

	if got := router.Stats().EventsTotal; got != 0 {
		t.Fatalf("expected no routed events, got %d", got)
	}
}

func TestWithFieldsDoesNotOverrideEventExtra(t *testing.T) {
	var published []Event
	pub := WithFields(PublisherFunc(func(_ context.Context, event Event) {
		published = append(published, event)
	}), map[string]any{"service": "tvbweb", "zone": "eu"})

	pub.Publish(context.Background(), Event{Type: "x"}.WithExtra("zone", "us"))

	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}
	if published[0].Extra["zone"] != "us" {
		t.Fatalf("event extra must win, got %v", published[0].Extra["zone"])
	}
	if published[0].Extra["service"] != "tvbweb" {
		t.Fatalf("missing static field, got %v", published[0].Extra)
	}
}
