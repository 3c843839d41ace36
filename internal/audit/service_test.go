package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// captureSink records every event it receives.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Write(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func TestServiceLogAndClose(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(sink, zerolog.Nop(), 16)

	svc.Log(Event{Action: ActionCreated, FlagKey: "f1"})
	svc.Log(Event{Action: ActionDeleted, FlagKey: "f2"})

	if err := svc.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := sink.all()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events after drain, got %d", len(events))
	}
	if events[0].FlagKey != "f1" || events[1].FlagKey != "f2" {
		t.Errorf("Events out of order: %+v", events)
	}
}

func TestServiceFillsDefaults(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(sink, zerolog.Nop(), 16)

	svc.Log(Event{Action: ActionToggled, FlagKey: "f"})
	svc.Close()

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].OccurredAt.IsZero() {
		t.Error("Expected OccurredAt to be filled in")
	}
	if events[0].Status != StatusSuccess {
		t.Errorf("Expected default status %q, got %q", StatusSuccess, events[0].Status)
	}
}

func TestServiceRedactsStates(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(sink, zerolog.Nop(), 16)

	svc.Log(Event{
		Action:  ActionUpdated,
		FlagKey: "f",
		AfterState: map[string]any{
			"description": "fine",
			"api_key":     "supersecret",
			"nested":      map[string]any{"token": "abc"},
		},
	})
	svc.Close()

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	after := events[0].AfterState
	if after["api_key"] != "[REDACTED]" {
		t.Errorf("Expected api_key redacted, got %v", after["api_key"])
	}
	nested, ok := after["nested"].(map[string]any)
	if !ok || nested["token"] != "[REDACTED]" {
		t.Errorf("Expected nested token redacted, got %v", after["nested"])
	}
	if after["description"] != "fine" {
		t.Errorf("Non-sensitive field must pass through, got %v", after["description"])
	}
}

func TestServiceCloseIsIdempotent(t *testing.T) {
	svc := NewService(&captureSink{}, zerolog.Nop(), 4)

	if err := svc.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	done := make(chan struct{})
	go func() {
		svc.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Second Close must return immediately")
	}
}

func TestDefaultRedactorNil(t *testing.T) {
	r := NewDefaultRedactor()
	if r.Redact(nil) != nil {
		t.Error("Redacting nil must return nil")
	}
}
