package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDispatcherDelivers(t *testing.T) {
	secret := "whsec_test"

	var mu sync.Mutex
	var received []Event
	var signatures []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !VerifySignature(body, r.Header.Get(SignatureHeader), secret) {
			t.Error("Delivery carried an invalid signature")
		}
		var ev Event
		if err := json.Unmarshal(body, &ev); err != nil {
			t.Errorf("Bad payload: %v", err)
		}
		mu.Lock()
		received = append(received, ev)
		signatures = append(signatures, r.Header.Get(SignatureHeader))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	d := NewDispatcher([]string{ts.URL}, secret, zerolog.Nop())
	d.Start()

	d.Dispatch(Event{
		Type:     EventFlagCreated,
		Resource: Resource{Type: "feature_flag", Key: "beta-ui"},
	})

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("Expected 1 delivery, got %d", len(received))
	}
	ev := received[0]
	if ev.Type != EventFlagCreated {
		t.Errorf("Expected event type %q, got %q", EventFlagCreated, ev.Type)
	}
	if ev.Resource.Key != "beta-ui" {
		t.Errorf("Expected resource key beta-ui, got %q", ev.Resource.Key)
	}
	if ev.ID == "" || ev.Timestamp.IsZero() {
		t.Error("Expected Dispatch to fill in event ID and timestamp")
	}
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	d := NewDispatcher([]string{ts.URL}, "", zerolog.Nop())
	d.Start()
	d.Dispatch(Event{Type: EventFlagToggled, Resource: Resource{Key: "f"}})
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("Expected 2 attempts (one retry), got %d", calls)
	}
}

func TestDispatcherGivesUpOnClientError(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	d := NewDispatcher([]string{ts.URL}, "", zerolog.Nop())
	d.Start()
	d.Dispatch(Event{Type: EventFlagDeleted, Resource: Resource{Key: "f"}})
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("Expected a 4xx response to stop retries, got %d attempts", calls)
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(nil, "", zerolog.Nop())
	d.Start()

	if err := d.Close(); err != nil {
		t.Fatalf("First Close failed: %v", err)
	}
	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Second Close must return immediately")
	}
}
