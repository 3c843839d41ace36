package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// queueSize is the buffer size for the event queue
	queueSize = 1000

	// deliveryTimeout bounds a single POST to a target
	deliveryTimeout = 10 * time.Second

	// maxDeliveryAttempts bounds retries per target per event
	maxDeliveryAttempts = 4

	// maxResponseBodySize limits how much of an error response body is logged (1KB)
	maxResponseBodySize = 1024
)

// SignatureHeader carries the HMAC of the request body.
const SignatureHeader = "X-Flagkeep-Signature"

// Dispatcher delivers flag-change events to a fixed set of configured
// endpoints. Dispatch is non-blocking; a background worker POSTs each
// event to every target with exponential-backoff retries.
type Dispatcher struct {
	targets []string
	secret  string
	client  *http.Client
	logger  zerolog.Logger
	queue   chan Event
	done    chan struct{}
	closed  int32 // atomic flag to prevent double-close
}

// NewDispatcher creates a new webhook dispatcher for the given targets.
func NewDispatcher(targets []string, secret string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		targets: targets,
		secret:  secret,
		client:  &http.Client{Timeout: deliveryTimeout},
		logger:  logger.With().Str("component", "webhook").Logger(),
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
	}
}

// Start begins processing events from the queue
func (d *Dispatcher) Start() {
	go d.worker()
}

// Close gracefully shuts down the webhook dispatcher.
// It closes the event queue and waits for all pending deliveries to complete.
// After Close is called, no new events should be dispatched.
//
// Close is safe to call multiple times - subsequent calls are no-ops.
func (d *Dispatcher) Close() error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil // Already closed
	}
	close(d.queue)
	<-d.done
	return nil
}

// Dispatch queues an event for webhook delivery.
// This is non-blocking and will not slow down the caller.
func (d *Dispatcher) Dispatch(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case d.queue <- event:
		d.logger.Debug().Str("event", event.Type).Str("flag_key", event.Resource.Key).
			Int("queue_size", len(d.queue)).Msg("event queued")
	default:
		// Queue is full, drop event rather than stalling the mutation path.
		d.logger.Error().Str("event", event.Type).Str("flag_key", event.Resource.Key).
			Msg("queue full, dropping event")
	}
}

// worker processes events from the queue
func (d *Dispatcher) worker() {
	defer close(d.done)

	for event := range d.queue {
		for _, target := range d.targets {
			d.deliverWithRetry(context.Background(), target, event)
		}
	}
}

// deliverWithRetry posts the event to one target, retrying transient
// failures with exponential backoff. 4xx responses other than 429 are
// treated as permanent.
func (d *Dispatcher) deliverWithRetry(ctx context.Context, target string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error().Err(err).Str("event", event.Type).Msg("failed to marshal event")
		return
	}

	attempts := 0
	operation := func() (struct{}, error) {
		attempts++
		return struct{}{}, d.deliver(ctx, target, payload)
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxDeliveryAttempts))
	if err != nil {
		d.logger.Warn().Err(err).Str("target", target).Str("event", event.Type).
			Str("flag_key", event.Resource.Key).Int("attempts", attempts).
			Msg("delivery failed")
		return
	}
	d.logger.Info().Str("target", target).Str("event", event.Type).
		Str("flag_key", event.Resource.Key).Int("attempts", attempts).
		Msg("delivered")
}

// deliver performs a single signed POST.
func (d *Dispatcher) deliver(ctx context.Context, target string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.secret != "" {
		req.Header.Set(SignatureHeader, ComputeHMAC(payload, d.secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	err = fmt.Errorf("target returned status %d: %s", resp.StatusCode, string(body))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}
