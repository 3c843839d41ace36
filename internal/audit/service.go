package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Action constants for audit logging
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionToggled = "toggled"
	ActionDeleted = "deleted"
)

// Status constants for audit logging
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Redactor interface for removing sensitive data
type Redactor interface {
	Redact(data map[string]any) map[string]any
}

// DefaultRedactor implements basic redaction
type DefaultRedactor struct {
	sensitiveKeys []string
}

func NewDefaultRedactor() *DefaultRedactor {
	return &DefaultRedactor{
		sensitiveKeys: []string{
			"password", "secret", "token", "api_key", "key_hash",
			"authorization", "cookie", "session",
		},
	}
}

func (r *DefaultRedactor) Redact(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}

	redacted := make(map[string]any)
	for k, v := range data {
		isSensitive := false
		for _, sensitive := range r.sensitiveKeys {
			if k == sensitive {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			redacted[k] = "[REDACTED]"
		} else if nested, ok := v.(map[string]any); ok {
			redacted[k] = r.Redact(nested)
		} else {
			redacted[k] = v
		}
	}
	return redacted
}

// Event represents a canonical audit event for a flag mutation.
type Event struct {
	OccurredAt  time.Time      `json:"occurred_at"`
	RequestID   string         `json:"request_id"`
	Action      string         `json:"action"` // created, updated, toggled, deleted
	FlagKey     string         `json:"flag_key"`
	SourceIP    string         `json:"source_ip,omitempty"`
	BeforeState map[string]any `json:"before_state,omitempty"`
	AfterState  map[string]any `json:"after_state,omitempty"`
	Status      string         `json:"status"` // success, failure
	Error       string         `json:"error,omitempty"`
}

// Sink defines the interface for persisting audit events
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Service provides asynchronous audit logging. Events are queued and
// written by a background worker so mutations never wait on the sink.
type Service struct {
	sink     Sink
	clock    Clock
	redactor Redactor
	logger   zerolog.Logger
	queue    chan Event
	stopCh   chan struct{}
	doneCh   chan struct{}
	closed   int32 // atomic flag to prevent double-close
}

// NewService creates a new audit service and starts its worker.
func NewService(sink Sink, logger zerolog.Logger, queueSize int) *Service {
	if queueSize < 1 {
		queueSize = 256
	}
	s := &Service{
		sink:     sink,
		clock:    SystemClock{},
		redactor: NewDefaultRedactor(),
		logger:   logger,
		queue:    make(chan Event, queueSize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	go s.worker()

	return s
}

// worker processes audit events in the background
func (s *Service) worker() {
	defer close(s.doneCh)
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		case <-s.stopCh:
			// Drain remaining events before stopping
			for {
				select {
				case event := <-s.queue:
					s.write(event)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sink.Write(ctx, event); err != nil {
		// Audit logging must be non-blocking; record the failure and move on.
		s.logger.Error().Err(err).Str("flag_key", event.FlagKey).Msg("audit: failed to write event")
	}
}

// Log queues an audit event for asynchronous processing. If the queue
// is full the event is dropped rather than blocking the caller.
func (s *Service) Log(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	if event.Status == "" {
		event.Status = StatusSuccess
	}

	if event.BeforeState != nil {
		event.BeforeState = s.redactor.Redact(event.BeforeState)
	}
	if event.AfterState != nil {
		event.AfterState = s.redactor.Redact(event.AfterState)
	}

	select {
	case s.queue <- event:
	default:
		s.logger.Warn().Str("flag_key", event.FlagKey).Str("action", event.Action).
			Msg("audit: queue full, dropping event")
	}
}

// Close gracefully shuts down the audit service. The worker drains any
// queued events before exiting, and Close blocks until it has.
//
// Close is safe to call multiple times - subsequent calls are no-ops.
func (s *Service) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // Already closed
	}
	close(s.stopCh)
	<-s.doneCh
	return nil
}
