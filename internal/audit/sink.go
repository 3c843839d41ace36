package audit

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologSink writes audit events as structured log records. The audit
// trail rides the process log stream; shipping it to a dedicated table
// belongs to the multi-environment schema, which is out of scope here.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink creates a sink writing to the given logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger.With().Str("component", "audit").Logger()}
}

// Write emits one audit event as a single log record.
func (s *ZerologSink) Write(_ context.Context, event Event) error {
	rec := s.logger.Info()
	if event.Status == StatusFailure {
		rec = s.logger.Warn()
	}
	rec = rec.
		Time("occurred_at", event.OccurredAt).
		Str("action", event.Action).
		Str("flag_key", event.FlagKey).
		Str("status", event.Status)
	if event.RequestID != "" {
		rec = rec.Str("request_id", event.RequestID)
	}
	if event.SourceIP != "" {
		rec = rec.Str("source_ip", event.SourceIP)
	}
	if event.BeforeState != nil {
		rec = rec.Interface("before", event.BeforeState)
	}
	if event.AfterState != nil {
		rec = rec.Interface("after", event.AfterState)
	}
	if event.Error != "" {
		rec = rec.Str("error", event.Error)
	}
	rec.Msg("flag audit event")
	return nil
}
