package evidence

import (
	"context"
	"log/slog"
)

// NoopAuditSink discards all events.
type NoopAuditSink struct{}

func (NoopAuditSink) Emit(ctx context.Context, event AuditEvent) {}

// SlogAuditSink writes audit events to a structured logger. Emission is
// fire-and-forget: logging failures are invisible to callers.
type SlogAuditSink struct {
	logger *slog.Logger
}

// NewSlogAuditSink creates a sink over logger; nil uses slog.Default.
func NewSlogAuditSink(logger *slog.Logger) *SlogAuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditSink{logger: logger}
}

func (s *SlogAuditSink) Emit(ctx context.Context, event AuditEvent) {
	s.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"case_id", event.CaseID,
		"user_id", event.UserID,
		"object_key", event.ObjectKey,
		"detail", event.Detail,
		"at", event.At,
	)
}
