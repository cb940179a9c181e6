package audit

import (
	"context"
	"log/slog"
)

// LogSink writes audit events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("module", "audit")}
}

func (s *LogSink) Audit(ctx context.Context, event Event) {
	attrs := make([]any, 0, 6+2*len(event.Fields))
	attrs = append(attrs, "event", event.Event, "user", event.User, "audit_id", event.ID)

	for key, value := range event.Fields {
		attrs = append(attrs, key, value)
	}

	s.logger.InfoContext(ctx, "audit", attrs...)
}
