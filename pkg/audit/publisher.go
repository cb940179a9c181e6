package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// PublisherSink publishes audit events as JSON messages on Topic.
type PublisherSink struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewPublisherSink(publisher message.Publisher, logger *slog.Logger) *PublisherSink {
	return &PublisherSink{
		publisher: publisher,
		logger:    logger.With("module", "audit_publisher"),
	}
}

func (s *PublisherSink) Audit(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal audit event", "event", event.Event, "error", err)

		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(EventTypeMetadataKey, event.Event)

	err = s.publisher.Publish(Topic, msg)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish audit event", "event", event.Event, "error", err)
	}
}

func (s *PublisherSink) Close() error {
	return s.publisher.Close()
}
