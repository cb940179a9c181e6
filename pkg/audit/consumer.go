package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Consume subscribes to Topic and hands every decoded event to sink. It
// returns once the subscription is established; delivery stops when ctx is
// cancelled or the subscriber is closed.
func Consume(ctx context.Context, subscriber message.Subscriber, sink Sink, logger *slog.Logger) error {
	messages, err := subscriber.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	logger = logger.With("module", "audit_consumer")

	go func() {
		for msg := range messages {
			var event Event

			err := json.Unmarshal(msg.Payload, &event)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to decode audit event", "message_id", msg.UUID, "error", err)
				// A malformed payload never decodes, redelivery would loop.
				msg.Ack()

				continue
			}

			sink.Audit(msg.Context(), event)
			msg.Ack()
		}
	}()

	return nil
}
