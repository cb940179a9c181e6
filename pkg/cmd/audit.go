package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowadmin/pkg/audit"
	"github.com/dukex/flowadmin/pkg/channels/gochannel"
	"github.com/dukex/flowadmin/pkg/channels/kafka"
)

// NewAuditSink builds the audit sink for the given bus.
//
//   - "log" writes events to the structured log on the request path.
//   - "gochannel" publishes events to an in-process channel; a consumer drains
//     it into the structured log off the request path.
//   - "kafka" publishes events to Kafka and also writes them to the log.
//
// The returned close function releases the publisher.
func NewAuditSink(ctx context.Context, provider string, brokers string, logger *slog.Logger) (audit.Sink, func() error, error) {
	logSink := audit.NewLogSink(logger)
	noop := func() error { return nil }

	switch provider {
	case "", "log":
		return logSink, noop, nil
	case "gochannel":
		channel := gochannel.CreateChannel(watermill.NewSlogLogger(logger))

		err := audit.Consume(ctx, channel, logSink, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to subscribe to audit channel: %w", err)
		}

		publisher := audit.NewPublisherSink(channel, logger)

		return publisher, publisher.Close, nil
	case "kafka":
		pub, err := kafka.CreatePublisher(watermill.NewSlogLogger(logger), kafka.ParseBrokers(brokers))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}

		publisher := audit.NewPublisherSink(pub, logger)

		return audit.MultiSink{logSink, publisher}, publisher.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported audit bus provider: %s", provider)
	}
}
