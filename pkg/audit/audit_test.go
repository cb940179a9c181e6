package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/flowadmin/pkg/channels/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventFlowGet, "alice", map[string]any{"id": "f1"})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventFlowGet, event.Event)
	assert.Equal(t, "alice", event.User)
	assert.WithinDuration(t, time.Now(), event.Timestamp, time.Minute)
	assert.Equal(t, "f1", event.Fields["id"])
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer

	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	sink.Audit(context.Background(), NewEvent(EventFlowsSet, "bob", map[string]any{"type": "full"}))

	output := buf.String()
	assert.Contains(t, output, "event=flows.set")
	assert.Contains(t, output, "user=bob")
	assert.Contains(t, output, "type=full")
}

func TestPublisherSink(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.CreateTestChannel(watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(ctx, Topic)
	require.NoError(t, err)

	sink := NewPublisherSink(pubSub, slog.Default())
	sink.Audit(ctx, NewEvent(EventFlowRemove, "carol", map[string]any{"id": "f2"}))

	select {
	case msg := <-messages:
		msg.Ack()

		assert.Equal(t, EventFlowRemove, msg.Metadata.Get(EventTypeMetadataKey))

		var event Event
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "carol", event.User)
		assert.Equal(t, "f2", event.Fields["id"])
	case <-ctx.Done():
		t.Fatal("audit event was not published")
	}
}

type brokenPublisher struct{}

func (brokenPublisher) Publish(string, ...*message.Message) error {
	return errors.New("broker down")
}

func (brokenPublisher) Close() error { return nil }

func TestPublisherSink_PublishFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer

	sink := NewPublisherSink(brokenPublisher{}, slog.New(slog.NewTextHandler(&buf, nil)))
	sink.Audit(context.Background(), NewEvent(EventFlowAdd, "dave", nil))

	assert.Contains(t, buf.String(), "broker down")
}

type recordingSink struct {
	events []Event
}

func (r *recordingSink) Audit(_ context.Context, event Event) {
	r.events = append(r.events, event)
}

func TestMultiSink(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}

	MultiSink{first, second}.Audit(context.Background(), NewEvent(EventFlowsGet, "erin", nil))

	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1)
}

type channelSink chan Event

func (c channelSink) Audit(_ context.Context, event Event) {
	c <- event
}

func TestConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pubSub := gochannel.CreateChannel(watermill.NopLogger{})
	defer pubSub.Close()

	received := make(channelSink, 2)
	require.NoError(t, Consume(ctx, pubSub, received, slog.Default()))

	require.NoError(t, pubSub.Publish(Topic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	NewPublisherSink(pubSub, slog.Default()).
		Audit(ctx, NewEvent(EventFlowUpdate, "frank", map[string]any{"id": "f3"}))

	select {
	case event := <-received:
		assert.Equal(t, EventFlowUpdate, event.Event)
		assert.Equal(t, "frank", event.User)
		assert.Equal(t, "f3", event.Fields["id"])
	case <-ctx.Done():
		t.Fatal("audit event was not consumed")
	}
}
