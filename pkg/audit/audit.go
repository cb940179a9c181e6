// Package audit records administrative actions taken against the flow set.
package audit

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// Topic is the message topic audit events are published on.
const Topic = "flowadmin.audit"

const EventTypeMetadataKey = "event"

// Audit event names.
const (
	EventFlowsGet       = "flows.get"
	EventFlowsSet       = "flows.set"
	EventFlowAdd        = "flow.add"
	EventFlowGet        = "flow.get"
	EventFlowUpdate     = "flow.update"
	EventFlowRemove     = "flow.remove"
	EventCredentialsGet = "credentials.get"
)

// Event is one structured audit record.
type Event struct {
	ID        string         `json:"id"`
	Event     string         `json:"event"`
	User      string         `json:"user,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// NewEvent creates an audit event for the given user, stamped with a new id
// and the current time.
func NewEvent(name, user string, fields map[string]any) Event {
	return Event{
		ID:        watermill.NewULID(),
		Event:     name,
		User:      user,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	}
}

// Sink receives audit events. Audit never fails the caller, so sinks report
// delivery problems through their own logging.
type Sink interface {
	Audit(ctx context.Context, event Event)
}

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Audit(ctx context.Context, event Event) {
	for _, sink := range m {
		sink.Audit(ctx, event)
	}
}
