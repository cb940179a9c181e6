package mocks

import (
	"context"
	"sync"

	"github.com/dukex/flowadmin/pkg/audit"
)

// RecordingSink is an audit.Sink that keeps every event it receives.
type RecordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *RecordingSink) Audit(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

// Events returns the recorded events in arrival order.
func (r *RecordingSink) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]audit.Event(nil), r.events...)
}

// Last returns the most recent event, or a zero event when none was recorded.
func (r *RecordingSink) Last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return audit.Event{}
	}

	return r.events[len(r.events)-1]
}
