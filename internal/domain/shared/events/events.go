package events

import "time"

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder collects events raised by an aggregate until they are written to the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// Recorder is implemented by aggregates embedding EventRecorder.
type Recorder interface {
	PendingEvents() []DomainEvent
	ClearEvents()
}

// Drain returns the pending events of every recorder and clears them.
func Drain(recorders ...Recorder) []DomainEvent {
	var out []DomainEvent
	for _, r := range recorders {
		if r == nil {
			continue
		}
		out = append(out, r.PendingEvents()...)
		r.ClearEvents()
	}
	return out
}
