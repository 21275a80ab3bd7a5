// Package events provides the in-process event bus used for decoupled
// communication between bounded contexts. It is platform infrastructure
// and carries no business logic.
package events

import (
	"context"
	"time"
)

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish fans the event out to every handler registered for its
	// name. Handlers run asynchronously.
	Publish(ctx context.Context, event Event)

	// PublishSync fans the event out and waits for every handler,
	// returning the first handler error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for events whose EventName matches
	// eventName.
	Subscribe(eventName string, handler Handler)
}

// Event is implemented by every domain event that crosses a module
// boundary.
type Event interface {
	// EventName uniquely identifies the event type on the bus.
	EventName() string
	// OccurredAt is the wall-clock time the event happened.
	OccurredAt() time.Time
}

// Handler processes events of a single type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// BaseEvent supplies the timestamp shared by all concrete events; embed
// it and implement EventName on the concrete type.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// OccurredAt returns the event timestamp.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}
