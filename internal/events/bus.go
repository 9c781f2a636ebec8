// Package events carries session engine notifications over a kelindar/event
// dispatcher.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// A nil bus drops the event.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case RequestCompletedEvent:
		event.Publish(b.dispatcher, e)
	case RequestFailedEvent:
		event.Publish(b.dispatcher, e)
	case ReplyDiscardedEvent:
		event.Publish(b.dispatcher, e)
	case TransportLostEvent:
		event.Publish(b.dispatcher, e)
	case AddressedEvent:
		event.Publish(b.dispatcher, e)
	case NetworkChangeEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function. The handler type
// selects the events it receives. Returns an unsubscribe function.
// Usage: unsub := bus.Subscribe(func(e ReplyDiscardedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(RequestCompletedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(RequestFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReplyDiscardedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TransportLostEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AddressedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(NetworkChangeEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
