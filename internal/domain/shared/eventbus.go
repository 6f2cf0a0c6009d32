package shared

import "context"

// EventHandler consumes domain events. EventTypes narrows what the
// handler receives; an empty slice subscribes it to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is the side services see: fire events, don't care who
// listens.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is both ends of the in-process event pipeline.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
