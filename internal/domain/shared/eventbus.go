package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in.
	// An empty slice means the handler receives all events.
	EventTypes() []string
}

// EventPublisher publishes domain events.
// Services publish only after the owning transaction has committed.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// EventCollector accumulates events raised inside a transaction so they can
// be published once the transaction commits.
type EventCollector struct {
	events []DomainEvent
}

// Add appends events to the collector
func (c *EventCollector) Add(events ...DomainEvent) {
	c.events = append(c.events, events...)
}

// Collect drains pending events from an aggregate into the collector
func (c *EventCollector) Collect(agg AggregateRoot) {
	c.events = append(c.events, agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
}

// Events returns the collected events
func (c *EventCollector) Events() []DomainEvent {
	return c.events
}

// Reset discards collected events, used when a transaction is retried or rolled back
func (c *EventCollector) Reset() {
	c.events = nil
}
