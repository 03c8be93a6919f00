package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish after Stop
var ErrBusStopped = errors.New("event bus stopped")

// InMemoryEventBus dispatches ledger events synchronously to the handlers
// subscribed in-process. Services publish after their transaction commits,
// so a failing handler never rolls back ledger state; its error is logged
// and returned to the publisher joined with the others.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	stopped  atomic.Bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{registry: NewHandlerRegistry(), logger: logger.Named("event_bus")}
}

// Publish implements shared.EventPublisher
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if b.stopped.Load() {
		return ErrBusStopped
	}
	var errs []error
	for _, e := range events {
		for _, h := range b.registry.Handlers(e.EventType()) {
			if err := b.dispatch(ctx, h, e); err != nil {
				logger.L(ctx, b.logger).Error("event handler failed",
					zap.String("event_type", e.EventType()),
					zap.String("event_id", e.EventID().String()),
					zap.String("owner_id", e.OwnerID().String()),
					zap.Error(err),
				)
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler. Without explicit types the handler's own
// EventTypes are used; an empty list subscribes to everything.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start implements shared.EventBus
func (b *InMemoryEventBus) Start(context.Context) error {
	b.stopped.Store(false)
	b.logger.Info("event bus started")
	return nil
}

// Stop implements shared.EventBus. Later Publish calls fail with ErrBusStopped.
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.stopped.Store(true)
	b.logger.Info("event bus stopped")
	return nil
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked on %s: %v", e.EventType(), r)
		}
	}()
	return h.Handle(ctx, e)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
