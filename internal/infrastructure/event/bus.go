// Package event delivers domain events to in-process handlers once the
// unit of work that raised them has committed.
package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/erp/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish on a bus that is not running
var ErrBusStopped = errors.New("event bus is not running")

// subscription is a handler and the event types it receives; nil types
// receive everything
type subscription struct {
	handler shared.EventHandler
	types   []string
}

func (s subscription) wants(eventType string) bool {
	return s.types == nil || slices.Contains(s.types, eventType)
}

// InMemoryEventBus dispatches synchronously, in subscription order.
type InMemoryEventBus struct {
	logger *zap.Logger

	mu       sync.RWMutex
	subs     []subscription
	running  bool
	inflight sync.WaitGroup
}

// NewInMemoryEventBus creates a stopped bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{logger: logger}
}

// Subscribe registers handler for eventTypes, falling back to
// handler.EventTypes(). A handler with no types receives every event.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	sub := subscription{handler: handler}
	if len(eventTypes) > 0 {
		sub.types = slices.Clone(eventTypes)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	b.logger.Debug("handler subscribed",
		zap.String("handler", fmt.Sprintf("%T", handler)),
		zap.Strings("event_types", eventTypes),
	)
}

// Publish hands each event to its handlers. The owning transaction has
// already committed, so handler errors and panics are logged and never
// returned.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	if !b.running {
		b.mu.RUnlock()
		return ErrBusStopped
	}
	b.inflight.Add(1)
	subs := b.subs
	b.mu.RUnlock()
	defer b.inflight.Done()

	for _, e := range events {
		for _, sub := range subs {
			if !sub.wants(e.EventType()) {
				continue
			}
			if err := b.deliver(ctx, sub.handler, e); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("handler", fmt.Sprintf("%T", sub.handler)),
					zap.String("event_type", e.EventType()),
					zap.String("event_id", e.EventID().String()),
					zap.String("aggregate_id", e.AggregateID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

func (b *InMemoryEventBus) deliver(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", e.EventType()),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, e)
}

// Start lets Publish deliver events
func (b *InMemoryEventBus) Start(context.Context) error {
	b.mu.Lock()
	b.running = true
	b.mu.Unlock()
	b.logger.Info("event bus started")
	return nil
}

// Stop rejects new publications and waits for those in flight
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
	b.inflight.Wait()
	b.logger.Info("event bus stopped")
	return nil
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
