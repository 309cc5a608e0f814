// Package event provides the in-process publish/subscribe bus used to fan
// out catalog change notifications.
package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topics published by the catalog repository.
const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
)

// Event is a single bus message. Payload carries a topic-specific value
// (for product topics, the product ID).
type Event struct {
	Topic     string
	Source    string
	Timestamp time.Time
	Payload   any
}

// Handler processes a published event. Handlers run synchronously during
// Publish; long-running work should use PublishAsync or spawn its own
// goroutine.
type Handler func(ctx context.Context, e Event)

// Bus is a topic-based in-process event bus. Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	logger *zap.Logger
	nextID int
	topics map[string]map[int]Handler
	all    map[int]Handler
}

// NewBus creates an event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger: logger,
		topics: make(map[string]map[int]Handler),
		all:    make(map[int]Handler),
	}
}

// Subscribe registers a handler for a single topic and returns an
// unsubscribe function.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]Handler)
	}
	b.topics[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.topics[topic], id)
	}
}

// SubscribeAll registers a handler for every topic and returns an
// unsubscribe function.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.all[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Publish delivers the event synchronously to every matching handler.
// A panicking handler is recovered and logged; remaining handlers still run.
// Publishing with no subscribers is not an error.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	for _, h := range b.snapshot(e.Topic) {
		b.deliver(ctx, h, e)
	}
	return nil
}

// PublishAsync delivers the event on a separate goroutine and returns
// immediately.
func (b *Bus) PublishAsync(ctx context.Context, e Event) {
	handlers := b.snapshot(e.Topic)
	go func() {
		for _, h := range handlers {
			b.deliver(ctx, h, e)
		}
	}()
}

// snapshot copies the matching handlers so delivery happens outside the lock.
func (b *Bus) snapshot(topic string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	handlers := make([]Handler, 0, len(b.topics[topic])+len(b.all))
	for _, h := range b.topics[topic] {
		handlers = append(handlers, h)
	}
	for _, h := range b.all {
		handlers = append(handlers, h)
	}
	return handlers
}

func (b *Bus) deliver(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", e.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, e)
}
