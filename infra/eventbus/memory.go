package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/atollmatch/atollmatch/pkg/domain/events"
	"github.com/atollmatch/atollmatch/pkg/eventbus"
)

// MemoryEventBus dispatches events synchronously on the emitting
// goroutine. Handler errors are logged and never returned to the emitter.
// It records every emitted event, which tests use to assert side effects.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a new synchronous in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers:  make(map[string][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]events.Event, 0),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type.
func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[event.Type()]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("failed to process event", "type", event.Type(), "error", err)
		}
	}
	return nil
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]events.Event, 0)
}

// Published returns a copy of the events emitted so far.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event(nil), b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)

type envelopeCtx struct {
	ctx   context.Context
	event events.Event
}

// MemoryAsyncEventBus queues events and runs handlers on background
// goroutines, so a slow notification never delays the request that
// emitted it.
type MemoryAsyncEventBus struct {
	handlers map[string][]eventbus.HandlerFunc
	mu       sync.RWMutex
	eventCh  chan envelopeCtx
	wg       sync.WaitGroup
	log      *slog.Logger
}

// NewWithMemoryAsync creates a new asynchronous in-memory event bus.
func NewWithMemoryAsync(logger *slog.Logger) *MemoryAsyncEventBus {
	b := &MemoryAsyncEventBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		eventCh:  make(chan envelopeCtx, 100),
		log:      logger.With("bus", "memory-async"),
	}
	go b.process()
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Emit enqueues the event. The handler context is detached from ctx's
// cancellation so that a finished HTTP request does not abort delivery.
func (b *MemoryAsyncEventBus) Emit(ctx context.Context, event events.Event) error {
	b.wg.Add(1)
	select {
	case b.eventCh <- envelopeCtx{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	case <-ctx.Done():
		b.wg.Done()
		return ctx.Err()
	}
}

// Wait blocks until every event emitted so far has been handled.
func (b *MemoryAsyncEventBus) Wait() {
	b.wg.Wait()
}

func (b *MemoryAsyncEventBus) process() {
	for w := range b.eventCh {
		go func(w envelopeCtx) {
			defer b.wg.Done()
			b.mu.RLock()
			handlers := append([]eventbus.HandlerFunc{}, b.handlers[w.event.Type()]...)
			b.mu.RUnlock()
			for _, handler := range handlers {
				func() {
					defer func() {
						if r := recover(); r != nil {
							b.log.Error("panic recovered in event handler", "type", w.event.Type(), "panic", r)
						}
					}()
					if err := handler(w.ctx, w.event); err != nil {
						b.log.Error("failed to process event", "type", w.event.Type(), "error", err)
					}
				}()
			}
		}(w)
	}
}

var _ eventbus.Bus = (*MemoryAsyncEventBus)(nil)
