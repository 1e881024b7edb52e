package events

import (
	"context"
	"sync"

	"leadrouter_backend/platform/logger"
)

// InMemoryBus is a simple in-process event bus. Publish runs handlers on a
// separate goroutine; PublishSync runs them inline and collects the first
// error. Handler panics are recovered and logged so a misbehaving subscriber
// cannot take down the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all subscribers asynchronously.
// The caller's context deadline does not apply to handler execution.
func (b *InMemoryBus) Publish(_ context.Context, event Event) {
	b.mu.RLock()
	subscribers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		return
	}

	go func() {
		for _, h := range subscribers {
			b.dispatch(context.Background(), h, event)
		}
	}()
}

// PublishSync dispatches the event inline and returns the first handler error.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	subscribers := append([]Handler(nil), b.handlers[event.EventName()]...)
	b.mu.RUnlock()

	var firstErr error
	for _, h := range subscribers {
		if err := b.dispatch(ctx, h, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *InMemoryBus) dispatch(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if b.log != nil {
				b.log.Error("event handler panicked", "event", event.EventName(), "panic", r)
			}
		}
	}()

	err = h.Handle(ctx, event)
	if err != nil && b.log != nil {
		b.log.Warn("event handler failed", "event", event.EventName(), "error", err)
	}
	return err
}

var _ Bus = (*InMemoryBus)(nil)
