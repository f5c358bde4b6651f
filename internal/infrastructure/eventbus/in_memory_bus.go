package eventbus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
)

type HandlerFunc func(event.Event) error

// InMemoryBus fans an event out to every handler subscribed to its type.
// All handlers run even when one fails; their errors are joined so the
// outbox keeps the event for another attempt.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerFunc
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[event.Type][]HandlerFunc),
	}
}

func (b *InMemoryBus) Subscribe(eventType event.Type, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *InMemoryBus) Publish(evt event.Event) error {
	b.mu.RLock()
	handlers := append([]HandlerFunc(nil), b.handlers[evt.Type]...)
	b.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := handler(evt); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", evt.Type, i, err))
		}
	}

	return errors.Join(errs...)
}
