package inmemory

import (
	"sync"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/outbox"
)

type OutboxRepository struct {
	mu     sync.Mutex
	events []outbox.OutboxEvent
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{}
}

func (r *OutboxRepository) Save(evt outbox.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, evt)
	return nil
}

func (r *OutboxRepository) FindUnpublished(limit int) ([]outbox.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []outbox.OutboxEvent
	for _, evt := range r.events {
		if len(out) == limit {
			break
		}
		if !evt.Published {
			out = append(out, evt)
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Published = true
			return nil
		}
	}
	return outbox.ErrEventNotFound
}
