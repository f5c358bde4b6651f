package outbox

import (
	"errors"
	"time"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
)

var ErrEventNotFound = errors.New("outbox event not found")

type OutboxEvent struct {
	ID        string
	Type      event.Type
	Payload   []byte
	Published bool
	CreatedAt time.Time
}

type Repository interface {
	Save(OutboxEvent) error
	FindUnpublished(int) ([]OutboxEvent, error)
	MarkPublished(string) error
}
