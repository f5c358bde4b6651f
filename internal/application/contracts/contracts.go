package contracts

import "github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"

type EventRecorder interface {
	Record(event.Event) error
}
