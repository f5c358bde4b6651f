package inmemory_test

import (
	"encoding/json"
	"time"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/outbox"
)

func paymentSettings(config string) payment.Settings {
	return payment.Settings{Provider: payment.ProviderStripe, Config: json.RawMessage(config), Enabled: true}
}

func outboxEvent(id string) outbox.OutboxEvent {
	return outbox.OutboxEvent{ID: id, Type: event.PaymentCompleted, Payload: []byte(`{}`), CreatedAt: time.Now()}
}
