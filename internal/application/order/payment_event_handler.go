package order

import (
	"context"
	"fmt"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
	domainOrder "github.com/rcarvalho-pb/bakery_payments-go/internal/domain/order"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/logging"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/metrics"
)

// PaymentEventHandler reacts to settled payments once the outbox publishes
// them. It re-reads the order so a delayed event never reports a state the
// order has since left.
type PaymentEventHandler struct {
	Repo    domainOrder.Repository
	Logger  logging.Logger
	Metrics *metrics.Counters
}

func (h *PaymentEventHandler) Handle(evt event.Event) error {
	payload, ok := evt.Payload.(event.PaymentSettledPayload)
	if !ok {
		return fmt.Errorf("invalid payload for %s", evt.Type)
	}

	o, err := h.Repo.FindByID(context.Background(), payload.OrderID)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"order_id":   o.ID,
		"payment_id": payload.PaymentID,
		"provider":   payload.Provider,
		"source":     payload.Source,
	}

	switch evt.Type {
	case event.PaymentCompleted:
		if o.PaymentStatus != domainOrder.PaymentCompleted || o.PaymentID != payload.PaymentID {
			h.Logger.Warn("stale payment completed event", fields)
			return nil
		}
		h.Metrics.IncSettled()
		fields["total"] = o.Total
		fields["currency"] = o.Currency
		h.Logger.Info("order paid", fields)

	case event.PaymentFailed:
		if o.PaymentStatus != domainOrder.PaymentFailed {
			h.Logger.Warn("stale payment failed event", fields)
			return nil
		}
		h.Logger.Info("order payment failed", fields)
	}
	return nil
}
