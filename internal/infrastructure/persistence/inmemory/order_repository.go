package inmemory

import (
	"context"
	"maps"
	"sync"

	"github.com/zoobzio/clockz"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
	clock  clockz.Clock

	// byPayment maps a recorded payment id to the order holding it.
	byPayment map[string]string
}

func NewOrderRepository(clock clockz.Clock) *OrderRepository {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &OrderRepository{
		orders:    make(map[string]*order.Order),
		clock:     clock,
		byPayment: make(map[string]string),
	}
}

func (r *OrderRepository) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *o
	if cp.PaymentStatus == "" {
		cp.PaymentStatus = order.PaymentPending
	}
	cp.UpdatedAt = r.clock.Now()
	if prev, ok := r.orders[o.ID]; ok {
		r.unindex(prev)
	}
	r.orders[o.ID] = &cp
	r.index(&cp)
	return nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *OrderRepository) ApplyPayment(_ context.Context, id string, status order.PaymentStatus, paymentID string) (order.Transition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return "", order.ErrOrderNotFound
	}

	transition, err := o.CanApply(status, paymentID)
	if err != nil || transition == order.TransitionUnchanged {
		return transition, err
	}

	if owner, ok := r.byPayment[paymentID]; ok && owner != id {
		return "", order.ErrPaymentIDInUse
	}

	r.unindex(o)
	o.PaymentStatus = status
	o.PaymentID = paymentID
	o.UpdatedAt = r.clock.Now()
	r.index(o)
	return order.TransitionApplied, nil
}

func (r *OrderRepository) index(o *order.Order) {
	if o.PaymentID != "" {
		r.byPayment[o.PaymentID] = o.ID
	}
}

func (r *OrderRepository) unindex(o *order.Order) {
	if r.byPayment[o.PaymentID] == o.ID {
		delete(r.byPayment, o.PaymentID)
	}
}

func (r *OrderRepository) Orders() map[string]*order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Clone(r.orders)
}
