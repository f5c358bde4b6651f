package order

import (
	"errors"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrPaymentConflict = errors.New("order payment already settled")
	ErrPaymentIDInUse  = errors.New("payment id already settles another order")
)

type Order struct {
	ID            string        `json:"id"`
	CustomerID    string        `json:"customerId"`
	Total         int64         `json:"total"`
	Currency      string        `json:"currency"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentID     string        `json:"paymentId,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Transition is the outcome of applying a payment verdict to an order.
type Transition string

const (
	TransitionApplied   Transition = "applied"
	TransitionUnchanged Transition = "unchanged"
)

// CanApply decides whether a verdict for paymentID may move the order to
// status. A completed order only accepts a repeat of its own verdict.
func (o *Order) CanApply(status PaymentStatus, paymentID string) (Transition, error) {
	if o.PaymentStatus == status && o.PaymentID == paymentID {
		return TransitionUnchanged, nil
	}
	if o.PaymentStatus == PaymentCompleted {
		return "", ErrPaymentConflict
	}
	return TransitionApplied, nil
}
