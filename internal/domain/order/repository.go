package order

import "context"

type Repository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	// ApplyPayment records a verified payment verdict as a check-and-set on
	// the order's payment status and payment id.
	ApplyPayment(ctx context.Context, id string, status PaymentStatus, paymentID string) (Transition, error)
}
