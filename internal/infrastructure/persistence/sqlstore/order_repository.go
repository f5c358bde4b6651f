package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/order"
)

// maxApplyAttempts bounds the compare-and-set loop in ApplyPayment.
const maxApplyAttempts = 3

var errApplyContended = errors.New("order payment update contended")

type OrderRepository struct {
	db    *sql.DB
	clock clockz.Clock
}

func NewOrderRepository(db *sql.DB, clock clockz.Clock) *OrderRepository {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &OrderRepository{db: db, clock: clock}
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	status := o.PaymentStatus
	if status == "" {
		status = order.PaymentPending
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders
		 (id, customer_id, total, currency, payment_status, payment_id, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   customer_id = excluded.customer_id,
		   total = excluded.total,
		   currency = excluded.currency,
		   payment_status = excluded.payment_status,
		   payment_id = excluded.payment_id,
		   updated_at = excluded.updated_at`,
		o.ID,
		o.CustomerID,
		o.Total,
		o.Currency,
		string(status),
		o.PaymentID,
		r.now(),
	)
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, total, currency, payment_status, payment_id, updated_at
		 FROM orders
		 WHERE id = $1`,
		id,
	)

	var o order.Order
	var status string
	if err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.Total,
		&o.Currency,
		&status,
		&o.PaymentID,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, err
	}

	o.PaymentStatus = order.PaymentStatus(status)
	return &o, nil
}

// ApplyPayment moves the order to status only if the row still holds the
// state the decision was made on. A lost race re-reads and decides again.
func (r *OrderRepository) ApplyPayment(ctx context.Context, id string, status order.PaymentStatus, paymentID string) (order.Transition, error) {
	for range maxApplyAttempts {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return "", err
		}

		transition, err := current.CanApply(status, paymentID)
		if err != nil || transition == order.TransitionUnchanged {
			return transition, err
		}
		if err := r.paymentIDFree(ctx, id, paymentID); err != nil {
			return "", err
		}

		res, err := r.db.ExecContext(ctx,
			`UPDATE orders
			 SET payment_status = $1, payment_id = $2, updated_at = $3
			 WHERE id = $4 AND payment_status = $5 AND payment_id = $6`,
			string(status),
			paymentID,
			r.now(),
			id,
			string(current.PaymentStatus),
			current.PaymentID,
		)
		if err != nil {
			// A concurrent settlement may have taken the payment id between
			// the check and the update; the unique index rejects it.
			if inUse := r.paymentIDFree(ctx, id, paymentID); errors.Is(inUse, order.ErrPaymentIDInUse) {
				return "", inUse
			}
			return "", err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return "", err
		}
		if affected == 1 {
			return order.TransitionApplied, nil
		}
	}

	return "", errApplyContended
}

// paymentIDFree fails with ErrPaymentIDInUse when another order already
// records paymentID.
func (r *OrderRepository) paymentIDFree(ctx context.Context, id, paymentID string) error {
	var owner string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE payment_id = $1 AND id <> $2`,
		paymentID, id,
	).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return err
	}
	return fmt.Errorf("%w: %s", order.ErrPaymentIDInUse, owner)
}

func (r *OrderRepository) now() time.Time {
	return r.clock.Now().UTC()
}
