package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentApplication "github.com/rcarvalho-pb/bakery_payments-go/internal/application/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/order"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/provider"
)

type fakeStripeGateway struct {
	createFn func(provider.StripeIntentParams) (*provider.StripeIntent, error)
	getFn    func(string) (*provider.StripeIntent, error)
}

func (f *fakeStripeGateway) CreateIntent(_ context.Context, p provider.StripeIntentParams) (*provider.StripeIntent, error) {
	return f.createFn(p)
}

func (f *fakeStripeGateway) GetIntent(_ context.Context, id string) (*provider.StripeIntent, error) {
	return f.getFn(id)
}

type fakeOrders struct {
	order.Repository
	applyFn func(string, order.PaymentStatus, string) (order.Transition, error)
}

func (f *fakeOrders) ApplyPayment(_ context.Context, id string, status order.PaymentStatus, paymentID string) (order.Transition, error) {
	return f.applyFn(id, status, paymentID)
}

type fixture struct {
	service  *paymentApplication.Service
	orders   *inmemory.OrderRepository
	settings *inmemory.SettingsRepository
	outbox   *inmemory.OutboxRepository
	metrics  *metrics.Counters
	stripe   *fakeStripeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:   inmemory.NewOrderRepository(nil),
		settings: inmemory.NewSettingsRepository(),
		outbox:   inmemory.NewOutboxRepository(),
		metrics:  &metrics.Counters{},
		stripe: &fakeStripeGateway{
			createFn: func(p provider.StripeIntentParams) (*provider.StripeIntent, error) {
				return &provider.StripeIntent{ID: "pi_1", ClientSecret: "pi_1_secret_x", Amount: p.Amount, Currency: p.Currency}, nil
			},
			getFn: func(id string) (*provider.StripeIntent, error) {
				return &provider.StripeIntent{
					ID:       id,
					Status:   "succeeded",
					Amount:   500,
					Currency: "usd",
					Metadata: map[string]string{"orderId": "o1"},
				}, nil
			},
		},
	}

	factory := provider.NewFactory(
		provider.WithStripeGateway(func(payment.StripeConfig) provider.StripeGateway { return f.stripe }),
	)

	f.service = &paymentApplication.Service{
		SettingsRepo: f.settings,
		Orders:       f.orders,
		Factory:      factory,
		Recorder:     &outbox.Recorder{Repo: f.outbox},
		Metrics:      f.metrics,
	}

	require.NoError(t, f.orders.Save(context.Background(), &order.Order{
		ID:         "o1",
		CustomerID: "c1",
		Total:      500,
		Currency:   "USD",
	}))
	return f
}

func (f *fixture) configure(t *testing.T, id payment.ProviderID, config string, enabled bool) {
	t.Helper()
	_, err := f.settings.Save(context.Background(), payment.Settings{
		Provider: id,
		Config:   json.RawMessage(config),
		Enabled:  enabled,
	})
	require.NoError(t, err)
}

func (f *fixture) order(t *testing.T, id string) *order.Order {
	t.Helper()
	o, err := f.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (f *fixture) events(t *testing.T) []outbox.OutboxEvent {
	t.Helper()
	events, err := f.outbox.FindUnpublished(100)
	require.NoError(t, err)
	return events
}

func janeOrder() payment.InitiateRequest {
	return payment.InitiateRequest{
		OrderID:  "o1",
		Amount:   500,
		Currency: "USD",
		Customer: payment.Customer{ID: "c1", Name: "Jane"},
	}
}

const (
	stripeConfig   = `{"secretKey":"sk_test_123"}`
	razorpayConfig = `{"keyId":"rzp_test_key","keySecret":"rzp_secret"}`
	payuConfig     = `{"merchantKey":"gtKFFx","salt":"eCwWELxi"}`
)

func razorpayVerify(paymentID string) payment.VerifyRequest {
	return payment.VerifyRequest{
		PaymentID: paymentID,
		OrderID:   "o1",
		Metadata: map[string]any{
			"razorpay_order_id":  "order_1",
			"razorpay_signature": provider.RazorpaySignature("rzp_secret", "order_1", paymentID),
		},
	}
}

func TestInitiate_Stripe_ReturnsClientSecret(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)

	resp, err := f.service.Initiate(context.Background(), janeOrder())

	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.ClientSecret)
	assert.EqualValues(t, 1, f.metrics.PaymentsInitiated)
}

func TestInitiate_Razorpay_ReturnsKeyIDAndAmount(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderRazorpay, razorpayConfig, true)

	resp, err := f.service.Initiate(context.Background(), janeOrder())

	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, "rzp_test_key", resp.KeyID)
	assert.EqualValues(t, 500, resp.Amount)
	assert.Empty(t, resp.ClientSecret)
}

func TestInitiate_GatewayFailureIsLogicalFailure(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)
	f.stripe.createFn = func(provider.StripeIntentParams) (*provider.StripeIntent, error) {
		return nil, errors.New("api_connection_error")
	}

	resp, err := f.service.Initiate(context.Background(), janeOrder())

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.EqualValues(t, 1, f.metrics.InitiationsFailed)
}

func TestInitiate_Unavailable(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Initiate(context.Background(), janeOrder())
	require.ErrorIs(t, err, paymentApplication.ErrPaymentsUnavailable)
	require.ErrorIs(t, err, payment.ErrNotConfigured)

	f.configure(t, payment.ProviderStripe, stripeConfig, false)

	_, err = f.service.Initiate(context.Background(), janeOrder())
	require.ErrorIs(t, err, paymentApplication.ErrPaymentsUnavailable)
	require.ErrorIs(t, err, payment.ErrProviderDisabled)
}

func TestInitiate_RejectsBadRequests(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)
	ctx := context.Background()

	req := janeOrder()
	req.Currency = "XYZ"
	_, err := f.service.Initiate(ctx, req)
	require.ErrorIs(t, err, payment.ErrInvalidRequest)

	req = janeOrder()
	req.OrderID = "missing"
	_, err = f.service.Initiate(ctx, req)
	require.ErrorIs(t, err, order.ErrOrderNotFound)

	req = janeOrder()
	req.Amount = 499
	_, err = f.service.Initiate(ctx, req)
	require.ErrorIs(t, err, paymentApplication.ErrAmountMismatch)

	_, err = f.orders.ApplyPayment(ctx, "o1", order.PaymentCompleted, "pi_0")
	require.NoError(t, err)
	_, err = f.service.Initiate(ctx, janeOrder())
	require.ErrorIs(t, err, paymentApplication.ErrAlreadyPaid)
}

func TestVerify_Razorpay_CompletesOrderOnce(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderRazorpay, razorpayConfig, true)
	ctx := context.Background()

	outcome, err := f.service.Verify(ctx, razorpayVerify("pay_1"))
	require.NoError(t, err)
	require.True(t, outcome.Verified)
	require.True(t, outcome.Persisted)
	assert.Equal(t, order.TransitionApplied, outcome.Transition)

	o := f.order(t, "o1")
	assert.Equal(t, order.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, "pay_1", o.PaymentID)

	outcome, err = f.service.Verify(ctx, razorpayVerify("pay_1"))
	require.NoError(t, err)
	assert.Equal(t, order.TransitionUnchanged, outcome.Transition)
	assert.Equal(t, order.PaymentCompleted, f.order(t, "o1").PaymentStatus)

	events := f.events(t)
	require.Len(t, events, 1, "a repeated verdict must not emit a second event")
	assert.Equal(t, event.PaymentCompleted, events[0].Type)

	payload, err := event.DecodePayload(events[0].Type, events[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, event.PaymentSettledPayload{
		OrderID:   "o1",
		PaymentID: "pay_1",
		Provider:  "razorpay",
		Source:    paymentApplication.SourceVerify,
	}, payload)
}

func TestVerify_BadSignatureLeavesOrderPending(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderRazorpay, razorpayConfig, true)

	req := razorpayVerify("pay_1")
	req.Metadata["razorpay_signature"] = "deadbeef"

	outcome, err := f.service.Verify(context.Background(), req)

	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.False(t, outcome.Persisted)
	assert.Equal(t, order.PaymentPending, f.order(t, "o1").PaymentStatus)
	assert.Empty(t, f.events(t))
	assert.EqualValues(t, 1, f.metrics.VerificationsRejected)
}

func TestVerify_RequiresIDs(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Verify(context.Background(), payment.VerifyRequest{OrderID: "o1"})
	require.ErrorIs(t, err, payment.ErrInvalidRequest)
}

func TestVerify_ProviderMismatchFailsClosed(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderRazorpay, razorpayConfig, true)

	req := razorpayVerify("pay_1")
	req.Provider = payment.ProviderPayU

	_, err := f.service.Verify(context.Background(), req)

	require.ErrorIs(t, err, paymentApplication.ErrProviderMismatch)
	assert.Equal(t, order.PaymentPending, f.order(t, "o1").PaymentStatus)
}

func TestVerify_PersistFailureIsReportedDistinctly(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)
	f.service.Orders = &fakeOrders{
		Repository: f.orders,
		applyFn: func(string, order.PaymentStatus, string) (order.Transition, error) {
			return "", errors.New("database is locked")
		},
	}

	outcome, err := f.service.Verify(context.Background(), payment.VerifyRequest{PaymentID: "pi_1", OrderID: "o1"})

	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.False(t, outcome.Persisted)
	require.ErrorIs(t, outcome.PersistErr, paymentApplication.ErrPersistFailed)
	assert.EqualValues(t, 1, f.metrics.PersistFailures)
}

func TestVerify_CompletedOrderRejectsOtherPayment(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderRazorpay, razorpayConfig, true)
	ctx := context.Background()

	_, err := f.service.Verify(ctx, razorpayVerify("pay_1"))
	require.NoError(t, err)

	_, err = f.service.Verify(ctx, razorpayVerify("pay_2"))
	require.ErrorIs(t, err, order.ErrPaymentConflict)
	assert.Equal(t, "pay_1", f.order(t, "o1").PaymentID)
}

func (f *fixture) addOrder(t *testing.T, id string, total int64) {
	t.Helper()
	require.NoError(t, f.orders.Save(context.Background(), &order.Order{
		ID:         id,
		CustomerID: "c2",
		Total:      total,
		Currency:   "USD",
	}))
}

func TestVerify_StripeIntentSettlesOnlyItsOrder(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)
	f.addOrder(t, "o2", 90000)
	ctx := context.Background()

	outcome, err := f.service.Verify(ctx, payment.VerifyRequest{PaymentID: "pi_1", OrderID: "o1"})
	require.NoError(t, err)
	require.True(t, outcome.Persisted)

	outcome, err = f.service.Verify(ctx, payment.VerifyRequest{PaymentID: "pi_1", OrderID: "o2"})

	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.False(t, outcome.Persisted)
	assert.Equal(t, order.PaymentPending, f.order(t, "o2").PaymentStatus)
	assert.Len(t, f.events(t), 1)
}

func TestVerify_PaidAmountMustMatchOrderTotal(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)
	f.addOrder(t, "o2", 90000)
	f.stripe.getFn = func(id string) (*provider.StripeIntent, error) {
		return &provider.StripeIntent{
			ID:       id,
			Status:   "succeeded",
			Amount:   500,
			Currency: "usd",
			Metadata: map[string]string{"orderId": "o2"},
		}, nil
	}

	outcome, err := f.service.Verify(context.Background(), payment.VerifyRequest{PaymentID: "pi_7", OrderID: "o2"})

	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.False(t, outcome.Persisted)
	assert.Contains(t, outcome.Error, "amount")
	assert.Equal(t, order.PaymentPending, f.order(t, "o2").PaymentStatus)
	assert.Empty(t, f.events(t))
	assert.EqualValues(t, 1, f.metrics.VerificationsRejected)
}

func TestCallback_PaidCurrencyMustMatchOrder(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderPayU, payuConfig, true)

	outcome, err := f.service.Callback(context.Background(), payment.VerifyRequest{
		PaymentID: "403993715521",
		OrderID:   "o1",
		Metadata: map[string]any{
			"txnid":     "o1",
			"status":    "success",
			"amount":    "500",
			"currency":  "INR",
			"firstname": "Jane",
			"hash":      provider.PayUResponseHash("gtKFFx", "eCwWELxi", "success", "o1", "500", "INR", "Jane"),
		},
	})

	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Contains(t, outcome.Error, "currency")
	assert.Equal(t, order.PaymentPending, f.order(t, "o1").PaymentStatus)
}

func TestVerify_RazorpayPaymentIDSettlesOneOrder(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderRazorpay, razorpayConfig, true)
	f.addOrder(t, "o2", 500)
	ctx := context.Background()

	_, err := f.service.Verify(ctx, razorpayVerify("pay_1"))
	require.NoError(t, err)

	reused := razorpayVerify("pay_1")
	reused.OrderID = "o2"
	outcome, err := f.service.Verify(ctx, reused)

	require.ErrorIs(t, err, order.ErrPaymentIDInUse)
	assert.False(t, outcome.Persisted)
	assert.Equal(t, order.PaymentPending, f.order(t, "o2").PaymentStatus)
	assert.Len(t, f.events(t), 1)
}

func TestVerify_StripePendingDoesNotTouchOrder(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)
	f.stripe.getFn = func(id string) (*provider.StripeIntent, error) {
		return &provider.StripeIntent{ID: id, Status: "processing", Metadata: map[string]string{"orderId": "o1"}}, nil
	}

	outcome, err := f.service.Verify(context.Background(), payment.VerifyRequest{PaymentID: "pi_1", OrderID: "o1"})

	require.NoError(t, err)
	assert.False(t, outcome.Verified)
	assert.Equal(t, payment.StatusPending, outcome.Status)
	assert.Equal(t, order.PaymentPending, f.order(t, "o1").PaymentStatus)
}

func TestCallback_PayUFailureMarksOrderFailed(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderPayU, payuConfig, true)

	outcome, err := f.service.Callback(context.Background(), payment.VerifyRequest{
		PaymentID: "403993715521",
		OrderID:   "o1",
		Metadata: map[string]any{
			"txnid":     "o1",
			"status":    "failure",
			"amount":    "500",
			"currency":  "USD",
			"firstname": "Jane",
			"hash":      provider.PayUResponseHash("gtKFFx", "eCwWELxi", "failure", "o1", "500", "USD", "Jane"),
		},
	})

	require.NoError(t, err)
	assert.True(t, outcome.Verified)
	assert.Equal(t, order.PaymentFailed, f.order(t, "o1").PaymentStatus)

	events := f.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, event.PaymentFailed, events[0].Type)
}

func TestCallback_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderPayU, payuConfig, true)

	_, err := f.service.Callback(context.Background(), payment.VerifyRequest{OrderID: "nope"})

	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestLookupStatus(t *testing.T) {
	f := newFixture(t)
	f.configure(t, payment.ProviderStripe, stripeConfig, true)

	status, err := f.service.LookupStatus(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSuccess, status)

	f.configure(t, payment.ProviderPayU, payuConfig, true)
	_, err = f.service.LookupStatus(context.Background(), "x")
	require.ErrorIs(t, err, paymentApplication.ErrLookupUnsupported)
}
