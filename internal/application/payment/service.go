package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/application/contracts"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/order"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/logging"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/metrics"
)

var (
	ErrPaymentsUnavailable = errors.New("online payments are not available")
	ErrAlreadyPaid         = errors.New("order is already paid")
	ErrAmountMismatch      = errors.New("amount does not match order total")
	ErrProviderMismatch    = errors.New("payment provider does not match configured provider")
	ErrLookupUnsupported   = errors.New("payment provider does not support status lookup")
	ErrPersistFailed       = errors.New("payment verified but order update failed")
)

// Sources recorded on settlement events.
const (
	SourceVerify   = "verify"
	SourceCallback = "callback"
)

type ProviderFactory interface {
	CreateProvider(payment.Settings) (payment.Provider, error)
	DecodeConfig(payment.ProviderID, json.RawMessage) (payment.ProviderConfig, error)
	SupportedProviders() []payment.ProviderID
}

type Service struct {
	SettingsRepo payment.SettingsRepository
	Orders       order.Repository
	Factory      ProviderFactory
	Recorder     contracts.EventRecorder
	Logger       logging.Logger
	Metrics      *metrics.Counters
}

// VerifyOutcome is the adapter verdict plus what happened to the order.
// PersistErr is set when a positive verdict could not be written.
type VerifyOutcome struct {
	payment.VerifyResponse
	Transition order.Transition `json:"transition,omitempty"`
	Persisted  bool             `json:"persisted"`
	PersistErr error            `json:"-"`
}

func (s *Service) Initiate(ctx context.Context, req payment.InitiateRequest) (payment.InitiateResponse, error) {
	if err := req.Validate(); err != nil {
		return payment.InitiateResponse{}, err
	}

	o, err := s.Orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return payment.InitiateResponse{}, err
	}
	if o.PaymentStatus == order.PaymentCompleted {
		return payment.InitiateResponse{}, ErrAlreadyPaid
	}
	if o.Total != req.Amount {
		return payment.InitiateResponse{}, fmt.Errorf("%w: order %s totals %d", ErrAmountMismatch, o.ID, o.Total)
	}

	_, p, err := s.provider(ctx)
	if err != nil {
		return payment.InitiateResponse{}, err
	}

	resp := p.InitiatePayment(ctx, req)
	if !resp.Success {
		s.metrics().IncInitiationFailed()
		s.logger().Error("payment initiation failed", map[string]any{
			"order_id": req.OrderID,
			"provider": string(p.Name()),
			"error":    resp.Error,
		})
		return resp, nil
	}

	s.metrics().IncInitiated()
	s.logger().Info("payment initiated", map[string]any{
		"order_id":   req.OrderID,
		"provider":   string(p.Name()),
		"payment_id": resp.PaymentID,
		"amount":     req.Amount,
	})
	return resp, nil
}

func (s *Service) Verify(ctx context.Context, req payment.VerifyRequest) (VerifyOutcome, error) {
	if req.PaymentID == "" || req.OrderID == "" {
		return VerifyOutcome{}, fmt.Errorf("%w: paymentId and orderId are required", payment.ErrInvalidRequest)
	}
	return s.settle(ctx, req, SourceVerify)
}

// Callback runs the verify flow for a gateway notification. The payment id
// may be absent when the gateway only names it inside its own fields.
func (s *Service) Callback(ctx context.Context, req payment.VerifyRequest) (VerifyOutcome, error) {
	if req.OrderID == "" {
		return VerifyOutcome{}, fmt.Errorf("%w: orderId is required", payment.ErrInvalidRequest)
	}
	return s.settle(ctx, req, SourceCallback)
}

func (s *Service) settle(ctx context.Context, req payment.VerifyRequest, source string) (VerifyOutcome, error) {
	settings, p, err := s.provider(ctx)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if req.Provider != "" && req.Provider != settings.Provider {
		return VerifyOutcome{}, fmt.Errorf("%w: got %s, configured %s", ErrProviderMismatch, req.Provider, settings.Provider)
	}

	o, err := s.Orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return VerifyOutcome{}, err
	}

	s.metrics().IncVerification()
	resp := p.VerifyPayment(ctx, req)
	outcome := VerifyOutcome{VerifyResponse: resp}

	fields := map[string]any{
		"order_id":   req.OrderID,
		"payment_id": resp.PaymentID,
		"provider":   string(p.Name()),
		"source":     source,
	}

	if !resp.Verified {
		s.metrics().IncRejected()
		fields["error"] = resp.Error
		s.logger().Warn("payment not verified", fields)
		return outcome, nil
	}

	if msg := mismatch(o, resp); msg != "" {
		s.metrics().IncRejected()
		outcome.Verified = false
		outcome.Error = msg
		fields["error"] = msg
		s.logger().Warn("verified payment does not match order", fields)
		return outcome, nil
	}

	target, ok := orderStatus(resp.Status)
	if !ok {
		s.logger().Info("payment still pending", fields)
		return outcome, nil
	}

	paymentID := resp.PaymentID
	if paymentID == "" {
		paymentID = req.PaymentID
	}

	transition, err := s.Orders.ApplyPayment(ctx, req.OrderID, target, paymentID)
	switch {
	case errors.Is(err, order.ErrPaymentConflict),
		errors.Is(err, order.ErrPaymentIDInUse),
		errors.Is(err, order.ErrOrderNotFound):
		return outcome, err
	case err != nil:
		s.metrics().IncPersistFailure()
		fields["error"] = err.Error()
		s.logger().Error("payment verified but order update failed", fields)
		outcome.PersistErr = fmt.Errorf("%w: %w", ErrPersistFailed, err)
		return outcome, nil
	}

	outcome.Transition = transition
	outcome.Persisted = true

	if transition == order.TransitionApplied {
		s.record(target, event.PaymentSettledPayload{
			OrderID:   req.OrderID,
			PaymentID: paymentID,
			Provider:  string(p.Name()),
			Source:    source,
		})
	}

	fields["transition"] = string(transition)
	s.logger().Info("payment verified", fields)
	return outcome, nil
}

func (s *Service) record(status order.PaymentStatus, payload event.PaymentSettledPayload) {
	if s.Recorder == nil {
		return
	}
	evtType := event.PaymentCompleted
	if status == order.PaymentFailed {
		evtType = event.PaymentFailed
	}
	if err := s.Recorder.Record(event.Event{Type: evtType, Payload: payload}); err != nil {
		s.logger().Error("settlement event not recorded", map[string]any{
			"order_id": payload.OrderID,
			"error":    err.Error(),
		})
	}
}

// LookupStatus asks the gateway for the current state of a payment.
func (s *Service) LookupStatus(ctx context.Context, paymentID string) (payment.Status, error) {
	_, p, err := s.provider(ctx)
	if err != nil {
		return "", err
	}
	lookup, ok := p.(payment.StatusLookup)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLookupUnsupported, p.Name())
	}
	return lookup.LookupStatus(ctx, paymentID)
}

func (s *Service) SupportedProviders() []payment.ProviderID {
	return s.Factory.SupportedProviders()
}

func (s *Service) provider(ctx context.Context) (payment.Settings, payment.Provider, error) {
	settings, err := s.SettingsRepo.Load(ctx)
	if err != nil {
		return payment.Settings{}, nil, err
	}
	if !settings.Configured() {
		return settings, nil, fmt.Errorf("%w: %w", ErrPaymentsUnavailable, payment.ErrNotConfigured)
	}

	p, err := s.Factory.CreateProvider(settings)
	if errors.Is(err, payment.ErrProviderDisabled) {
		return settings, nil, fmt.Errorf("%w: %w", ErrPaymentsUnavailable, err)
	}
	if err != nil {
		return settings, nil, err
	}
	return settings, p, nil
}

// mismatch reports why a verified payment cannot settle o. Gateways that do
// not report an amount or currency are not checked on that field.
func mismatch(o *order.Order, resp payment.VerifyResponse) string {
	if resp.Amount != 0 && resp.Amount != o.Total {
		return fmt.Sprintf("paid amount %d does not match order total %d", resp.Amount, o.Total)
	}
	if resp.Currency != "" && !strings.EqualFold(resp.Currency, o.Currency) {
		return fmt.Sprintf("paid currency %s does not match order currency %s", resp.Currency, o.Currency)
	}
	return ""
}

func orderStatus(status payment.Status) (order.PaymentStatus, bool) {
	switch status {
	case payment.StatusSuccess:
		return order.PaymentCompleted, true
	case payment.StatusFailed:
		return order.PaymentFailed, true
	}
	return "", false
}

func (s *Service) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Nop{}
	}
	return s.Logger
}

// unwired collects counts when no Counters are configured.
var unwired metrics.Counters

func (s *Service) metrics() *metrics.Counters {
	if s.Metrics == nil {
		return &unwired
	}
	return s.Metrics
}
