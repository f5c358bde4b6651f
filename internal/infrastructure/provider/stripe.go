package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

// StripeIntent is the subset of a Stripe PaymentIntent the adapter reads.
type StripeIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

type StripeIntentParams struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

type StripeGateway interface {
	CreateIntent(ctx context.Context, params StripeIntentParams) (*StripeIntent, error)
	GetIntent(ctx context.Context, id string) (*StripeIntent, error)
}

type Stripe struct {
	gateway StripeGateway
}

func NewStripe(cfg payment.StripeConfig, gateway StripeGateway) (*Stripe, error) {
	if err := requireConfig(cfg); err != nil {
		return nil, err
	}
	if gateway == nil {
		gateway = NewStripeGateway(cfg)
	}
	return &Stripe{gateway: gateway}, nil
}

func (s *Stripe) Name() payment.ProviderID { return payment.ProviderStripe }

func (s *Stripe) InitiatePayment(ctx context.Context, req payment.InitiateRequest) payment.InitiateResponse {
	metadata := map[string]string{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["orderId"] = req.OrderID
	metadata["customerId"] = req.Customer.ID
	if req.Customer.Email != "" {
		metadata["customerEmail"] = req.Customer.Email
	}

	intent, err := s.gateway.CreateIntent(ctx, StripeIntentParams{
		Amount:   req.Amount,
		Currency: strings.ToLower(req.Currency),
		Metadata: metadata,
	})
	if err != nil {
		return payment.InitiateFailure(fmt.Sprintf("stripe: create payment intent: %v", err))
	}

	return payment.InitiateResponse{
		Success:      true,
		PaymentID:    intent.ID,
		ClientSecret: intent.ClientSecret,
		OrderID:      req.OrderID,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}
}

func (s *Stripe) VerifyPayment(ctx context.Context, req payment.VerifyRequest) payment.VerifyResponse {
	if req.PaymentID == "" {
		return payment.VerifyFailure("stripe: payment intent id is required")
	}

	intent, err := s.gateway.GetIntent(ctx, req.PaymentID)
	if err != nil {
		return payment.VerifyFailure(fmt.Sprintf("stripe: retrieve payment intent: %v", err))
	}
	if intent.Metadata["orderId"] != req.OrderID {
		return payment.VerifyResponse{
			Success:   true,
			Verified:  false,
			PaymentID: intent.ID,
			Error:     "stripe: payment intent belongs to another order",
		}
	}

	return payment.VerifyResponse{
		Success:   true,
		Verified:  intent.Status == "succeeded",
		PaymentID: intent.ID,
		Amount:    intent.Amount,
		Currency:  intent.Currency,
		Status:    stripeStatus(intent.Status),
	}
}

func (s *Stripe) LookupStatus(ctx context.Context, paymentID string) (payment.Status, error) {
	intent, err := s.gateway.GetIntent(ctx, paymentID)
	if err != nil {
		return "", err
	}
	return stripeStatus(intent.Status), nil
}

func stripeStatus(status string) payment.Status {
	switch status {
	case "succeeded":
		return payment.StatusSuccess
	case "canceled":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}
