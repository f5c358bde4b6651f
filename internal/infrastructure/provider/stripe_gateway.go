package provider

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

type stripeAPI struct {
	api *client.API
}

// NewStripeGateway returns a gateway backed by the Stripe API. APIBaseURL
// redirects calls to a proxy or a local mock.
func NewStripeGateway(cfg payment.StripeConfig) StripeGateway {
	var backends *stripe.Backends
	if cfg.APIBaseURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL: stripe.String(cfg.APIBaseURL),
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	return &stripeAPI{api: client.New(cfg.SecretKey, backends)}
}

func (s *stripeAPI) CreateIntent(ctx context.Context, p StripeIntentParams) (*StripeIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return toStripeIntent(pi), nil
}

func (s *stripeAPI) GetIntent(ctx context.Context, id string) (*StripeIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, err
	}
	return toStripeIntent(pi), nil
}

func toStripeIntent(pi *stripe.PaymentIntent) *StripeIntent {
	return &StripeIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
