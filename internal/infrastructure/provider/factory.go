package provider

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

type registration struct {
	id     payment.ProviderID
	decode func(raw json.RawMessage) (payment.ProviderConfig, error)
	build  func(f *Factory, cfg payment.ProviderConfig) (payment.Provider, error)
}

// registry is the single table both dispatch and SupportedProviders read.
var registry = []registration{
	{
		id:     payment.ProviderStripe,
		decode: decodeConfig[payment.StripeConfig],
		build: func(f *Factory, cfg payment.ProviderConfig) (payment.Provider, error) {
			c := cfg.(payment.StripeConfig)
			var gw StripeGateway
			if f.stripeGateway != nil {
				gw = f.stripeGateway(c)
			}
			return NewStripe(c, gw)
		},
	},
	{
		id:     payment.ProviderRazorpay,
		decode: decodeConfig[payment.RazorpayConfig],
		build: func(f *Factory, cfg payment.ProviderConfig) (payment.Provider, error) {
			c := cfg.(payment.RazorpayConfig)
			var payments RazorpayPayments
			if f.razorpayPayments != nil {
				payments = f.razorpayPayments(c)
			}
			return NewRazorpay(c, payments)
		},
	},
	{
		id:     payment.ProviderPayU,
		decode: decodeConfig[payment.PayUConfig],
		build: func(_ *Factory, cfg payment.ProviderConfig) (payment.Provider, error) {
			return NewPayU(cfg.(payment.PayUConfig))
		},
	},
	{
		id:     payment.ProviderPaytm,
		decode: decodeConfig[payment.PaytmConfig],
		build: func(_ *Factory, cfg payment.ProviderConfig) (payment.Provider, error) {
			return NewPaytm(cfg.(payment.PaytmConfig))
		},
	},
}

type Option func(*Factory)

// WithStripeGateway replaces the Stripe API client, e.g. with a stub in tests.
func WithStripeGateway(fn func(payment.StripeConfig) StripeGateway) Option {
	return func(f *Factory) { f.stripeGateway = fn }
}

func WithRazorpayPayments(fn func(payment.RazorpayConfig) RazorpayPayments) Option {
	return func(f *Factory) { f.razorpayPayments = fn }
}

type Factory struct {
	stripeGateway    func(payment.StripeConfig) StripeGateway
	razorpayPayments func(payment.RazorpayConfig) RazorpayPayments
}

func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateProvider builds the adapter named by the settings. Disabled settings
// are rejected before the provider name is looked at.
func (f *Factory) CreateProvider(s payment.Settings) (payment.Provider, error) {
	if !s.Enabled {
		return nil, payment.ErrProviderDisabled
	}
	reg, err := lookup(s.Provider)
	if err != nil {
		return nil, err
	}
	cfg, err := reg.decode(s.Config)
	if err != nil {
		return nil, err
	}
	return reg.build(f, cfg)
}

// DecodeConfig parses and validates a provider's configuration document.
func (f *Factory) DecodeConfig(provider payment.ProviderID, raw json.RawMessage) (payment.ProviderConfig, error) {
	reg, err := lookup(provider)
	if err != nil {
		return nil, err
	}
	cfg, err := reg.decode(raw)
	if err != nil {
		return nil, err
	}
	if err := payment.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Factory) SupportedProviders() []payment.ProviderID {
	return SupportedProviders()
}

func SupportedProviders() []payment.ProviderID {
	ids := make([]payment.ProviderID, len(registry))
	for i, reg := range registry {
		ids[i] = reg.id
	}
	return ids
}

func lookup(id payment.ProviderID) (registration, error) {
	for _, reg := range registry {
		if reg.id == id {
			return reg, nil
		}
	}
	return registration{}, fmt.Errorf("%w: %s", payment.ErrUnsupportedProvider, id)
}

func decodeConfig[T payment.ProviderConfig](raw json.RawMessage) (payment.ProviderConfig, error) {
	var cfg T
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", payment.ErrInvalidConfig, cfg.Provider(), err)
	}
	return cfg, nil
}
