package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported payment provider")
	ErrProviderDisabled    = errors.New("payment provider is disabled")
	ErrNotConfigured       = errors.New("payment provider is not configured")
	ErrInvalidConfig       = errors.New("invalid payment provider config")
)

// ConfigError reports required configuration keys that are absent. It marks a
// deployment problem, not a payment event.
type ConfigError struct {
	Provider ProviderID
	Missing  []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: missing required config: %s", e.Provider, strings.Join(e.Missing, ", "))
}

// RequireFields fails when any of the named values is blank.
func RequireFields(provider ProviderID, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ConfigError{Provider: provider, Missing: missing}
}

// ProviderConfig is one arm of the per-provider configuration union.
type ProviderConfig interface {
	Provider() ProviderID
	RequiredFields() map[string]string
	Redact() ProviderConfig
}

func ValidateConfig(cfg ProviderConfig) error {
	return RequireFields(cfg.Provider(), cfg.RequiredFields())
}

// Settings is the single payment configuration record. Config holds the
// provider-specific JSON document; it is decoded into its typed form by the
// provider registry.
type Settings struct {
	Provider ProviderID      `json:"provider" yaml:"provider"`
	Config   json.RawMessage `json:"config" yaml:"-"`
	Enabled  bool            `json:"enabled" yaml:"enabled"`
	Version  int64           `json:"version" yaml:"-"`
}

func (s Settings) Configured() bool {
	return s.Provider != ""
}

type StripeConfig struct {
	SecretKey      string `json:"secretKey" yaml:"secretKey"`
	PublishableKey string `json:"publishableKey,omitempty" yaml:"publishableKey,omitempty"`
	APIBaseURL     string `json:"apiBaseUrl,omitempty" yaml:"apiBaseUrl,omitempty"`
}

func (StripeConfig) Provider() ProviderID { return ProviderStripe }

func (c StripeConfig) RequiredFields() map[string]string {
	return map[string]string{"secretKey": c.SecretKey}
}

func (c StripeConfig) Redact() ProviderConfig {
	c.SecretKey = mask(c.SecretKey)
	return c
}

type RazorpayConfig struct {
	KeyID     string `json:"keyId" yaml:"keyId"`
	KeySecret string `json:"keySecret" yaml:"keySecret"`
}

func (RazorpayConfig) Provider() ProviderID { return ProviderRazorpay }

func (c RazorpayConfig) RequiredFields() map[string]string {
	return map[string]string{"keyId": c.KeyID, "keySecret": c.KeySecret}
}

func (c RazorpayConfig) Redact() ProviderConfig {
	c.KeySecret = mask(c.KeySecret)
	return c
}

type PayUConfig struct {
	MerchantKey string `json:"merchantKey" yaml:"merchantKey"`
	Salt        string `json:"salt" yaml:"salt"`
	BaseURL     string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
	SuccessURL  string `json:"successUrl,omitempty" yaml:"successUrl,omitempty"`
	FailureURL  string `json:"failureUrl,omitempty" yaml:"failureUrl,omitempty"`
}

func (PayUConfig) Provider() ProviderID { return ProviderPayU }

func (c PayUConfig) RequiredFields() map[string]string {
	return map[string]string{"merchantKey": c.MerchantKey, "salt": c.Salt}
}

func (c PayUConfig) Redact() ProviderConfig {
	c.Salt = mask(c.Salt)
	return c
}

type PaytmConfig struct {
	MerchantID   string `json:"merchantId" yaml:"merchantId"`
	MerchantKey  string `json:"merchantKey" yaml:"merchantKey"`
	Website      string `json:"website,omitempty" yaml:"website,omitempty"`
	IndustryType string `json:"industryType,omitempty" yaml:"industryType,omitempty"`
	ChannelID    string `json:"channelId,omitempty" yaml:"channelId,omitempty"`
	CallbackURL  string `json:"callbackUrl,omitempty" yaml:"callbackUrl,omitempty"`
	BaseURL      string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`
}

func (PaytmConfig) Provider() ProviderID { return ProviderPaytm }

func (c PaytmConfig) RequiredFields() map[string]string {
	return map[string]string{"merchantId": c.MerchantID, "merchantKey": c.MerchantKey}
}

func (c PaytmConfig) Redact() ProviderConfig {
	c.MerchantKey = mask(c.MerchantKey)
	return c
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

// SettingsRepository persists the payment configuration record.
type SettingsRepository interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) (Settings, error)
}
