package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

// SettingsView is the settings record as shown to administrators. Secrets
// inside Config are masked.
type SettingsView struct {
	Provider  payment.ProviderID     `json:"provider" yaml:"provider"`
	Config    payment.ProviderConfig `json:"config,omitempty" yaml:"config,omitempty"`
	Enabled   bool                   `json:"enabled" yaml:"enabled"`
	Version   int64                  `json:"version" yaml:"version"`
	Supported []payment.ProviderID   `json:"supportedProviders" yaml:"supportedProviders"`
}

type UpdateSettingsRequest struct {
	Provider payment.ProviderID `json:"provider" yaml:"provider"`
	Config   json.RawMessage    `json:"config" yaml:"-"`
	Enabled  bool               `json:"enabled" yaml:"enabled"`
}

func (s *Service) Settings(ctx context.Context) (SettingsView, error) {
	settings, err := s.SettingsRepo.Load(ctx)
	if err != nil {
		return SettingsView{}, err
	}
	return s.view(settings), nil
}

// UpdateSettings validates the config against the provider's typed form and
// stores it. Only the decoded form is written, so unknown keys never persist.
func (s *Service) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (SettingsView, error) {
	cfg, err := s.Factory.DecodeConfig(req.Provider, req.Config)
	if err != nil {
		return SettingsView{}, err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return SettingsView{}, fmt.Errorf("encode %s config: %w", req.Provider, err)
	}

	saved, err := s.SettingsRepo.Save(ctx, payment.Settings{
		Provider: req.Provider,
		Config:   raw,
		Enabled:  req.Enabled,
	})
	if err != nil {
		return SettingsView{}, err
	}

	s.logger().Info("payment settings updated", map[string]any{
		"provider": string(saved.Provider),
		"enabled":  saved.Enabled,
		"version":  saved.Version,
	})
	return s.view(saved), nil
}

func (s *Service) view(settings payment.Settings) SettingsView {
	v := SettingsView{
		Provider:  settings.Provider,
		Enabled:   settings.Enabled,
		Version:   settings.Version,
		Supported: s.Factory.SupportedProviders(),
	}
	if !settings.Configured() {
		return v
	}

	cfg, err := s.Factory.DecodeConfig(settings.Provider, settings.Config)
	if err != nil {
		s.logger().Warn("stored payment config is invalid", map[string]any{
			"provider": string(settings.Provider),
			"error":    err.Error(),
		})
		return v
	}
	v.Config = cfg.Redact()
	return v
}
