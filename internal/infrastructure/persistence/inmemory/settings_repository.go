package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

type SettingsRepository struct {
	mu       sync.RWMutex
	settings payment.Settings
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func (r *SettingsRepository) Load(_ context.Context) (payment.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.settings
	s.Config = slices.Clone(s.Config)
	return s, nil
}

func (r *SettingsRepository) Save(_ context.Context, s payment.Settings) (payment.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.Version = r.settings.Version + 1
	s.Config = slices.Clone(s.Config)
	r.settings = s
	return s, nil
}
