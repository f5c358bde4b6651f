package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

// Row keys of the settings table.
const (
	keyProvider = "payment_provider"
	keyConfig   = "payment_config"
	keyEnabled  = "payment_enabled"
	keyVersion  = "payment_settings_version"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Load(ctx context.Context) (payment.Settings, error) {
	return loadSettings(ctx, r.db)
}

// Save writes all rows in one transaction. The version row is bumped first
// by the upsert itself, which locks it until commit, so concurrent saves
// queue behind each other and each gets its own version.
func (r *SettingsRepository) Save(ctx context.Context, s payment.Settings) (payment.Settings, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return payment.Settings{}, err
	}
	defer tx.Rollback()

	var version string
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO settings (name, value) VALUES ($1, '1')
		 ON CONFLICT (name) DO UPDATE
		 SET value = CAST(CAST(settings.value AS BIGINT) + 1 AS TEXT)
		 RETURNING value`,
		keyVersion,
	).Scan(&version); err != nil {
		return payment.Settings{}, fmt.Errorf("bump settings version: %w", err)
	}
	s.Version, err = strconv.ParseInt(version, 10, 64)
	if err != nil {
		return payment.Settings{}, fmt.Errorf("settings version %q: %w", version, err)
	}

	config := s.Config
	if len(config) == 0 {
		config = json.RawMessage(`{}`)
	}

	rows := [][2]string{
		{keyProvider, string(s.Provider)},
		{keyConfig, string(config)},
		{keyEnabled, strconv.FormatBool(s.Enabled)},
	}
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (name, value) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET value = excluded.value`,
			row[0], row[1],
		); err != nil {
			return payment.Settings{}, fmt.Errorf("save setting %s: %w", row[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return payment.Settings{}, err
	}
	return s, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadSettings(ctx context.Context, q querier) (payment.Settings, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, value FROM settings WHERE name IN ($1, $2, $3, $4)`,
		keyProvider, keyConfig, keyEnabled, keyVersion,
	)
	if err != nil {
		return payment.Settings{}, err
	}
	defer rows.Close()

	var s payment.Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return payment.Settings{}, err
		}

		switch key {
		case keyProvider:
			s.Provider = payment.ProviderID(value)
		case keyConfig:
			s.Config = json.RawMessage(value)
		case keyEnabled:
			s.Enabled = value == "true"
		case keyVersion:
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return payment.Settings{}, fmt.Errorf("settings version %q: %w", value, err)
			}
			s.Version = v
		}
	}

	return s, rows.Err()
}
