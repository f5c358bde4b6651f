// Package config loads service settings from an optional YAML file and
// BAKERY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "BAKERY"

// DriverMemory keeps all state in process; nothing survives a restart.
const DriverMemory = "memory"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Callback CallbackConfig `mapstructure:"callback"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ExposeErrors    bool          `mapstructure:"expose_errors"`
	TrustProxy      bool          `mapstructure:"trust_proxy_headers"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// CallbackConfig limits gateway callbacks per client IP.
type CallbackConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]any{
	"http.addr":                ":8080",
	"http.expose_errors":       false,
	"http.trust_proxy_headers": false,
	"http.read_timeout":        "10s",
	"http.write_timeout":       "30s",
	"http.shutdown_timeout":    "15s",
	"database.driver":          "sqlite3",
	"database.dsn":             "bakery.db",
	"auth.jwt_secret":          "",
	"auth.issuer":              "bakery",
	"auth.token_ttl":           "1h",
	"callback.rate_per_second": 5.0,
	"callback.burst":           10,
	"outbox.poll_interval":     "1s",
	"outbox.batch_size":        50,
	"log.level":                "info",
}

// Load reads path (if non-empty), then the environment. Environment values
// win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	switch c.Database.Driver {
	case DriverMemory, "sqlite3", "pgx":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Callback.RatePerSecond <= 0 || c.Callback.Burst <= 0 {
		errs = append(errs, errors.New("callback rate and burst must be positive"))
	}
	if c.Outbox.PollInterval <= 0 || c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("outbox poll_interval and batch_size must be positive"))
	}
	return errors.Join(errs...)
}
