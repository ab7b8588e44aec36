// Package config defines the perpgate configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then overridden by PERPGATE_* environment variables.
type Config struct {
	Exchange ExchangeConfig `toml:"exchange" envconfig:"exchange"`
	Trading  TradingConfig  `toml:"trading" envconfig:"trading"`
	Retry    RetryConfig    `toml:"retry" envconfig:"retry"`
	Redis    RedisConfig    `toml:"redis" envconfig:"redis"`
	Postgres PostgresConfig `toml:"postgres" envconfig:"postgres"`
	S3       S3Config       `toml:"s3" envconfig:"s3"`
	Sync     SyncConfig     `toml:"sync" envconfig:"sync"`
	LogLevel string         `toml:"log_level" envconfig:"log_level"`
}

// ExchangeConfig selects the venue and holds its credentials.
type ExchangeConfig struct {
	Venue      string `toml:"venue" envconfig:"venue"`
	APIKey     string `toml:"api_key" envconfig:"api_key"`
	APISecret  string `toml:"api_secret" envconfig:"api_secret"`
	Passphrase string `toml:"passphrase" envconfig:"passphrase"`
	Sandbox    bool   `toml:"sandbox" envconfig:"sandbox"`

	// EncryptedSecretPath, when set, replaces APISecret with a secret file
	// written by `perpgate encrypt-secret`.
	EncryptedSecretPath string `toml:"encrypted_secret_path" envconfig:"encrypted_secret_path"`
	SecretPassword      string `toml:"secret_password" envconfig:"secret_password"`

	BaseURL            string   `toml:"base_url" envconfig:"base_url"`
	Settle             string   `toml:"settle" envconfig:"settle"`
	Timeout            duration `toml:"timeout" envconfig:"timeout"`
	MinRequestInterval duration `toml:"min_request_interval" envconfig:"min_request_interval"`
	SettlementSource   string   `toml:"settlement_source" envconfig:"settlement_source"`
}

// TradingConfig holds the order and position guards. Decimal values are
// strings so they survive TOML without float rounding; empty means the
// venue default.
type TradingConfig struct {
	AllowedBases      []string `toml:"allowed_bases" envconfig:"allowed_bases"`
	MaxPriceDeviation string   `toml:"max_price_deviation" envconfig:"max_price_deviation"`
	APISizeCeiling    string   `toml:"api_size_ceiling" envconfig:"api_size_ceiling"`
}

// RetryConfig tunes the retry executor.
type RetryConfig struct {
	ReadMaxRetries  int      `toml:"read_max_retries" envconfig:"read_max_retries"`
	WriteMaxRetries int      `toml:"write_max_retries" envconfig:"write_max_retries"`
	Backoff         string   `toml:"backoff" envconfig:"backoff"`
	BaseDelay       duration `toml:"base_delay" envconfig:"base_delay"`
	MaxDelay        duration `toml:"max_delay" envconfig:"max_delay"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled     bool     `toml:"enabled" envconfig:"enabled"`
	Addr        string   `toml:"addr" envconfig:"addr"`
	Password    string   `toml:"password" envconfig:"password"`
	DB          int      `toml:"db" envconfig:"db"`
	PoolSize    int      `toml:"pool_size" envconfig:"pool_size"`
	MaxRetries  int      `toml:"max_retries" envconfig:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled" envconfig:"tls_enabled"`
	ContractTTL duration `toml:"contract_ttl" envconfig:"contract_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled" envconfig:"enabled"`
	DSN           string `toml:"dsn" envconfig:"dsn"`
	Host          string `toml:"host" envconfig:"host"`
	Port          int    `toml:"port" envconfig:"port"`
	Database      string `toml:"database" envconfig:"database"`
	User          string `toml:"user" envconfig:"user"`
	Password      string `toml:"password" envconfig:"password"`
	SSLMode       string `toml:"ssl_mode" envconfig:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns" envconfig:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns" envconfig:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations" envconfig:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled" envconfig:"enabled"`
	Endpoint       string `toml:"endpoint" envconfig:"endpoint"`
	Region         string `toml:"region" envconfig:"region"`
	Bucket         string `toml:"bucket" envconfig:"bucket"`
	AccessKey      string `toml:"access_key" envconfig:"access_key"`
	SecretKey      string `toml:"secret_key" envconfig:"secret_key"`
	UseSSL         bool   `toml:"use_ssl" envconfig:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style" envconfig:"force_path_style"`
	Prefix         string `toml:"prefix" envconfig:"prefix"`
}

// SyncConfig tunes settlement sync.
type SyncConfig struct {
	Contracts   []string `toml:"contracts" envconfig:"contracts"`
	Limit       int      `toml:"limit" envconfig:"limit"`
	Concurrency int      `toml:"concurrency" envconfig:"concurrency"`
}

// duration is a wrapper around time.Duration that decodes from strings such
// as "5m" or "250ms" in both TOML and environment variables.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with sensible defaults.
func Defaults() Config {
	return Config{
		Exchange: ExchangeConfig{
			Venue:            string(domain.VenueGateIO),
			Settle:           "usdt",
			Timeout:          duration{30 * time.Second},
			SettlementSource: "auto",
		},
		Retry: RetryConfig{
			ReadMaxRetries:  3,
			WriteMaxRetries: 0,
			Backoff:         "exponential",
			BaseDelay:       duration{500 * time.Millisecond},
			MaxDelay:        duration{8 * time.Second},
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			PoolSize:    10,
			MaxRetries:  3,
			ContractTTL: duration{time.Hour},
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "perpgate",
			SSLMode:      "disable",
			PoolMaxConns: 5,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
			Prefix: "settlements",
		},
		Sync: SyncConfig{
			Limit:       100,
			Concurrency: 4,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validSettlementSources = map[string]bool{
	"auto":        true,
	"bills":       true,
	"synthesized": true,
}

var validBackoffs = map[string]bool{
	"linear":      true,
	"exponential": true,
}

// Validate checks Config for invalid or missing values and returns one error
// describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Exchange
	if !domain.Venue(strings.ToLower(c.Exchange.Venue)).Valid() {
		errs = append(errs, fmt.Sprintf("exchange: unsupported venue %q (valid: gateio, okx)", c.Exchange.Venue))
	}
	if c.Exchange.APIKey != "" && c.Exchange.APISecret == "" && c.Exchange.EncryptedSecretPath == "" {
		errs = append(errs, "exchange: api_secret or encrypted_secret_path is required with api_key")
	}
	if c.Exchange.EncryptedSecretPath != "" && c.Exchange.SecretPassword == "" {
		errs = append(errs, "exchange: secret_password is required when encrypted_secret_path is set")
	}
	if strings.EqualFold(c.Exchange.Venue, string(domain.VenueOKX)) && c.Exchange.APIKey != "" && c.Exchange.Passphrase == "" {
		errs = append(errs, "exchange: passphrase is required for okx")
	}
	if !validSettlementSources[strings.ToLower(c.Exchange.SettlementSource)] {
		errs = append(errs, fmt.Sprintf("exchange: unknown settlement_source %q (valid: auto, bills, synthesized)", c.Exchange.SettlementSource))
	}
	if c.Exchange.Timeout.Duration < 0 || c.Exchange.MinRequestInterval.Duration < 0 {
		errs = append(errs, "exchange: timeout and min_request_interval must not be negative")
	}

	// Trading
	for _, f := range []struct{ name, value string }{
		{"max_price_deviation", c.Trading.MaxPriceDeviation},
		{"api_size_ceiling", c.Trading.APISizeCeiling},
	} {
		if f.value == "" {
			continue
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil || !d.IsPositive() {
			errs = append(errs, fmt.Sprintf("trading: %s must be a positive decimal, got %q", f.name, f.value))
		}
	}

	// Retry
	if c.Retry.ReadMaxRetries < 0 || c.Retry.WriteMaxRetries < 0 {
		errs = append(errs, "retry: read_max_retries and write_max_retries must be >= 0")
	}
	if !validBackoffs[strings.ToLower(c.Retry.Backoff)] {
		errs = append(errs, fmt.Sprintf("retry: unknown backoff %q (valid: linear, exponential)", c.Retry.Backoff))
	}
	if c.Retry.BaseDelay.Duration < 0 {
		errs = append(errs, "retry: base_delay must not be negative")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if !c.Postgres.Enabled {
			errs = append(errs, "s3: archiving settlements requires postgres.enabled")
		}
	}

	if c.Sync.Concurrency < 0 || c.Sync.Limit < 0 {
		errs = append(errs, "sync: limit and concurrency must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Venue returns the configured venue tag.
func (c *Config) Venue() domain.Venue {
	return domain.Venue(strings.ToLower(c.Exchange.Venue))
}
