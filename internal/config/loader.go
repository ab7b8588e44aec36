package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g.
// PERPGATE_EXCHANGE_API_KEY or PERPGATE_RETRY_READ_MAX_RETRIES.
const EnvPrefix = "PERPGATE"

// Load reads the TOML file at path over the built-in defaults, loads a .env
// file when present, and applies PERPGATE_* environment overrides. An empty
// path skips the file. The returned Config has NOT been validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides overwrites fields whose PERPGATE_* variable is set.
// Unset variables leave the TOML or default value in place.
func applyEnvOverrides(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("config: env overrides: %w", err)
	}
	return nil
}
