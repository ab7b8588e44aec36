package config

// RedactedConfig returns a copy of cfg with secrets replaced by "***", for
// logging or printing the active configuration.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Exchange.APIKey)
	redact(&out.Exchange.APISecret)
	redact(&out.Exchange.Passphrase)
	redact(&out.Exchange.SecretPassword)

	redact(&out.Redis.Password)

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Slices are copied so the redacted value cannot alias the original.
	out.Trading.AllowedBases = append([]string(nil), cfg.Trading.AllowedBases...)
	out.Sync.Contracts = append([]string(nil), cfg.Sync.Contracts...)

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
