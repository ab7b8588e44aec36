package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	s3blob "github.com/alanyoungcy/perpgate/internal/blob/s3"
	"github.com/alanyoungcy/perpgate/internal/cache/redis"
	"github.com/alanyoungcy/perpgate/internal/config"
	"github.com/alanyoungcy/perpgate/internal/crypto"
	"github.com/alanyoungcy/perpgate/internal/domain"
	"github.com/alanyoungcy/perpgate/internal/exchange"
	"github.com/alanyoungcy/perpgate/internal/platform/gateio"
	"github.com/alanyoungcy/perpgate/internal/platform/okx"
	"github.com/alanyoungcy/perpgate/internal/retry"
	"github.com/alanyoungcy/perpgate/internal/service"
	"github.com/alanyoungcy/perpgate/internal/store/postgres"
	"github.com/alanyoungcy/perpgate/internal/venue"
)

// ErrNoSettlementStore is returned by commands that persist settlements when
// postgres is disabled.
var ErrNoSettlementStore = errors.New("settlement store not configured (set postgres.enabled)")

// Dependencies bundles what the commands operate on. Settlements is nil
// unless postgres is enabled.
type Dependencies struct {
	Client      *exchange.Client
	Contracts   *service.ContractService
	Settlements *service.SettlementService
}

// Wire constructs the exchange client and the optional Redis, Postgres and
// S3 backed services from cfg. The returned cleanup releases every opened
// connection.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	adapter, err := venue.New(cfg.Venue())
	if err != nil {
		return fail(fmt.Errorf("wire: venue: %w", err))
	}

	auth, err := credentials(cfg)
	if err != nil {
		return fail(fmt.Errorf("wire: credentials: %w", err))
	}

	gw, err := NewGateway(cfg, auth)
	if err != nil {
		return fail(fmt.Errorf("wire: gateway: %w", err))
	}

	clientCfg, err := ClientConfig(cfg)
	if err != nil {
		return fail(fmt.Errorf("wire: client config: %w", err))
	}

	// --- Redis (contract cache and sync locks) ---
	var locker domain.Locker
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		clientCfg.Cache = redis.NewContractCache(redisClient, cfg.Redis.ContractTTL.Duration)
		locker = redis.NewLocker(redisClient)
	}

	client := exchange.New(adapter, gw, clientCfg, logger)
	deps := &Dependencies{
		Client:    client,
		Contracts: service.NewContractService(client, logger),
	}

	// --- PostgreSQL (settlement journal) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}

		// --- S3 (settlement archive) ---
		var archiver domain.SettlementArchiver
		if cfg.S3.Enabled {
			s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
				Endpoint:       cfg.S3.Endpoint,
				Region:         cfg.S3.Region,
				Bucket:         cfg.S3.Bucket,
				AccessKey:      cfg.S3.AccessKey,
				SecretKey:      cfg.S3.SecretKey,
				UseSSL:         cfg.S3.UseSSL,
				ForcePathStyle: cfg.S3.ForcePathStyle,
			})
			if err != nil {
				return fail(fmt.Errorf("wire: s3: %w", err))
			}
			archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client, 0), cfg.S3.Prefix)
		}

		deps.Settlements = service.NewSettlementService(
			client,
			postgres.NewSettlementStore(pgClient.Pool()),
			archiver,
			locker,
			service.SettlementServiceConfig{
				Limit:       cfg.Sync.Limit,
				Concurrency: cfg.Sync.Concurrency,
			},
			logger,
		)
	}

	return deps, cleanup, nil
}

// credentials resolves the API secret, decrypting it from disk when
// configured.
func credentials(cfg *config.Config) (crypto.HMACAuth, error) {
	auth := crypto.HMACAuth{
		Key:        cfg.Exchange.APIKey,
		Passphrase: cfg.Exchange.Passphrase,
	}
	if cfg.Exchange.APISecret == "" && cfg.Exchange.EncryptedSecretPath == "" {
		// Public market data only.
		return auth, nil
	}
	secret, err := crypto.LoadSecret(crypto.SecretConfig{
		RawSecret:           cfg.Exchange.APISecret,
		EncryptedSecretPath: cfg.Exchange.EncryptedSecretPath,
		Password:            cfg.Exchange.SecretPassword,
	})
	if err != nil {
		return crypto.HMACAuth{}, err
	}
	auth.Secret = secret
	return auth, nil
}

// NewGateway builds the REST gateway for the configured venue.
func NewGateway(cfg *config.Config, auth crypto.HMACAuth) (exchange.Gateway, error) {
	switch cfg.Venue() {
	case domain.VenueGateIO:
		gw, err := gateio.NewClient(gateio.Config{
			BaseURL:            cfg.Exchange.BaseURL,
			Sandbox:            cfg.Exchange.Sandbox,
			Settle:             cfg.Exchange.Settle,
			Timeout:            cfg.Exchange.Timeout.Duration,
			MinRequestInterval: cfg.Exchange.MinRequestInterval.Duration,
			Auth:               auth,
		})
		if err != nil {
			return nil, err
		}
		return gw, nil
	case domain.VenueOKX:
		return okx.NewClient(okx.Config{
			BaseURL:            cfg.Exchange.BaseURL,
			Sandbox:            cfg.Exchange.Sandbox,
			Settle:             cfg.Exchange.Settle,
			Timeout:            cfg.Exchange.Timeout.Duration,
			MinRequestInterval: cfg.Exchange.MinRequestInterval.Duration,
			Auth:               auth,
		}), nil
	default:
		return nil, &domain.UnsupportedExchangeError{Venue: cfg.Venue()}
	}
}

// ClientConfig maps the trading and retry sections onto exchange.Config.
func ClientConfig(cfg *config.Config) (exchange.Config, error) {
	out := exchange.Config{
		AllowedBases:     cfg.Trading.AllowedBases,
		ReadMaxRetries:   cfg.Retry.ReadMaxRetries,
		WriteMaxRetries:  cfg.Retry.WriteMaxRetries,
		Backoff:          Backoff(cfg.Retry),
		SettlementSource: exchange.SettlementSource(strings.ToLower(cfg.Exchange.SettlementSource)),
	}
	var err error
	if out.MaxPriceDeviation, err = optionalDecimal(cfg.Trading.MaxPriceDeviation); err != nil {
		return exchange.Config{}, fmt.Errorf("max_price_deviation: %w", err)
	}
	if out.APISizeCeiling, err = optionalDecimal(cfg.Trading.APISizeCeiling); err != nil {
		return exchange.Config{}, fmt.Errorf("api_size_ceiling: %w", err)
	}
	return out, nil
}

// Backoff returns the configured retry spacing.
func Backoff(rc config.RetryConfig) retry.Backoff {
	if strings.EqualFold(rc.Backoff, "linear") {
		return retry.Linear{Step: rc.BaseDelay.Duration}
	}
	return retry.Exponential{Base: rc.BaseDelay.Duration, Cap: rc.MaxDelay.Duration}
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
