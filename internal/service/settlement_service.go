// Package service composes exchange clients with the storage adapters into
// the batch jobs the CLI runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// SettlementSource is the slice of exchange.Client the sync needs.
type SettlementSource interface {
	Venue() domain.Venue
	SettlementHistory(ctx context.Context, contract string, limit int) ([]domain.SettlementRecord, error)
}

// SettlementServiceConfig tunes a SettlementService.
type SettlementServiceConfig struct {
	// Limit caps records fetched per contract; zero fetches what the venue
	// returns by default.
	Limit int
	// Concurrency bounds contracts synced at once. Zero means 4.
	Concurrency int
	// LockTTL is how long a contract stays locked if the holder dies.
	LockTTL time.Duration
}

// ContractSync reports the outcome for one contract.
type ContractSync struct {
	Contract    string `json:"contract"`
	Fetched     int    `json:"fetched"`
	New         int    `json:"new"`
	Stored      int64  `json:"stored"`
	ArchivePath string `json:"archive_path,omitempty"`
	Skipped     bool   `json:"skipped,omitempty"`
}

// SyncReport is the result of one Sync call, in input contract order.
type SyncReport struct {
	Venue     domain.Venue   `json:"venue"`
	Contracts []ContractSync `json:"contracts"`
}

// SettlementService copies venue settlement history into the settlement
// store and, when configured, archives each new batch to object storage.
type SettlementService struct {
	source   SettlementSource
	store    domain.SettlementStore
	archiver domain.SettlementArchiver // optional
	locker   domain.Locker             // optional
	cfg      SettlementServiceConfig
	logger   *slog.Logger
}

// NewSettlementService creates a SettlementService. archiver and locker may
// be nil.
func NewSettlementService(
	source SettlementSource,
	store domain.SettlementStore,
	archiver domain.SettlementArchiver,
	locker domain.Locker,
	cfg SettlementServiceConfig,
	logger *slog.Logger,
) *SettlementService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &SettlementService{
		source:   source,
		store:    store,
		archiver: archiver,
		locker:   locker,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "settlement_service")),
	}
}

// Sync fetches settlement history for each contract, upserts it and
// archives the records newer than what the store already held. Contracts
// run concurrently; the first failure cancels the rest. A contract locked by
// another sync is skipped.
func (s *SettlementService) Sync(ctx context.Context, contracts []string) (SyncReport, error) {
	report := SyncReport{
		Venue:     s.source.Venue(),
		Contracts: make([]ContractSync, len(contracts)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, contract := range contracts {
		g.Go(func() error {
			res, err := s.syncContract(gctx, contract)
			if err != nil {
				return err
			}
			report.Contracts[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	var stored int64
	for _, c := range report.Contracts {
		stored += c.Stored
	}
	s.logger.InfoContext(ctx, "settlements synced",
		slog.String("venue", string(report.Venue)),
		slog.Int("contracts", len(contracts)),
		slog.Int64("stored", stored),
	)
	return report, nil
}

func (s *SettlementService) syncContract(ctx context.Context, contract string) (ContractSync, error) {
	res := ContractSync{Contract: contract}
	venue := s.source.Venue()

	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, "sync:"+string(venue)+":"+contract, s.cfg.LockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.WarnContext(ctx, "settlement sync already running, skipping",
				slog.String("contract", contract))
			res.Skipped = true
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("settlement_service: lock %s: %w", contract, err)
		}
		defer release()
	}

	last, err := s.store.LastTimestamp(ctx, venue, contract)
	if err != nil {
		return res, fmt.Errorf("settlement_service: last timestamp %s: %w", contract, err)
	}

	records, err := s.source.SettlementHistory(ctx, contract, s.cfg.Limit)
	if err != nil {
		return res, fmt.Errorf("settlement_service: history %s: %w", contract, err)
	}
	res.Fetched = len(records)

	fresh := newerThan(records, last)
	res.New = len(fresh)

	// Every fetched record is upserted so late PnL corrections land; only
	// the new ones are archived.
	stored, err := s.store.UpsertBatch(ctx, records)
	if err != nil {
		return res, fmt.Errorf("settlement_service: upsert %s: %w", contract, err)
	}
	res.Stored = stored

	if s.archiver != nil && len(fresh) > 0 {
		path, err := s.archiver.Archive(ctx, venue, contract, fresh)
		if err != nil {
			return res, fmt.Errorf("settlement_service: archive %s: %w", contract, err)
		}
		res.ArchivePath = path
	}

	s.logger.DebugContext(ctx, "contract settlements synced",
		slog.String("contract", contract),
		slog.Int("fetched", res.Fetched),
		slog.Int("new", res.New),
	)
	return res, nil
}

// newerThan keeps records strictly after last. A zero last keeps all.
func newerThan(records []domain.SettlementRecord, last time.Time) []domain.SettlementRecord {
	if last.IsZero() {
		return records
	}
	cutoff := last.UnixMilli()
	var out []domain.SettlementRecord
	for _, r := range records {
		if r.Timestamp > cutoff {
			out = append(out, r)
		}
	}
	return out
}

// Stored lists persisted records of one contract, newest first.
func (s *SettlementService) Stored(ctx context.Context, contract string, opts domain.ListOpts) ([]domain.SettlementRecord, error) {
	out, err := s.store.ListByContract(ctx, s.source.Venue(), contract, opts)
	if err != nil {
		return nil, fmt.Errorf("settlement_service: list %s: %w", contract, err)
	}
	return out, nil
}
