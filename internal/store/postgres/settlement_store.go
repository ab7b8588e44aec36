package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// SettlementStore implements domain.SettlementStore using PostgreSQL.
// Record timestamps are Unix milliseconds in Go and TIMESTAMPTZ in the
// table.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ domain.SettlementStore = (*SettlementStore)(nil)

// NewSettlementStore creates a SettlementStore backed by the given pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

const settlementSelectCols = `id, venue, source_id, kind, contract,
	pnl::text, fee::text, currency, ts`

const upsertSettlement = `
	INSERT INTO settlements (
		id, venue, source_id, kind, contract, pnl, fee, currency, ts
	) VALUES (
		$1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9
	) ON CONFLICT (id) DO UPDATE SET
		pnl = EXCLUDED.pnl,
		fee = EXCLUDED.fee,
		currency = EXCLUDED.currency,
		synced_at = NOW()`

func scanSettlementRows(rows pgx.Rows) ([]domain.SettlementRecord, error) {
	var out []domain.SettlementRecord
	for rows.Next() {
		var (
			r  domain.SettlementRecord
			ts time.Time
		)
		if err := rows.Scan(
			&r.ID, &r.Venue, &r.SourceID, &r.Kind, &r.Contract,
			&r.PnL, &r.Fee, &r.Currency, &ts,
		); err != nil {
			return nil, err
		}
		r.Timestamp = ts.UnixMilli()
		out = append(out, r)
	}
	return out, rows.Err()
}

func numericOrZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// UpsertBatch writes records in one pgx batch and returns how many rows
// were inserted or updated.
func (s *SettlementStore) UpsertBatch(ctx context.Context, records []domain.SettlementRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertSettlement,
			r.ID, string(r.Venue), r.SourceID, string(r.Kind), r.Contract,
			numericOrZero(r.PnL), numericOrZero(r.Fee), r.Currency,
			time.UnixMilli(r.Timestamp).UTC(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var affected int64
	for i := range records {
		tag, err := br.Exec()
		if err != nil {
			return affected, fmt.Errorf("postgres: upsert settlement batch item %d: %w", i, err)
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}

// ListByContract returns records newest first with pagination and optional
// time filtering.
func (s *SettlementStore) ListByContract(ctx context.Context, venue domain.Venue, contract string, opts domain.ListOpts) ([]domain.SettlementRecord, error) {
	query := `SELECT ` + settlementSelectCols + ` FROM settlements WHERE venue = $1 AND contract = $2`
	args := []any{string(venue), contract}
	argIdx := 3

	if opts.Since != nil {
		query += fmt.Sprintf(" AND ts >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND ts <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY ts DESC, id ASC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list settlements %s %s: %w", venue, contract, err)
	}
	defer rows.Close()

	out, err := scanSettlementRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan settlements: %w", err)
	}
	return out, nil
}

// LastTimestamp returns the newest stored record time for the contract, or
// the zero time when nothing is stored.
func (s *SettlementStore) LastTimestamp(ctx context.Context, venue domain.Venue, contract string) (time.Time, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT MAX(ts) FROM settlements WHERE venue = $1 AND contract = $2",
		string(venue), contract,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: last settlement timestamp: %w", err)
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}
