package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// SettlementStore persists settlement records. Upsert is keyed on ID so
// repeated syncs of overlapping windows are harmless.
type SettlementStore interface {
	UpsertBatch(ctx context.Context, records []SettlementRecord) (int64, error)
	ListByContract(ctx context.Context, venue Venue, contract string, opts ListOpts) ([]SettlementRecord, error)
	LastTimestamp(ctx context.Context, venue Venue, contract string) (time.Time, error)
}
