package domain

import (
	"context"
	"io"
)

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// SettlementArchiver exports settlement records to cold storage and returns
// the object path written.
type SettlementArchiver interface {
	Archive(ctx context.Context, venue Venue, contract string, records []SettlementRecord) (string, error)
}
