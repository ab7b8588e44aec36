package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// Archiver implements domain.SettlementArchiver by writing each batch as one
// JSONL object.
//
// Key schema:
//
//	{prefix}/{venue}/{contract}/{YYYY-MM-DD}/{unix-ms}.jsonl
//
// The date and file name come from the newest record in the batch.
type Archiver struct {
	writer domain.BlobWriter
	prefix string
}

// Compile-time interface check.
var _ domain.SettlementArchiver = (*Archiver)(nil)

// NewArchiver creates an Archiver. An empty prefix defaults to
// "settlements".
func NewArchiver(writer domain.BlobWriter, prefix string) *Archiver {
	if prefix == "" {
		prefix = "settlements"
	}
	return &Archiver{writer: writer, prefix: prefix}
}

// Archive uploads records and returns the object path. An empty batch
// writes nothing and returns "".
func (a *Archiver) Archive(ctx context.Context, venue domain.Venue, contract string, records []domain.SettlementRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive %s %s: %w", venue, contract, err)
	}

	path := a.path(venue, contract, newest(records))
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", fmt.Errorf("s3blob: archive %s %s: %w", venue, contract, err)
	}
	return path, nil
}

func (a *Archiver) path(venue domain.Venue, contract string, ts int64) string {
	day := time.UnixMilli(ts).UTC().Format("2006-01-02")
	return fmt.Sprintf("%s/%s/%s/%s/%d.jsonl", a.prefix, venue, contract, day, ts)
}

func newest(records []domain.SettlementRecord) int64 {
	var ts int64
	for _, r := range records {
		ts = max(ts, r.Timestamp)
	}
	return ts
}

// marshalJSONL writes one compact JSON document per line.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
