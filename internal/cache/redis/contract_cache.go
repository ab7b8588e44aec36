package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// DefaultContractTTL bounds how long contract metadata is served without a
// venue refresh. Tick and lot sizes change rarely.
const DefaultContractTTL = time.Hour

// ContractCache implements domain.ContractCache with one JSON string per
// contract.
//
// Key schema:
//
//	perpgate:contract:{venue}:{symbol} - JSON-encoded domain.Contract
type ContractCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Compile-time interface check.
var _ domain.ContractCache = (*ContractCache)(nil)

// NewContractCache creates a ContractCache. A ttl of zero uses
// DefaultContractTTL.
func NewContractCache(c *Client, ttl time.Duration) *ContractCache {
	if ttl <= 0 {
		ttl = DefaultContractTTL
	}
	return &ContractCache{rdb: c.rdb, ttl: ttl}
}

func contractKey(venue domain.Venue, symbol string) string {
	return keyPrefix + "contract:" + string(venue) + ":" + symbol
}

// Set stores one contract under its canonical symbol.
func (cc *ContractCache) Set(ctx context.Context, venue domain.Venue, c domain.Contract) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("redis: marshal contract %s: %w", c.Symbol, err)
	}
	if err := cc.rdb.Set(ctx, contractKey(venue, c.Symbol), data, cc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set contract %s: %w", c.Symbol, err)
	}
	return nil
}

// SetMany stores contracts in a single pipeline.
func (cc *ContractCache) SetMany(ctx context.Context, venue domain.Venue, cs []domain.Contract) error {
	if len(cs) == 0 {
		return nil
	}
	pipe := cc.rdb.Pipeline()
	for _, c := range cs {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("redis: marshal contract %s: %w", c.Symbol, err)
		}
		pipe.Set(ctx, contractKey(venue, c.Symbol), data, cc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set %d contracts: %w", len(cs), err)
	}
	return nil
}

// Get returns domain.ErrNotFound when the contract is not cached.
func (cc *ContractCache) Get(ctx context.Context, venue domain.Venue, symbol string) (domain.Contract, error) {
	data, err := cc.rdb.Get(ctx, contractKey(venue, symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Contract{}, domain.ErrNotFound
		}
		return domain.Contract{}, fmt.Errorf("redis: get contract %s: %w", symbol, err)
	}
	var c domain.Contract
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Contract{}, fmt.Errorf("redis: unmarshal contract %s: %w", symbol, err)
	}
	return c, nil
}

// Invalidate drops one contract.
func (cc *ContractCache) Invalidate(ctx context.Context, venue domain.Venue, symbol string) error {
	if err := cc.rdb.Del(ctx, contractKey(venue, symbol)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate contract %s: %w", symbol, err)
	}
	return nil
}
