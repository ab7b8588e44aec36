package domain

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned when another holder owns a lock.
var ErrLockHeld = errors.New("lock held by another holder")

// ContractCache provides fast contract metadata lookups keyed by venue and
// canonical symbol. Get returns ErrNotFound on a miss.
type ContractCache interface {
	Set(ctx context.Context, venue Venue, c Contract) error
	SetMany(ctx context.Context, venue Venue, cs []Contract) error
	Get(ctx context.Context, venue Venue, symbol string) (Contract, error)
	Invalidate(ctx context.Context, venue Venue, symbol string) error
}

// Locker hands out short-lived exclusive locks. TryLock returns ErrLockHeld
// when the key is taken; release is safe to call more than once.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
