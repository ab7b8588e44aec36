package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// releaseLua deletes the lock only while it still holds the caller's token,
// so an expired holder cannot free a lock someone else now owns.
var releaseLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// Locker implements domain.Locker with SET NX and a token-checked release.
type Locker struct {
	rdb *redis.Client
}

// Compile-time interface check.
var _ domain.Locker = (*Locker)(nil)

// NewLocker creates a Locker backed by the given Client.
func NewLocker(c *Client) *Locker {
	return &Locker{rdb: c.rdb}
}

func lockKey(key string) string {
	return keyPrefix + "lock:" + key
}

// TryLock takes key for ttl or returns domain.ErrLockHeld.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	lk := lockKey(key)

	ok, err := l.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseLua.Run(ctx, l.rdb, []string{lk}, token).Err()
		})
	}, nil
}
