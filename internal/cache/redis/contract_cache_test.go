package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/perpgate/internal/domain"
)

// testClient connects to PERPGATE_TEST_REDIS_ADDR or skips.
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("PERPGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PERPGATE_TEST_REDIS_ADDR not set")
	}
	c := Wrap(redis.NewClient(&redis.Options{Addr: addr}))
	require.NoError(t, c.Ping(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "perpgate:contract:okx:BTC_USDT", contractKey(domain.VenueOKX, "BTC_USDT"))
	assert.Equal(t, "perpgate:lock:sync:gateio:BTC_USDT", lockKey("sync:gateio:BTC_USDT"))
}

func TestContractCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cc := NewContractCache(testClient(t), time.Minute)
	ct := domain.Contract{Symbol: "ZZTEST_USDT", NativeSymbol: "ZZTEST_USDT", TickSize: "0.1", Multiplier: "0.0001"}

	require.NoError(t, cc.Invalidate(ctx, domain.VenueGateIO, ct.Symbol))
	_, err := cc.Get(ctx, domain.VenueGateIO, ct.Symbol)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, cc.SetMany(ctx, domain.VenueGateIO, []domain.Contract{ct}))
	got, err := cc.Get(ctx, domain.VenueGateIO, ct.Symbol)
	require.NoError(t, err)
	assert.Equal(t, ct, got)

	_, err = cc.Get(ctx, domain.VenueOKX, ct.Symbol)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, cc.Invalidate(ctx, domain.VenueGateIO, ct.Symbol))
}

func TestLockerExclusive(t *testing.T) {
	ctx := context.Background()
	l := NewLocker(testClient(t))

	release, err := l.TryLock(ctx, "test:exclusive", time.Minute)
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "test:exclusive", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	release()
	release()

	again, err := l.TryLock(ctx, "test:exclusive", time.Minute)
	require.NoError(t, err)
	again()
}
