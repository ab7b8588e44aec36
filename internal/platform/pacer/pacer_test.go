package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSpacesRequests(t *testing.T) {
	p := New(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestNilAndZeroNeverWait(t *testing.T) {
	var p *Pacer
	assert.NoError(t, p.Wait(context.Background()))
	assert.NoError(t, New(0).Wait(context.Background()))
}

func TestWaitHonoursContext(t *testing.T) {
	p := New(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}
