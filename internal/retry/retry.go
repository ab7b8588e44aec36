// Package retry runs a single remote call with bounded retries and a
// deterministic backoff.
package retry

import (
	"context"
	"math"
	"time"
)

// Backoff returns the wait before retry number i (0-based: the wait after
// the first failed attempt is Delay(0)).
type Backoff interface {
	Delay(i int) time.Duration
}

// Linear waits Step*(i+1).
type Linear struct {
	Step time.Duration
}

func (b Linear) Delay(i int) time.Duration {
	return b.Step * time.Duration(i+1)
}

// Exponential waits min(Base*2^i, Cap). A zero Cap means uncapped.
type Exponential struct {
	Base time.Duration
	Cap  time.Duration
}

func (b Exponential) Delay(i int) time.Duration {
	d := b.Base
	for n := 0; n < i && (b.Cap <= 0 || d < b.Cap); n++ {
		if d > math.MaxInt64/2 {
			d = math.MaxInt64
			break
		}
		d *= 2
	}
	if b.Cap > 0 && d > b.Cap {
		return b.Cap
	}
	return d
}

// Compile-time interface checks.
var (
	_ Backoff = Linear{}
	_ Backoff = Exponential{}
)

// Policy controls Do.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt, so op
	// runs at most MaxRetries+1 times. Negative values are treated as 0.
	MaxRetries int
	// Backoff spaces the attempts. Nil retries immediately.
	Backoff Backoff
	// Retryable decides whether an error is worth another attempt. Nil
	// retries every error.
	Retryable func(error) bool
	// OnRetry, when set, is called before each wait with the 0-based retry
	// number, the error that caused it and the upcoming delay.
	OnRetry func(retry int, err error, delay time.Duration)
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempts are used up. The last error from op is returned as is, without
// wrapping, so callers can match it with errors.As. If ctx is cancelled
// while waiting, ctx.Err() is returned instead.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	retries := max(p.MaxRetries, 0)

	for i := 0; ; i++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if i >= retries || (p.Retryable != nil && !p.Retryable(err)) {
			return zero, err
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff.Delay(i)
		}
		if p.OnRetry != nil {
			p.OnRetry(i, err, delay)
		}
		if err := wait(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
