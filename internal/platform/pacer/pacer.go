// Package pacer enforces a fixed minimum interval between outgoing venue
// requests.
package pacer

import (
	"context"
	"sync"
	"time"
)

// Pacer hands out request slots at least Interval apart. The zero value and
// a nil *Pacer never wait.
type Pacer struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time
}

// New creates a Pacer with the given minimum interval.
func New(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Wait blocks until the caller may send its request or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := time.Now()
	slot := p.next
	if slot.Before(now) {
		slot = now
	}
	p.next = slot.Add(p.interval)
	p.mu.Unlock()

	d := time.Until(slot)
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
