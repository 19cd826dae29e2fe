// Package ratelimit paces outbound upstream calls. It never retries or backs
// off; it only spaces requests out so bursts stay under the upstream limit.
package ratelimit

import (
	"context"
	"time"
)

type Limiter struct {
	t *time.Ticker
}

// NewRPS creates a ticker limiter allowing up to rps calls per second.
// rps <= 0 returns nil, which never blocks.
func NewRPS(rps int) *Limiter {
	if rps <= 0 {
		return nil
	}
	interval := time.Second / time.Duration(rps)
	if interval <= 0 {
		interval = time.Second
	}
	return &Limiter{t: time.NewTicker(interval)}
}

func (l *Limiter) Stop() {
	if l != nil && l.t != nil {
		l.t.Stop()
	}
}

// Wait blocks until the next slot or until ctx ends. Safe on a nil receiver.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.t == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.t.C:
		return nil
	}
}
