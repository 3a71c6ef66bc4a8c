package pacing

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum interval between successive calls to Wait. The
// first Wait returns immediately.
type Pacer struct {
	clock    Clock
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	used bool
}

// NewPacer returns a Pacer spacing calls at least interval apart.
func NewPacer(clock Clock, interval time.Duration) *Pacer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Pacer{clock: clock, interval: interval}
}

// Interval returns the configured minimum spacing.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until interval has elapsed since the previous Wait returned.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if p.used && p.interval > 0 {
		if remaining := p.interval - p.clock.Now().Sub(p.last); remaining > 0 {
			if err := p.clock.Sleep(ctx, remaining); err != nil {
				return err
			}
		}
	}
	p.last = p.clock.Now()
	p.used = true
	return nil
}
