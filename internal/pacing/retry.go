package pacing

import (
	"context"
	"fmt"
	"time"

	"github.com/googleapis/gax-go/v2"
)

// RetryPolicy configures capped exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

// DefaultRetryPolicy matches the store's documented guidance: start at
// 500ms, double, cap at 30s.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 4, Initial: 500 * time.Millisecond, Max: 30 * time.Second}

// Retrier re-runs calls that fail with a transient error.
type Retrier struct {
	clock     Clock
	policy    RetryPolicy
	transient func(error) bool
}

// NewRetrier returns a Retrier. transient decides which errors are worth
// another attempt; a nil classifier disables retries.
func NewRetrier(clock Clock, policy RetryPolicy, transient func(error) bool) *Retrier {
	if clock == nil {
		clock = RealClock{}
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{clock: clock, policy: policy, transient: transient}
}

// NoRetry runs every call exactly once.
func NoRetry() *Retrier {
	return NewRetrier(RealClock{}, RetryPolicy{MaxAttempts: 1}, nil)
}

// Do calls fn until it succeeds, fails permanently, or attempts run out.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	bo := gax.Backoff{
		Initial:    r.policy.Initial,
		Max:        r.policy.Max,
		Multiplier: 2,
	}
	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if r.transient == nil || !r.transient(err) || attempt == r.policy.MaxAttempts {
			break
		}
		if serr := r.clock.Sleep(ctx, bo.Pause()); serr != nil {
			return fmt.Errorf("retry interrupted (%w): %w", serr, err)
		}
	}
	return err
}
