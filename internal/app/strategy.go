package app

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"golang.org/x/sync/errgroup"
)

// Strategy names accepted by NewFetchStrategy.
const (
	StrategySequential = "sequential"
	StrategyConcurrent = "concurrent"
	StrategyBatched    = "batched"
)

// headerFetcher fetches the headers for one message.
type headerFetcher func(ctx context.Context, id string) (map[string]string, error)

// completion receives the outcome for the id at index i. It may be called
// from several goroutines at once.
type completion func(i int, headers map[string]string, err error)

// FetchStrategy decides how header fetches for a sample are scheduled. Every
// strategy calls done exactly once per id it reaches and returns only after
// all started fetches have finished.
type FetchStrategy interface {
	Name() string
	FetchAll(ctx context.Context, ids []domain.MessageRef, fetch headerFetcher, done completion) error
}

// NewFetchStrategy builds a strategy by name. pacer spaces waves and batches
// for the concurrent and batched strategies.
func NewFetchStrategy(name string, concurrency, batchSize int, pacer *pacing.Pacer) (FetchStrategy, error) {
	switch name {
	case "", StrategySequential:
		return Sequential{}, nil
	case StrategyConcurrent:
		if concurrency < 1 {
			return nil, fmt.Errorf("concurrency must be positive, got %d", concurrency)
		}
		return &Concurrent{Limit: concurrency, Pacer: pacer}, nil
	case StrategyBatched:
		if batchSize < 1 {
			return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
		}
		return &Batched{Size: batchSize, Pacer: pacer}, nil
	}
	return nil, fmt.Errorf("unknown fetch strategy %q (use sequential, concurrent or batched)", name)
}

// Sequential fetches one id at a time. The round trip itself serializes
// calls, so no pacing is applied.
type Sequential struct{}

func (Sequential) Name() string { return StrategySequential }

func (Sequential) FetchAll(ctx context.Context, ids []domain.MessageRef, fetch headerFetcher, done completion) error {
	for i, ref := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := fetch(ctx, ref.ID)
		done(i, h, err)
	}
	return nil
}

// Concurrent runs up to Limit fetches at once and waits on the pacer before
// dispatching each wave of Limit ids.
type Concurrent struct {
	Limit int
	Pacer *pacing.Pacer
}

func (c *Concurrent) Name() string { return StrategyConcurrent }

func (c *Concurrent) FetchAll(ctx context.Context, ids []domain.MessageRef, fetch headerFetcher, done completion) error {
	var g errgroup.Group
	g.SetLimit(c.Limit)

	var dispatchErr error
	for i, ref := range ids {
		if i%c.Limit == 0 && c.Pacer != nil {
			if err := c.Pacer.Wait(ctx); err != nil {
				dispatchErr = err
				break
			}
		}
		g.Go(func() error {
			h, err := fetch(ctx, ref.ID)
			done(i, h, err)
			return nil
		})
	}
	_ = g.Wait()
	return dispatchErr
}

// Batched submits fixed-size groups together, joins each group, and waits
// on the pacer between groups.
type Batched struct {
	Size  int
	Pacer *pacing.Pacer
}

func (b *Batched) Name() string { return StrategyBatched }

func (b *Batched) FetchAll(ctx context.Context, ids []domain.MessageRef, fetch headerFetcher, done completion) error {
	for start := 0; start < len(ids); start += b.Size {
		if b.Pacer != nil {
			if err := b.Pacer.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+b.Size, len(ids))
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				h, err := fetch(ctx, ids[i].ID)
				done(i, h, err)
				return nil
			})
		}
		_ = g.Wait()
	}
	return nil
}
