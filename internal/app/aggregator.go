package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/lu-zhengda/topsenders/internal/provider"
	"go.uber.org/zap"
)

// DefaultProgressEvery is how many processed ids separate progress reports.
const DefaultProgressEvery = 100

var errNoFrom = errors.New("message has no usable From header")

var aggregateHeaders = []string{provider.HeaderFrom, provider.HeaderListUnsubscribe}

// Aggregation is the result of counting senders over a sample.
type Aggregation struct {
	// Senders holds one aggregate per sender key in first-seen order.
	Senders   []domain.SenderAggregate
	Processed int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// ProgressFunc observes aggregation progress. It never affects results.
type ProgressFunc func(processed, total int)

// Aggregator fetches From and List-Unsubscribe headers for a sample and
// counts messages per sender.
type Aggregator struct {
	store    provider.MailStore
	strategy FetchStrategy
	retrier  *pacing.Retrier
	logger   *zap.Logger
	progress ProgressFunc
	every    int
}

// NewAggregator returns an Aggregator using strategy to schedule fetches.
func NewAggregator(store provider.MailStore, strategy FetchStrategy, retrier *pacing.Retrier, logger *zap.Logger) *Aggregator {
	if strategy == nil {
		strategy = Sequential{}
	}
	if retrier == nil {
		retrier = pacing.NoRetry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		store:    store,
		strategy: strategy,
		retrier:  retrier,
		logger:   logger.Named("aggregate"),
		every:    DefaultProgressEvery,
	}
}

// OnProgress registers fn to be called every n processed ids and once at the end.
func (a *Aggregator) OnProgress(n int, fn ProgressFunc) {
	if n > 0 {
		a.every = n
	}
	a.progress = fn
}

type fetchResult struct {
	headers map[string]string
	err     error
}

// Aggregate counts senders across ids. A failed fetch is logged and
// contributes nothing; results are folded in id order once every fetch has
// finished, so the outcome does not depend on the strategy.
func (a *Aggregator) Aggregate(ctx context.Context, ids []domain.MessageRef) (*Aggregation, error) {
	start := time.Now()
	results := make([]fetchResult, len(ids))
	reached := make([]bool, len(ids))

	var (
		mu        sync.Mutex
		processed int
	)
	done := func(i int, headers map[string]string, err error) {
		results[i] = fetchResult{headers: headers, err: err}
		reached[i] = true

		mu.Lock()
		defer mu.Unlock()
		processed++
		if a.progress != nil && (processed%a.every == 0 || processed == len(ids)) {
			a.progress(processed, len(ids))
		}
	}

	fetch := func(ctx context.Context, id string) (map[string]string, error) {
		var headers map[string]string
		err := a.retrier.Do(ctx, func() error {
			var err error
			headers, err = a.store.GetMessageHeaders(ctx, id, aggregateHeaders)
			return err
		})
		return headers, err
	}

	if err := a.strategy.FetchAll(ctx, ids, fetch, done); err != nil {
		return nil, err
	}

	agg := &Aggregation{}
	index := make(map[domain.SenderKey]int)
	for i, ref := range ids {
		if !reached[i] {
			continue
		}
		agg.Processed++
		r := results[i]
		from := r.headers[provider.HeaderFrom]
		if r.err == nil && !domain.SenderKey(from).Searchable() {
			r.err = errNoFrom
		}
		if r.err != nil {
			agg.Failed++
			a.logger.Warn("failed to fetch sender", zap.String("message_id", ref.ID), zap.Error(r.err))
			continue
		}
		agg.Succeeded++

		key := domain.SenderKey(from)
		pos, ok := index[key]
		if !ok {
			pos = len(agg.Senders)
			index[key] = pos
			agg.Senders = append(agg.Senders, domain.SenderAggregate{Key: key})
		}
		s := &agg.Senders[pos]
		s.Count++
		if !s.HasUnsubscribeLink() {
			if link, ok := ExtractUnsubscribeLink(r.headers[provider.HeaderListUnsubscribe]); ok {
				s.UnsubscribeLink = link
			}
		}
	}
	agg.Duration = time.Since(start)

	a.logger.Info("aggregated senders",
		zap.String("strategy", a.strategy.Name()),
		zap.Int("processed", agg.Processed),
		zap.Int("failed", agg.Failed),
		zap.Int("senders", len(agg.Senders)),
		zap.Duration("took", agg.Duration),
	)
	return agg, nil
}
