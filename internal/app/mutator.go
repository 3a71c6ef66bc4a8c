package app

import (
	"context"
	"time"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/lu-zhengda/topsenders/internal/provider"
	"github.com/lu-zhengda/topsenders/internal/store"
	"go.uber.org/zap"
)

// DefaultMutateBatchSize is the number of ids changed per store call.
const DefaultMutateBatchSize = 100

// MutateProgressFunc observes each finished batch for a sender.
type MutateProgressFunc func(sender domain.SenderKey, done, total int)

// MutatorOptions tunes a BulkMutator. Zero values take defaults.
type MutatorOptions struct {
	BatchSize int
	PageSize  int
	// Journal, when set, receives one record per sender under RunID.
	Journal  store.Journal
	RunID    string
	Progress MutateProgressFunc
}

// BulkMutator drives every message from a set of senders to a label state.
type BulkMutator struct {
	store     provider.MailStore
	paginator *Paginator
	pacer     *pacing.Pacer
	retrier   *pacing.Retrier
	logger    *zap.Logger
	opts      MutatorOptions
}

// NewBulkMutator returns a BulkMutator. pacer spaces batch calls across all
// senders; a nil pacer sends batches back to back.
func NewBulkMutator(ms provider.MailStore, pacer *pacing.Pacer, retrier *pacing.Retrier, logger *zap.Logger, opts MutatorOptions) *BulkMutator {
	if retrier == nil {
		retrier = pacing.NoRetry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultMutateBatchSize
	}
	if opts.PageSize <= 0 || opts.PageSize > provider.MaxPageSize {
		opts.PageSize = provider.MaxPageSize
	}
	return &BulkMutator{
		store:     ms,
		paginator: NewPaginator(ms, retrier),
		pacer:     pacer,
		retrier:   retrier,
		logger:    logger.Named("mutate"),
		opts:      opts,
	}
}

// SetRunID changes the journal run that later results are recorded under.
func (m *BulkMutator) SetRunID(id string) { m.opts.RunID = id }

// Mutate processes senders one after another. Every sender gets a result:
// failures are recorded on it and the next sender proceeds. The returned
// error is non-nil only when ctx is done.
func (m *BulkMutator) Mutate(ctx context.Context, senders []domain.SenderKey, target domain.LabelState) (*domain.MutationReport, error) {
	report := domain.NewMutationReport(target)
	for _, sender := range senders {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := m.mutateSender(ctx, sender, target)
		report.Add(sender, res)
		m.record(ctx, sender, target, res)
	}
	return report, nil
}

func (m *BulkMutator) mutateSender(ctx context.Context, sender domain.SenderKey, target domain.LabelState) domain.SenderResult {
	start := time.Now()
	var res domain.SenderResult

	q, err := domain.FromQuery(sender)
	if err != nil {
		m.logger.Error("refusing unscoped sender", zap.String("sender", string(sender)), zap.Error(err))
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	// Always re-query: the counting sample is capped and may be stale.
	refs, err := m.paginator.Drain(ctx, q, m.opts.PageSize, 0)
	if err != nil {
		m.logger.Error("failed to list messages", zap.String("sender", string(sender)), zap.Error(err))
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	res.Found = len(refs)
	job := domain.MutationJob{Sender: sender, Target: target, MatchedIDs: refs}
	add, remove := target.LabelChanges()

	ids := domain.IDs(job.MatchedIDs)
	for batch, lo := 0, 0; lo < len(ids); batch, lo = batch+1, lo+m.opts.BatchSize {
		hi := min(lo+m.opts.BatchSize, len(ids))
		chunk := ids[lo:hi]

		if m.pacer != nil {
			if err := m.pacer.Wait(ctx); err != nil {
				res.Failed += len(ids) - lo
				res.Failures = append(res.Failures, &domain.PartialMutationFailure{
					Sender: sender, BatchIndex: batch, IDs: ids[lo:], Err: err,
				})
				break
			}
		}

		err := m.retrier.Do(ctx, func() error {
			return m.store.BatchMutateLabels(ctx, chunk, add, remove)
		})
		if err != nil {
			res.Failed += len(chunk)
			res.Failures = append(res.Failures, &domain.PartialMutationFailure{
				Sender: sender, BatchIndex: batch, IDs: chunk,
				Err: &domain.StoreError{Op: "batch modify", ID: string(sender), Err: err},
			})
			m.logger.Warn("batch failed",
				zap.String("sender", string(sender)),
				zap.Int("batch", batch),
				zap.Int("ids", len(chunk)),
				zap.Error(err),
			)
		} else {
			res.Mutated += len(chunk)
		}

		if m.opts.Progress != nil {
			m.opts.Progress(sender, hi, len(ids))
		}
	}
	res.Duration = time.Since(start)

	m.logger.Info("sender mutated",
		zap.String("sender", string(sender)),
		zap.Stringer("target", target),
		zap.Int("found", res.Found),
		zap.Int("mutated", res.Mutated),
		zap.Int("failed", res.Failed),
		zap.Duration("took", res.Duration),
	)
	return res
}

func (m *BulkMutator) record(ctx context.Context, sender domain.SenderKey, target domain.LabelState, res domain.SenderResult) {
	if m.opts.Journal == nil || m.opts.RunID == "" {
		return
	}
	rec := store.MutationRecord{
		RunID:   m.opts.RunID,
		Sender:  string(sender),
		Target:  target.String(),
		Found:   res.Found,
		Mutated: res.Mutated,
		Failed:  res.Failed,
		At:      time.Now(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := m.opts.Journal.RecordMutation(ctx, rec); err != nil {
		m.logger.Warn("failed to journal mutation", zap.String("sender", string(sender)), zap.Error(err))
	}
}
