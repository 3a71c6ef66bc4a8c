package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/lu-zhengda/topsenders/internal/provider"
	"github.com/lu-zhengda/topsenders/internal/store"
	"go.uber.org/zap"
)

// Defaults for the sampling pipeline.
const (
	DefaultMaxEmails = 1000
)

// ServiceOptions wires the pipeline. Zero values take defaults.
type ServiceOptions struct {
	// Query selects the counting sample.
	Query     domain.Query
	MaxEmails int
	PageSize  int
	TopN      int

	Strategy      FetchStrategy
	Retrier       *pacing.Retrier
	ProgressEvery int

	MutatePacer     *pacing.Pacer
	MutateBatchSize int

	Loop LoopOptions
}

// Service runs the sample, aggregate, select, mutate pipeline against one
// mail store.
type Service struct {
	store   provider.MailStore
	journal store.Journal
	term    Terminal
	browser Browser
	logger  *zap.Logger
	opts    ServiceOptions

	paginator  *Paginator
	aggregator *Aggregator
	mutator    *BulkMutator
}

// NewService builds the pipeline components. journal and browser may be nil.
func NewService(ms provider.MailStore, journal store.Journal, term Terminal, browser Browser, logger *zap.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxEmails <= 0 {
		opts.MaxEmails = DefaultMaxEmails
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Retrier == nil {
		opts.Retrier = pacing.NoRetry()
	}

	s := &Service{
		store:   ms,
		journal: journal,
		term:    term,
		browser: browser,
		logger:  logger,
		opts:    opts,
	}
	s.paginator = NewPaginator(ms, opts.Retrier)
	s.aggregator = NewAggregator(ms, opts.Strategy, opts.Retrier, logger)
	s.aggregator.OnProgress(opts.ProgressEvery, func(processed, total int) {
		term.Printf("[%s] Processed %d of %d emails...\n", time.Now().Format(time.DateTime), processed, total)
	})
	s.mutator = NewBulkMutator(ms, opts.MutatePacer, opts.Retrier, logger, MutatorOptions{
		BatchSize: opts.MutateBatchSize,
		PageSize:  opts.PageSize,
		Journal:   journal,
		Progress: func(sender domain.SenderKey, done, total int) {
			term.Printf("    %s: marked %d of %d\n", sender, done, total)
		},
	})
	return s
}

// Run samples the mailbox, ranks senders and hands control to the
// interactive loop. It returns domain.ErrNoMessages or domain.ErrNoSenders
// when there is nothing to act on.
func (s *Service) Run(ctx context.Context) error {
	q := s.opts.Query
	s.term.Printf("Fetching email IDs...\n")
	refs, err := s.paginator.Drain(ctx, q, s.opts.PageSize, s.opts.MaxEmails)
	if err != nil {
		return fmt.Errorf("failed to fetch sample: %w", err)
	}
	if len(refs) == 0 {
		return domain.ErrNoMessages
	}

	s.term.Printf("Fetched %d emails. Parsing senders...\n", len(refs))
	agg, err := s.aggregator.Aggregate(ctx, refs)
	if err != nil {
		return fmt.Errorf("failed to aggregate senders: %w", err)
	}
	s.term.Printf("Sender parsing took %.2f seconds.\n", agg.Duration.Seconds())
	if agg.Failed > 0 {
		s.term.Printf("%d of %d emails could not be read and were skipped.\n", agg.Failed, agg.Processed)
	}
	if len(agg.Senders) == 0 {
		return domain.ErrNoSenders
	}

	table := NewRankedTable(agg.Senders, s.opts.TopN)
	s.term.Printf("\nTop %d senders:\n\n", table.Len())

	runID := s.startRun(ctx, "topsenders", q.String(), len(refs), len(agg.Senders))
	defer s.finishRun(runID)

	loop := NewLoop(table, s.mutator, s.term, s.browser, s.logger, s.opts.Loop)
	return loop.Run(ctx)
}

// MarkSenders drives every message from senders to target without the
// interactive loop and returns the report.
func (s *Service) MarkSenders(ctx context.Context, senders []domain.SenderKey, target domain.LabelState) (*domain.MutationReport, error) {
	runID := s.startRun(ctx, "mark", "", 0, len(senders))
	defer s.finishRun(runID)

	s.term.Printf("Marking all emails from %d senders as %s...\n", len(senders), target)
	report, err := s.mutator.Mutate(ctx, senders, target)
	if report != nil {
		s.term.ShowReport(report)
	}
	return report, err
}

// startRun opens a journal run and points the mutator at it. Journal
// failures are logged and the run continues unrecorded.
func (s *Service) startRun(ctx context.Context, command, query string, sampled, senders int) string {
	if s.journal == nil {
		return ""
	}
	run := &store.Run{
		ID:      uuid.NewString(),
		Command: command,
		Query:   query,
		Sampled: sampled,
		Senders: senders,
		Started: time.Now(),
	}
	if err := s.journal.StartRun(ctx, run); err != nil {
		s.logger.Warn("failed to journal run", zap.Error(err))
		return ""
	}
	s.mutator.SetRunID(run.ID)
	return run.ID
}

func (s *Service) finishRun(id string) {
	if id == "" {
		return
	}
	// The run context may already be canceled; closing the record should still land.
	if err := s.journal.FinishRun(context.Background(), id, time.Now()); err != nil {
		s.logger.Warn("failed to close journal run", zap.String("run_id", id), zap.Error(err))
	}
}
