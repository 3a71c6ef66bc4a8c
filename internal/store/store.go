package store

import (
	"context"
	"time"
)

// Journal is an append-only record of runs and the mutation outcome for each
// sender. It never stores message content.
type Journal interface {
	// Runs
	StartRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, id string, finished time.Time) error
	GetRun(ctx context.Context, id string) (*Run, error)

	// Mutations
	RecordMutation(ctx context.Context, rec MutationRecord) error
	ListMutations(ctx context.Context, opts ListMutationOptions) ([]MutationRecord, error)

	// Lifecycle
	Close() error
}

// Run is one invocation that sampled the mailbox or mutated senders.
type Run struct {
	ID       string
	Command  string
	Query    string
	Sampled  int
	Senders  int
	Started  time.Time
	Finished time.Time // zero while the run is open
}

// MutationRecord is the outcome of driving one sender to a label state.
type MutationRecord struct {
	ID      int64
	RunID   string
	Sender  string
	Target  string
	Found   int
	Mutated int
	Failed  int
	Error   string
	At      time.Time
}

// ListMutationOptions configures mutation history queries.
type ListMutationOptions struct {
	RunID  string
	Sender string
	Limit  int
}
