package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMessages is returned when the sampling query matched nothing.
	ErrNoMessages = errors.New("no messages found")
	// ErrNoSenders is returned when no sampled message yielded a sender.
	ErrNoSenders = errors.New("no senders found")
	// ErrEmptySender is returned for a sender key that has no address left
	// once quotes and surrounding space are dropped.
	ErrEmptySender = errors.New("sender has nothing to search on")
)

// StoreError is a failed call against the remote mail store.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError is a malformed token in user input. It is reported and
// skipped, never fatal.
type ValidationError struct {
	Token  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Token, e.Reason)
}

// PartialMutationFailure is one failed batch within a sender's mutation.
type PartialMutationFailure struct {
	Sender     SenderKey
	BatchIndex int
	IDs        []string
	Err        error
}

func (e *PartialMutationFailure) Error() string {
	return fmt.Sprintf("batch %d for %s (%d messages): %v", e.BatchIndex, e.Sender, len(e.IDs), e.Err)
}

func (e *PartialMutationFailure) Unwrap() error { return e.Err }
