package domain

import "time"

// MutationJob is the work for one sender in one bulk command. MatchedIDs is
// always queried fresh from the store, never taken from the counting sample.
type MutationJob struct {
	Sender     SenderKey
	Target     LabelState
	MatchedIDs []MessageRef
}

// SenderResult is the outcome of mutating every message from one sender.
type SenderResult struct {
	Found    int
	Mutated  int
	Failed   int
	Failures []*PartialMutationFailure
	// Err is set when the sender's messages could not be listed at all.
	Err      error
	Duration time.Duration
}

// OK reports whether every found message reached the target state.
func (r SenderResult) OK() bool {
	return r.Err == nil && r.Failed == 0
}

// MutationReport collects per-sender results in the order senders were
// processed.
type MutationReport struct {
	Target    LabelState
	PerSender map[SenderKey]SenderResult
	Order     []SenderKey
}

// NewMutationReport returns an empty report for target.
func NewMutationReport(target LabelState) *MutationReport {
	return &MutationReport{
		Target:    target,
		PerSender: make(map[SenderKey]SenderResult),
	}
}

// Add records the result for sender, keeping first-processed order.
func (r *MutationReport) Add(sender SenderKey, res SenderResult) {
	if _, ok := r.PerSender[sender]; !ok {
		r.Order = append(r.Order, sender)
	}
	r.PerSender[sender] = res
}

// Succeeded returns the senders whose mutation fully completed.
func (r *MutationReport) Succeeded() []SenderKey {
	var keys []SenderKey
	for _, k := range r.Order {
		if r.PerSender[k].OK() {
			keys = append(keys, k)
		}
	}
	return keys
}

// Totals sums found, mutated and failed across senders.
func (r *MutationReport) Totals() (found, mutated, failed int) {
	for _, res := range r.PerSender {
		found += res.Found
		mutated += res.Mutated
		failed += res.Failed
	}
	return found, mutated, failed
}
