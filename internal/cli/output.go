package cli

import (
	"time"

	"github.com/lu-zhengda/topsenders/internal/app"
	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/store"
)

// ---------------------------------------------------------------------------
// Mutation report JSON types (mark)
// ---------------------------------------------------------------------------

type jsonReport struct {
	Target  string             `json:"target"`
	Senders []jsonSenderResult `json:"senders"`
	Found   int                `json:"found"`
	Mutated int                `json:"mutated"`
	Failed  int                `json:"failed"`
}

type jsonSenderResult struct {
	Sender   string             `json:"sender"`
	Found    int                `json:"found"`
	Mutated  int                `json:"mutated"`
	Failed   int                `json:"failed"`
	Error    string             `json:"error,omitempty"`
	Failures []jsonBatchFailure `json:"failures,omitempty"`
}

type jsonBatchFailure struct {
	Batch int      `json:"batch"`
	IDs   []string `json:"ids"`
	Error string   `json:"error"`
}

func toJSONReport(r *domain.MutationReport) jsonReport {
	found, mutated, failed := r.Totals()
	out := jsonReport{
		Target:  r.Target.String(),
		Senders: make([]jsonSenderResult, 0, len(r.Order)),
		Found:   found,
		Mutated: mutated,
		Failed:  failed,
	}
	for _, sender := range r.Order {
		res := r.PerSender[sender]
		js := jsonSenderResult{
			Sender:  string(sender),
			Found:   res.Found,
			Mutated: res.Mutated,
			Failed:  res.Failed,
		}
		if res.Err != nil {
			js.Error = res.Err.Error()
		}
		for _, f := range res.Failures {
			js.Failures = append(js.Failures, jsonBatchFailure{
				Batch: f.BatchIndex,
				IDs:   f.IDs,
				Error: f.Err.Error(),
			})
		}
		out.Senders = append(out.Senders, js)
	}
	return out
}

// ---------------------------------------------------------------------------
// Unsubscribe listing JSON type (unsubscribe)
// ---------------------------------------------------------------------------

type jsonListing struct {
	MessageID string   `json:"message_id"`
	Links     []string `json:"links"`
}

func toJSONListings(listings []app.UnsubscribeListing) []jsonListing {
	out := make([]jsonListing, 0, len(listings))
	for _, l := range listings {
		out = append(out, jsonListing{MessageID: l.MessageID, Links: l.Links})
	}
	return out
}

// ---------------------------------------------------------------------------
// History JSON type (history)
// ---------------------------------------------------------------------------

type jsonMutation struct {
	RunID   string `json:"run_id"`
	Sender  string `json:"sender"`
	Target  string `json:"target"`
	Found   int    `json:"found"`
	Mutated int    `json:"mutated"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
	At      string `json:"at"`
}

func toJSONMutations(recs []store.MutationRecord) []jsonMutation {
	out := make([]jsonMutation, 0, len(recs))
	for _, r := range recs {
		out = append(out, jsonMutation{
			RunID:   r.RunID,
			Sender:  r.Sender,
			Target:  r.Target,
			Found:   r.Found,
			Mutated: r.Mutated,
			Failed:  r.Failed,
			Error:   r.Error,
			At:      r.At.Format(time.RFC3339),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Action JSON type (auth login, auth logout)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK     bool   `json:"ok"`
	Action string `json:"action"`
	Email  string `json:"email,omitempty"`
}
