package app

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lu-zhengda/topsenders/internal/domain"
)

// DefaultTopN is the number of senders shown when no limit is configured.
const DefaultTopN = 25

// Entry is one row of the ranked table. ID is assigned when the table is
// built and never changes, even as other rows are removed.
type Entry struct {
	ID int
	domain.SenderAggregate
}

// RankedTable holds the top senders by count, ties kept in first-seen order.
// Removing senders never re-ranks the rest.
type RankedTable struct {
	entries []Entry
}

// NewRankedTable ranks aggs by count descending and keeps the first topN.
// aggs must be in first-seen order; duplicate keys after the first are ignored.
func NewRankedTable(aggs []domain.SenderAggregate, topN int) *RankedTable {
	if topN <= 0 {
		topN = DefaultTopN
	}

	seen := make(map[domain.SenderKey]bool, len(aggs))
	ranked := make([]domain.SenderAggregate, 0, len(aggs))
	for _, a := range aggs {
		if seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		ranked = append(ranked, a)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	t := &RankedTable{entries: make([]Entry, len(ranked))}
	for i, a := range ranked {
		t.entries[i] = Entry{ID: i + 1, SenderAggregate: a}
	}
	return t
}

// Len returns the number of remaining rows.
func (t *RankedTable) Len() int { return len(t.entries) }

// Entries returns a copy of the remaining rows in display order.
func (t *RankedTable) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Keys returns the remaining sender keys in display order.
func (t *RankedTable) Keys() []domain.SenderKey {
	keys := make([]domain.SenderKey, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.Key
	}
	return keys
}

// Lookup finds the row for key.
func (t *RankedTable) Lookup(key domain.SenderKey) (Entry, bool) {
	for _, e := range t.entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// SelectByIndices resolves comma-separated 1-based positions in the current
// display order. Bad tokens are reported and skipped; repeated positions
// resolve once.
func (t *RankedTable) SelectByIndices(input string) ([]domain.SenderKey, []*domain.ValidationError) {
	var (
		keys []domain.SenderKey
		errs []*domain.ValidationError
	)
	picked := make(map[int]bool)
	for _, tok := range strings.Split(input, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || !isDigits(tok) {
			errs = append(errs, &domain.ValidationError{Token: tok, Reason: "not a number"})
			continue
		}
		if n < 1 || n > len(t.entries) {
			errs = append(errs, &domain.ValidationError{
				Token:  tok,
				Reason: "out of range [1, " + strconv.Itoa(len(t.entries)) + "]",
			})
			continue
		}
		if picked[n] {
			continue
		}
		picked[n] = true
		keys = append(keys, t.entries[n-1].Key)
	}
	return keys, errs
}

// RemoveSenders deletes the rows for keys and returns how many were removed.
func (t *RankedTable) RemoveSenders(keys []domain.SenderKey) int {
	drop := make(map[domain.SenderKey]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	kept := t.entries[:0]
	for _, e := range t.entries {
		if !drop[e.Key] {
			kept = append(kept, e)
		}
	}
	removed := len(t.entries) - len(kept)
	t.entries = kept
	return removed
}

// isDigits reports whether s is made only of ASCII digits, so signed forms
// like "+1" are not positions.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
