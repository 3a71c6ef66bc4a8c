package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/lu-zhengda/topsenders/internal/provider"
	"github.com/lu-zhengda/topsenders/internal/store"
)

type fakeMessage struct {
	id     string
	from   string
	unsub  string
	unread bool
}

type listCall struct {
	query    string
	token    string
	pageSize int
}

// fakeStore is an in-memory provider.MailStore that understands the
// is:unread and from:"..." predicates.
type fakeStore struct {
	mu   sync.Mutex
	msgs []*fakeMessage

	listCalls  []listCall
	getCalls   []string
	batchCalls [][]string

	listErr  map[string]error
	getErr   map[string]error
	batchErr func(call int) error
}

func newFakeStore(msgs ...*fakeMessage) *fakeStore {
	return &fakeStore{
		msgs:    msgs,
		listErr: make(map[string]error),
		getErr:  make(map[string]error),
	}
}

// addSender appends n unread messages from sender.
func (f *fakeStore) addSender(sender, unsub string, n int) {
	for i := 0; i < n; i++ {
		f.msgs = append(f.msgs, &fakeMessage{
			id:     fmt.Sprintf("m%d", len(f.msgs)+1),
			from:   sender,
			unsub:  unsub,
			unread: true,
		})
	}
}

func (f *fakeStore) matches(m *fakeMessage, query string) bool {
	if strings.Contains(query, "is:unread") && !m.unread {
		return false
	}
	if i := strings.Index(query, `from:"`); i >= 0 {
		rest := query[i+len(`from:"`):]
		lit := rest[:strings.Index(rest, `"`)]
		if strings.ReplaceAll(m.from, `"`, "") != lit {
			return false
		}
	}
	return true
}

func (f *fakeStore) ListMessages(_ context.Context, query, pageToken string, pageSize int) (provider.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, listCall{query: query, token: pageToken, pageSize: pageSize})
	if err := f.listErr[query]; err != nil {
		return provider.Page{}, err
	}

	var ids []string
	for _, m := range f.msgs {
		if f.matches(m, query) {
			ids = append(ids, m.id)
		}
	}
	start := 0
	if pageToken != "" {
		start, _ = strconv.Atoi(pageToken)
	}
	if start >= len(ids) {
		return provider.Page{}, nil
	}
	end := min(start+pageSize, len(ids))
	page := provider.Page{IDs: ids[start:end]}
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeStore) GetMessageHeaders(_ context.Context, id string, names []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, id)
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	for _, m := range f.msgs {
		if m.id != id {
			continue
		}
		all := map[string]string{}
		if m.from != "" {
			all[provider.HeaderFrom] = m.from
		}
		if m.unsub != "" {
			all[provider.HeaderListUnsubscribe] = m.unsub
		}
		out := map[string]string{}
		for _, n := range names {
			if v, ok := all[n]; ok {
				out[n] = v
			}
		}
		return out, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) BatchMutateLabels(_ context.Context, ids []string, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.batchCalls)
	f.batchCalls = append(f.batchCalls, append([]string(nil), ids...))
	if f.batchErr != nil {
		if err := f.batchErr(call); err != nil {
			return err
		}
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for _, m := range f.msgs {
		if !set[m.id] {
			continue
		}
		for _, l := range add {
			if l == domain.LabelUnread {
				m.unread = true
			}
		}
		for _, l := range remove {
			if l == domain.LabelUnread {
				m.unread = false
			}
		}
	}
	return nil
}

func (f *fakeStore) unreadFrom(sender string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.msgs {
		if m.from == sender && m.unread {
			n++
		}
	}
	return n
}

// fakeTerminal replays scripted input lines and records output.
type fakeTerminal struct {
	inputs  []string
	renders [][]Entry
	out     strings.Builder
	reports []*domain.MutationReport
}

func (t *fakeTerminal) Render(entries []Entry) {
	t.renders = append(t.renders, entries)
}

func (t *fakeTerminal) Prompt(_ context.Context, _ string) (string, error) {
	if len(t.inputs) == 0 {
		return "", io.EOF
	}
	line := t.inputs[0]
	t.inputs = t.inputs[1:]
	return line, nil
}

func (t *fakeTerminal) Printf(format string, args ...any) {
	fmt.Fprintf(&t.out, format, args...)
}

func (t *fakeTerminal) ShowReport(r *domain.MutationReport) {
	t.reports = append(t.reports, r)
}

type fakeBrowser struct {
	opened []string
	err    error
}

func (b *fakeBrowser) OpenURL(url string) error {
	b.opened = append(b.opened, url)
	return b.err
}

// fakeJournal keeps runs and records in memory.
type fakeJournal struct {
	mu       sync.Mutex
	runs     map[string]*store.Run
	records  []store.MutationRecord
	startErr error
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{runs: make(map[string]*store.Run)}
}

func (j *fakeJournal) StartRun(_ context.Context, run *store.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.startErr != nil {
		return j.startErr
	}
	r := *run
	j.runs[run.ID] = &r
	return nil
}

func (j *fakeJournal) FinishRun(_ context.Context, id string, finished time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.runs[id]
	if !ok {
		return errors.New("unknown run")
	}
	r.Finished = finished
	return nil
}

func (j *fakeJournal) GetRun(_ context.Context, id string) (*store.Run, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	r, ok := j.runs[id]
	if !ok {
		return nil, errors.New("unknown run")
	}
	return r, nil
}

func (j *fakeJournal) RecordMutation(_ context.Context, rec store.MutationRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *fakeJournal) ListMutations(_ context.Context, _ store.ListMutationOptions) ([]store.MutationRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]store.MutationRecord(nil), j.records...), nil
}

func (j *fakeJournal) Close() error { return nil }

var errTransient = errors.New("transient")

func isTestTransient(err error) bool { return errors.Is(err, errTransient) }

func newTestRetrier(clock pacing.Clock) *pacing.Retrier {
	return pacing.NewRetrier(clock, pacing.DefaultRetryPolicy, isTestTransient)
}

var (
	_ provider.MailStore = (*fakeStore)(nil)
	_ Terminal           = (*fakeTerminal)(nil)
	_ store.Journal      = (*fakeJournal)(nil)
)
