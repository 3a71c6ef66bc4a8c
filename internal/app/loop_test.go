package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"", Command{Kind: CmdQuit}},
		{"   ", Command{Kind: CmdQuit}},
		{"r", Command{Kind: CmdRefresh}},
		{"R", Command{Kind: CmdRefresh}},
		{"u", Command{Kind: CmdBulkUnreadAll}},
		{" e ", Command{Kind: CmdExit}},
		{"1,3", Command{Kind: CmdApplySelection, Selection: "1,3"}},
		{"refresh", Command{Kind: CmdApplySelection, Selection: "refresh"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCommand(tt.in))
		})
	}
}

type loopFixture struct {
	store   *fakeStore
	term    *fakeTerminal
	browser *fakeBrowser
	clock   *pacing.FakeClock
	loop    *Loop
}

func newLoopFixture(t *testing.T, openLinks bool, inputs ...string) *loopFixture {
	t.Helper()
	fs := newFakeStore()
	fs.addSender("a@x.com", "<https://a.example/u>", 3)
	fs.addSender("b@y.com", "", 2)
	fs.addSender("c@z.com", "<mailto:c@z.com>", 1)

	agg, err := NewAggregator(fs, Sequential{}, nil, nil).Aggregate(context.Background(), refsOf(fs))
	require.NoError(t, err)

	f := &loopFixture{
		store:   fs,
		term:    &fakeTerminal{inputs: inputs},
		browser: &fakeBrowser{},
		clock:   pacing.NewFakeClock(time.Unix(0, 0)),
	}
	m := NewBulkMutator(fs, nil, nil, nil, MutatorOptions{})
	f.loop = NewLoop(NewRankedTable(agg.Senders, 25), m, f.term, f.browser, nil, LoopOptions{
		OpenLinks: openLinks,
		LinkPacer: pacing.NewPacer(f.clock, time.Second),
	})
	return f
}

func TestLoop_EmptyInputTerminates(t *testing.T) {
	f := newLoopFixture(t, true, "")
	require.NoError(t, f.loop.Run(context.Background()))
	assert.Equal(t, StateTerminated, f.loop.State())
	assert.Len(t, f.term.renders, 1)
	assert.Empty(t, f.store.batchCalls)
}

func TestLoop_ExitWithoutMutation(t *testing.T) {
	f := newLoopFixture(t, true, "e", "1")
	require.NoError(t, f.loop.Run(context.Background()))
	assert.Empty(t, f.store.batchCalls)
	assert.Contains(t, f.term.out.String(), "Exiting...")
	assert.Len(t, f.term.inputs, 1, "nothing is read after exit")
}

func TestLoop_RefreshRerendersUnchanged(t *testing.T) {
	f := newLoopFixture(t, true, "r", "r", "")
	require.NoError(t, f.loop.Run(context.Background()))
	require.Len(t, f.term.renders, 3)
	assert.Equal(t, f.term.renders[0], f.term.renders[2])
}

func TestLoop_ApplySelection(t *testing.T) {
	f := newLoopFixture(t, true, "1,3", "")
	require.NoError(t, f.loop.Run(context.Background()))

	assert.Equal(t, []string{"https://a.example/u", "mailto:c@z.com"}, f.browser.opened)
	assert.Equal(t, []time.Duration{time.Second}, f.clock.Sleeps())
	assert.Zero(t, f.store.unreadFrom("a@x.com"))
	assert.Zero(t, f.store.unreadFrom("c@z.com"))
	assert.Equal(t, 2, f.store.unreadFrom("b@y.com"))

	require.Len(t, f.term.renders, 2)
	second := f.term.renders[1]
	require.Len(t, second, 1)
	assert.Equal(t, domain.SenderKey("b@y.com"), second[0].Key)
	assert.Equal(t, 2, second[0].ID, "entry ids survive removal")
	require.Len(t, f.term.reports, 1)
}

func TestLoop_NoOpenLinks(t *testing.T) {
	f := newLoopFixture(t, false, "1", "")
	require.NoError(t, f.loop.Run(context.Background()))
	assert.Empty(t, f.browser.opened)
	assert.Zero(t, f.store.unreadFrom("a@x.com"))
}

func TestLoop_BrowserFailureDoesNotBlockMutation(t *testing.T) {
	f := newLoopFixture(t, true, "1", "")
	f.browser.err = errors.New("no display")
	require.NoError(t, f.loop.Run(context.Background()))
	assert.Zero(t, f.store.unreadFrom("a@x.com"))
	assert.Contains(t, f.term.out.String(), "Failed to open unsubscribe link")
}

func TestLoop_InvalidSelectionRedisplays(t *testing.T) {
	f := newLoopFixture(t, true, "9,x", "")
	require.NoError(t, f.loop.Run(context.Background()))
	assert.Contains(t, f.term.out.String(), "No valid senders selected.")
	assert.Len(t, f.term.renders, 2)
	assert.Empty(t, f.store.batchCalls)
}

func TestLoop_EmptiedTableTerminates(t *testing.T) {
	f := newLoopFixture(t, false, "1,2,3", "never read")
	require.NoError(t, f.loop.Run(context.Background()))
	assert.Contains(t, f.term.out.String(), "No more senders to display.")
	assert.Equal(t, StateTerminated, f.loop.State())
	assert.Len(t, f.term.inputs, 1)
}

func TestLoop_PartialFailureKeepsSender(t *testing.T) {
	f := newLoopFixture(t, false, "1", "")
	f.store.batchErr = func(int) error { return errors.New("backend error") }
	require.NoError(t, f.loop.Run(context.Background()))

	require.Len(t, f.term.renders, 2)
	assert.Len(t, f.term.renders[1], 3, "failed sender stays for a retry")
}

func TestLoop_BulkUnreadAllTerminates(t *testing.T) {
	f := newLoopFixture(t, true, "1", "u", "never read")
	require.NoError(t, f.loop.Run(context.Background()))

	// a@x.com was removed by the first selection, so u only touches b and c.
	assert.Zero(t, f.store.unreadFrom("a@x.com"))
	assert.Len(t, f.term.inputs, 1)
	require.Len(t, f.term.reports, 2)
	assert.Equal(t, domain.Unread, f.term.reports[1].Target)
	assert.Equal(t, []domain.SenderKey{"b@y.com", "c@z.com"}, f.term.reports[1].Order)
}

func TestLoop_EOFTerminates(t *testing.T) {
	f := newLoopFixture(t, true)
	require.NoError(t, f.loop.Run(context.Background()))
	assert.Equal(t, StateTerminated, f.loop.State())
}
