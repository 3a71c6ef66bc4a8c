package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lu-zhengda/topsenders/internal/domain"
	"github.com/lu-zhengda/topsenders/internal/pacing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func allStrategies(t *testing.T, clock pacing.Clock) []FetchStrategy {
	t.Helper()
	var out []FetchStrategy
	for _, name := range []string{StrategySequential, StrategyConcurrent, StrategyBatched} {
		s, err := NewFetchStrategy(name, 4, 3, pacing.NewPacer(clock, 100*time.Millisecond))
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func refsOf(fs *fakeStore) []domain.MessageRef {
	refs := make([]domain.MessageRef, len(fs.msgs))
	for i, m := range fs.msgs {
		refs[i] = domain.MessageRef{ID: m.id}
	}
	return refs
}

func TestAggregate_SameResultForEveryStrategy(t *testing.T) {
	fs := newFakeStore()
	fs.addSender("a@x.com", "", 2)
	fs.addSender("b@y.com", "<https://b.example/u>", 3)
	fs.addSender("a@x.com", "<mailto:a@x.com>", 4)
	fs.addSender("c@z.com", "not-a-link", 1)
	fs.getErr["m3"] = errors.New("boom")
	fs.getErr["m10"] = errors.New("boom")
	refs := refsOf(fs)

	var want *Aggregation
	for _, s := range allStrategies(t, pacing.NewFakeClock(time.Unix(0, 0))) {
		t.Run(s.Name(), func(t *testing.T) {
			agg, err := NewAggregator(fs, s, nil, zap.NewNop()).Aggregate(context.Background(), refs)
			require.NoError(t, err)

			total := 0
			for _, a := range agg.Senders {
				total += a.Count
			}
			assert.Equal(t, agg.Succeeded, total, "sum(Count) must equal successful fetches")
			assert.Equal(t, 10, agg.Processed)
			assert.Equal(t, 2, agg.Failed)

			assert.Equal(t, []domain.SenderAggregate{
				{Key: "a@x.com", Count: 6, UnsubscribeLink: "mailto:a@x.com"},
				{Key: "b@y.com", Count: 2, UnsubscribeLink: "https://b.example/u"},
			}, agg.Senders)

			if want == nil {
				want = agg
				return
			}
			assert.Equal(t, want.Senders, agg.Senders)
		})
	}
}

func TestAggregate_FirstFoundLinkWins(t *testing.T) {
	fs := newFakeStore()
	fs.addSender("a@x.com", "<https://first.example>", 1)
	fs.addSender("a@x.com", "<https://second.example>", 1)

	agg, err := NewAggregator(fs, Sequential{}, nil, nil).Aggregate(context.Background(), refsOf(fs))
	require.NoError(t, err)
	require.Len(t, agg.Senders, 1)
	assert.Equal(t, "https://first.example", agg.Senders[0].UnsubscribeLink)
}

func TestAggregate_MissingFromIsLoggedFailure(t *testing.T) {
	fs := newFakeStore(&fakeMessage{id: "m1", unread: true}, &fakeMessage{id: "m2", from: "a@x.com", unread: true})
	core, logs := observer.New(zapcore.WarnLevel)

	agg, err := NewAggregator(fs, Sequential{}, nil, zap.New(core)).Aggregate(context.Background(), refsOf(fs))
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Failed)
	assert.Equal(t, 1, agg.Succeeded)

	entries := logs.FilterField(zap.String("message_id", "m1")).All()
	assert.Len(t, entries, 1)
}

func TestAggregate_EmptyQuotedFromIsFailure(t *testing.T) {
	fs := newFakeStore(
		&fakeMessage{id: "m1", from: `""`, unread: true},
		&fakeMessage{id: "m2", from: ` " " `, unread: true},
		&fakeMessage{id: "m3", from: "a@x.com", unread: true},
	)
	core, logs := observer.New(zapcore.WarnLevel)

	agg, err := NewAggregator(fs, Sequential{}, nil, zap.New(core)).Aggregate(context.Background(), refsOf(fs))
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Failed)
	assert.Equal(t, 1, agg.Succeeded)
	assert.Equal(t, []domain.SenderAggregate{{Key: "a@x.com", Count: 1}}, agg.Senders)
	assert.Equal(t, 1, logs.FilterField(zap.String("message_id", "m1")).Len())
	assert.Equal(t, 1, logs.FilterField(zap.String("message_id", "m2")).Len())
}

func TestAggregate_FailedFetchIsLoggedWithID(t *testing.T) {
	fs := newFakeStore()
	fs.addSender("a@x.com", "", 3)
	fs.getErr["m2"] = errors.New("boom")
	core, logs := observer.New(zapcore.WarnLevel)

	agg, err := NewAggregator(fs, Sequential{}, nil, zap.New(core)).Aggregate(context.Background(), refsOf(fs))
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Senders[0].Count)
	assert.Equal(t, 1, logs.FilterField(zap.String("message_id", "m2")).Len())
}

func TestAggregate_RetriesTransientFetch(t *testing.T) {
	fs := newFakeStore()
	fs.addSender("a@x.com", "", 1)
	fs.getErr["m1"] = errTransient
	clock := pacing.NewFakeClock(time.Unix(0, 0))

	agg, err := NewAggregator(fs, Sequential{}, newTestRetrier(clock), nil).Aggregate(context.Background(), refsOf(fs))
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Failed)
	// Every attempt hit the store; the last failure is final.
	assert.Len(t, fs.getCalls, pacing.DefaultRetryPolicy.MaxAttempts)
	assert.Len(t, clock.Sleeps(), pacing.DefaultRetryPolicy.MaxAttempts-1)
}

func TestAggregate_Progress(t *testing.T) {
	fs := newFakeStore()
	fs.addSender("a@x.com", "", 250)

	for _, s := range allStrategies(t, pacing.NewFakeClock(time.Unix(0, 0))) {
		t.Run(s.Name(), func(t *testing.T) {
			var (
				mu    sync.Mutex
				calls []string
			)
			a := NewAggregator(fs, s, nil, nil)
			a.OnProgress(100, func(processed, total int) {
				mu.Lock()
				defer mu.Unlock()
				calls = append(calls, fmt.Sprintf("%d/%d", processed, total))
			})
			_, err := a.Aggregate(context.Background(), refsOf(fs))
			require.NoError(t, err)
			assert.Equal(t, []string{"100/250", "200/250", "250/250"}, calls)
		})
	}
}

func TestAggregate_CanceledContext(t *testing.T) {
	fs := newFakeStore()
	fs.addSender("a@x.com", "", 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, s := range allStrategies(t, pacing.NewFakeClock(time.Unix(0, 0))) {
		t.Run(s.Name(), func(t *testing.T) {
			_, err := NewAggregator(fs, s, nil, nil).Aggregate(ctx, refsOf(fs))
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestBatched_PacesBetweenGroups(t *testing.T) {
	fs := newFakeStore()
	fs.addSender("a@x.com", "", 7)
	clock := pacing.NewFakeClock(time.Unix(0, 0))
	s, err := NewFetchStrategy(StrategyBatched, 0, 3, pacing.NewPacer(clock, 500*time.Millisecond))
	require.NoError(t, err)

	_, err = NewAggregator(fs, s, nil, nil).Aggregate(context.Background(), refsOf(fs))
	require.NoError(t, err)
	// Three groups: the first goes at once, the other two wait a full interval.
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, clock.Sleeps())
}

func TestNewFetchStrategy(t *testing.T) {
	tests := []struct {
		name    string
		conc    int
		batch   int
		want    string
		wantErr bool
	}{
		{"", 0, 0, StrategySequential, false},
		{"sequential", 0, 0, StrategySequential, false},
		{"concurrent", 8, 0, StrategyConcurrent, false},
		{"concurrent", 0, 0, "", true},
		{"batched", 0, 10, StrategyBatched, false},
		{"batched", 0, 0, "", true},
		{"parallel", 8, 10, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewFetchStrategy(tt.name, tt.conc, tt.batch, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
		})
	}
}
