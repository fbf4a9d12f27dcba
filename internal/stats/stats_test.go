package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galleyhq/galley/internal/api"
	"github.com/galleyhq/galley/internal/clock"
)

type fakeStats struct {
	mu          sync.Mutex
	calls       int
	regenerated int
	dailyErr    error
	regenErr    error
	daily       api.DailyStats
	weekly      []api.DailyStats
}

func (f *fakeStats) FetchDailyStats(ctx context.Context) (api.DailyStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.dailyErr != nil {
		return api.DailyStats{}, f.dailyErr
	}
	return f.daily, nil
}

func (f *fakeStats) FetchWeeklyStats(ctx context.Context) ([]api.DailyStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.DailyStats(nil), f.weekly...), nil
}

func (f *fakeStats) RegenerateStats(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regenerated++
	return f.regenErr
}

func (f *fakeStats) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newPoller(f *fakeStats) (*Poller, *Store, *clock.Fake) {
	fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	store := NewStore(fake)
	return NewPoller(Options{API: f, Store: store, Clock: fake}), store, fake
}

func TestRefresh_StoresFiguresSortedByDate(t *testing.T) {
	f := &fakeStats{
		daily: api.DailyStats{TotalSales: 42.5, OrderCount: 3},
		weekly: []api.DailyStats{
			{Date: "2025-03-01", OrderCount: 3},
			{Date: "2025-02-28", OrderCount: 9},
		},
	}
	p, store, _ := newPoller(f)

	require.NoError(t, p.Refresh(context.Background()))

	snap := store.Snapshot()
	require.True(t, snap.Loaded(), spew.Sdump(snap))
	assert.Equal(t, 3, snap.Daily.OrderCount)
	require.Len(t, snap.Weekly, 2)
	assert.Equal(t, "2025-02-28", snap.Weekly[0].Date)
}

func TestRefresh_FailureKeepsPreviousFigures(t *testing.T) {
	f := &fakeStats{daily: api.DailyStats{OrderCount: 7}}
	p, store, _ := newPoller(f)
	require.NoError(t, p.Refresh(context.Background()))

	f.dailyErr = errors.New("connection refused")
	require.Error(t, p.Refresh(context.Background()))
	require.Error(t, p.Refresh(context.Background()))

	snap := store.Snapshot()
	assert.Equal(t, 7, snap.Daily.OrderCount)
	assert.Equal(t, 2, snap.Health.ConsecutiveFailures)
	assert.True(t, snap.Health.Offline())
	assert.ErrorContains(t, snap.Health.LastError, "daily stats")
}

func TestRun_RefreshesOnTimerAndTrigger(t *testing.T) {
	f := &fakeStats{}
	p, _, fake := newPoller(f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	fake.WaitForTickers(1)
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, 5*time.Millisecond)

	fake.Advance(DefaultInterval)
	require.Eventually(t, func() bool { return f.callCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Regenerate(context.Background()))
	require.Eventually(t, func() bool { return f.callCount() == 3 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestRegenerate_FailureDoesNotRefresh(t *testing.T) {
	f := &fakeStats{regenErr: &api.HTTPError{StatusCode: 500, Message: "boom"}}
	p, _, _ := newPoller(f)

	err := p.Regenerate(context.Background())
	require.Error(t, err)
	assert.Equal(t, 500, api.StatusCode(err))
	assert.Len(t, p.trigger, 0)
}

func TestStore_OnChange(t *testing.T) {
	store := NewStore(nil)
	var got []uint64
	store.OnChange(func(s Snapshot) { got = append(got, s.Version) })

	store.Update(api.DailyStats{}, nil, nil)
	store.Update(api.DailyStats{}, nil, errors.New("x"))

	assert.Equal(t, []uint64{1, 2}, got)
}
