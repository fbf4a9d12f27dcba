package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/orders"
)

func order(id int64, status orders.Status) orders.Order {
	return orders.Order{
		ID:           id,
		CustomerName: "guest",
		Status:       status,
		CreatedAt:    "2025-03-01T12:00:00",
		Items:        []orders.Item{{ID: id, ProductName: "Burger", Quantity: 1}},
	}
}

func TestStore_ReplaceAllFiltersAndRejects(t *testing.T) {
	s := New(ActiveOnly, nil)

	res := s.ReplaceAll([]orders.Order{
		order(1, orders.StatusPending),
		order(2, orders.StatusCompleted),
		{ID: 3, Status: orders.StatusReady},
		order(4, orders.StatusReady),
	})

	assert.Equal(t, ReplaceResult{Kept: 2, Filtered: 1, Rejected: 1}, res)
	assert.Len(t, s.All(), 2)
	assert.True(t, s.Health().Synced())
}

func TestStore_ReplaceAllEvictsMissingOrders(t *testing.T) {
	var s Store
	s.ReplaceAll([]orders.Order{order(1, orders.StatusPending), order(2, orders.StatusPending)})
	s.ReplaceAll([]orders.Order{order(2, orders.StatusPreparing)})

	_, err := s.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPreparing, got.Status)
}

func TestStore_ReplaceAllIsIdempotent(t *testing.T) {
	var s Store
	snapshot := []orders.Order{
		order(1, orders.StatusPending),
		order(2, orders.StatusReady),
		order(3, orders.StatusPending),
	}

	s.ReplaceAll(snapshot)
	first := map[orders.Status][]orders.Order{}
	for _, st := range orders.Lifecycle {
		first[st] = s.ByStatus(st)
	}

	s.ReplaceAll(snapshot)
	for _, st := range orders.Lifecycle {
		assert.Equal(t, first[st], s.ByStatus(st), "status %s", st)
	}
}

func TestStore_ReadersNeverSeeMixedSnapshots(t *testing.T) {
	var s Store
	a := []orders.Order{order(1, orders.StatusPending), order(2, orders.StatusPending)}
	b := []orders.Order{order(3, orders.StatusReady), order(4, orders.StatusReady), order(5, orders.StatusReady)}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				s.ReplaceAll(a)
			} else {
				s.ReplaceAll(b)
			}
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		snap := s.Snapshot()
		if len(snap.Orders) == 0 {
			continue
		}
		want := snap.Orders[0].Status
		for _, o := range snap.Orders {
			if o.Status != want {
				t.Fatalf("mixed snapshot at version %d: %+v", snap.Version, snap.Orders)
			}
		}
		if n := len(snap.Orders); n != 2 && n != 3 {
			t.Fatalf("len(snapshot) = %d, want 2 or 3", n)
		}
	}
}

func TestStore_UpsertNeverRegressesStatus(t *testing.T) {
	var s Store
	s.ReplaceAll([]orders.Order{order(1, orders.StatusReady)})

	applied, err := s.Upsert(order(1, orders.StatusPreparing))
	require.NoError(t, err)
	assert.False(t, applied)

	got, _ := s.Get(1)
	assert.Equal(t, orders.StatusReady, got.Status)

	applied, err = s.Upsert(order(1, orders.StatusCompleted))
	require.NoError(t, err)
	assert.True(t, applied)
	got, _ = s.Get(1)
	assert.Equal(t, orders.StatusCompleted, got.Status)
}

func TestStore_UpsertInsertsAndValidates(t *testing.T) {
	var s Store

	_, err := s.Upsert(orders.Order{ID: 9})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	applied, err := s.Upsert(order(9, orders.StatusPending))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Len(t, s.All(), 1)
}

func TestStore_UnknownStatusIsPreserved(t *testing.T) {
	var s Store
	s.ReplaceAll([]orders.Order{order(1, "cancelled")})

	got, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, orders.Status("cancelled"), got.Status)

	applied, err := s.Upsert(order(1, orders.StatusPending))
	require.NoError(t, err)
	assert.True(t, applied, "unknown statuses are not ordered")
}

func TestStore_FeedbackIsSticky(t *testing.T) {
	var s Store
	s.ReplaceAll([]orders.Order{order(5, orders.StatusCompleted)})

	got, _ := s.Get(5)
	assert.True(t, got.FeedbackEligible())

	require.NoError(t, s.AttachFeedback(5, orders.Feedback{Rating: 4, Comment: "good"}))

	s.ReplaceAll([]orders.Order{order(5, orders.StatusCompleted)})
	got, _ = s.Get(5)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, 4, got.Feedback.Rating)
	assert.False(t, got.FeedbackEligible())

	withServer := order(5, orders.StatusCompleted)
	withServer.Feedback = &orders.Feedback{Rating: 2}
	s.ReplaceAll([]orders.Order{withServer})
	got, _ = s.Get(5)
	assert.Equal(t, 2, got.Feedback.Rating, "non-null server feedback overwrites")

	assert.ErrorIs(t, s.AttachFeedback(99, orders.Feedback{Rating: 1}), ErrNotFound)
}

func TestStore_FeedbackForgottenWhenOrderLeaves(t *testing.T) {
	var s Store
	s.ReplaceAll([]orders.Order{order(5, orders.StatusCompleted), order(6, orders.StatusCompleted)})
	require.NoError(t, s.AttachFeedback(5, orders.Feedback{Rating: 5}))
	require.NoError(t, s.AttachFeedback(6, orders.Feedback{Rating: 3}))

	s.ReplaceAll([]orders.Order{order(6, orders.StatusCompleted)})
	assert.NotContains(t, s.feedback, int64(5))
	assert.Contains(t, s.feedback, int64(6))

	// An id the server brings back starts without the old rating.
	s.ReplaceAll([]orders.Order{order(5, orders.StatusCompleted), order(6, orders.StatusCompleted)})
	got, err := s.Get(5)
	require.NoError(t, err)
	assert.True(t, got.FeedbackEligible())
	got, err = s.Get(6)
	require.NoError(t, err)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, 3, got.Feedback.Rating)
}

func TestStore_FilteredOrdersKeepFeedback(t *testing.T) {
	s := New(ActiveOnly, nil)
	s.ReplaceAll([]orders.Order{order(7, orders.StatusReady)})
	require.NoError(t, s.AttachFeedback(7, orders.Feedback{Rating: 4}))

	s.ReplaceAll([]orders.Order{order(7, orders.StatusCompleted)})
	assert.Contains(t, s.feedback, int64(7), "still in the server snapshot")
}

func TestStore_RecordFailureKeepsOrders(t *testing.T) {
	fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	s := New(nil, fake)
	s.ReplaceAll([]orders.Order{order(1, orders.StatusPending)})

	fake.Advance(10 * time.Second)
	s.RecordFailure(errors.New("connection refused"))
	h := s.Health()
	assert.Equal(t, 1, h.ConsecutiveFailures)
	assert.False(t, h.Offline())
	assert.EqualError(t, h.LastError, "connection refused")
	assert.True(t, h.LastAttempt.After(h.LastSynced))

	s.RecordFailure(errors.New("connection refused"))
	assert.True(t, s.Health().Offline())
	assert.Len(t, s.All(), 1)

	s.ReplaceAll([]orders.Order{order(1, orders.StatusPending)})
	assert.Zero(t, s.Health().ConsecutiveFailures)
	assert.NoError(t, s.Health().LastError)
}

func TestStore_GetReturnsCopies(t *testing.T) {
	var s Store
	s.ReplaceAll([]orders.Order{order(1, orders.StatusPending)})

	got, _ := s.Get(1)
	got.Items[0].Quantity = 42

	again, _ := s.Get(1)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestStore_ByStatusOldestFirst(t *testing.T) {
	var s Store
	late := order(1, orders.StatusPending)
	late.CreatedAt = "2025-03-01T13:00:00"
	early := order(2, orders.StatusPending)
	early.CreatedAt = "2025-03-01T11:00:00"
	s.ReplaceAll([]orders.Order{late, early, order(3, orders.StatusReady)})

	pending := s.ByStatus(orders.StatusPending)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(2), pending[0].ID)
	assert.Empty(t, s.ByStatus(orders.StatusCompleted))
}

func TestStore_OnChange(t *testing.T) {
	var s Store
	var versions []uint64
	unsubscribe := s.OnChange(func(snap Snapshot) { versions = append(versions, snap.Version) })

	s.ReplaceAll([]orders.Order{order(1, orders.StatusPending)})
	_, _ = s.Upsert(order(1, orders.StatusPreparing))
	unsubscribe()
	s.ReplaceAll(nil)

	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestSnapshot_CountOnEmpty(t *testing.T) {
	var s Store
	s.ReplaceAll([]orders.Order{})
	snap := s.Snapshot()
	for _, st := range []orders.Status{orders.StatusPending, orders.StatusPreparing, orders.StatusReady} {
		assert.Zero(t, snap.Count(st))
	}
	assert.True(t, snap.Health.Synced())
}
