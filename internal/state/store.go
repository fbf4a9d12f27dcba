package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/orders"
)

var (
	// ErrNotFound is returned when the store holds no order with the id.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidOrder is returned for orders the store refuses to hold.
	ErrInvalidOrder = errors.New("invalid order")
)

// Filter selects which orders a store keeps from a full snapshot. A nil
// Filter keeps everything.
type Filter func(orders.Order) bool

// ActiveOnly keeps orders the kitchen still works on.
func ActiveOnly(o orders.Order) bool { return o.Status.Active() }

// Health describes how the last refreshes went.
type Health struct {
	LastSynced          time.Time // last successful ReplaceAll
	LastAttempt         time.Time
	LastError           error
	ConsecutiveFailures int
}

// Offline returns true when the server has been unreachable for multiple
// refreshes in a row.
func (h Health) Offline() bool {
	return h.ConsecutiveFailures >= 2
}

// Synced reports whether at least one snapshot has been applied.
func (h Health) Synced() bool { return !h.LastSynced.IsZero() }

// Snapshot is a consistent copy of the store at one version.
type Snapshot struct {
	Orders  []orders.Order
	Health  Health
	Version uint64
}

// Count returns the number of orders in status s.
func (s Snapshot) Count(status orders.Status) int {
	n := 0
	for _, o := range s.Orders {
		if o.Status == status {
			n++
		}
	}
	return n
}

// ReplaceResult reports what ReplaceAll did with a snapshot.
type ReplaceResult struct {
	Kept     int
	Filtered int
	Rejected int
}

// Store is the in-memory order set shared by the sync engine, the command
// dispatcher and the views. The zero value keeps every order and uses the
// wall clock.
type Store struct {
	filter Filter
	clock  clock.Clock

	mu       sync.RWMutex
	ids      []int64
	byID     map[int64]orders.Order
	feedback map[int64]orders.Feedback
	health   Health
	version  uint64

	lmu       sync.Mutex
	listeners map[int]func(Snapshot)
	nextID    int
}

// New returns a store that keeps only orders accepted by filter.
func New(filter Filter, clk clock.Clock) *Store {
	return &Store{filter: filter, clock: clk}
}

func (s *Store) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// ReplaceAll installs a full server snapshot. Readers see either the old set
// or the new one, never a mix. Invalid orders are dropped and counted.
// Feedback already known for an order survives a snapshot that omits it,
// and is forgotten once the order leaves the snapshot.
func (s *Store) ReplaceAll(list []orders.Order) ReplaceResult {
	var res ReplaceResult

	ids := make([]int64, 0, len(list))
	byID := make(map[int64]orders.Order, len(list))
	seen := make(map[int64]struct{}, len(list))

	s.mu.Lock()
	for _, o := range list {
		seen[o.ID] = struct{}{}
		if err := o.Validate(); err != nil {
			res.Rejected++
			continue
		}
		if s.filter != nil && !s.filter(o) {
			res.Filtered++
			continue
		}
		o = o.Clone()
		s.applyStickyFeedback(&o)
		if _, dup := byID[o.ID]; !dup {
			ids = append(ids, o.ID)
		}
		byID[o.ID] = o
	}
	res.Kept = len(ids)

	for id := range s.feedback {
		if _, ok := seen[id]; !ok {
			delete(s.feedback, id)
		}
	}
	s.ids = ids
	s.byID = byID
	now := s.now()
	s.health = Health{LastSynced: now, LastAttempt: now}
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return res
}

// applyStickyFeedback must be called with mu held.
func (s *Store) applyStickyFeedback(o *orders.Order) {
	if o.Feedback != nil {
		if s.feedback == nil {
			s.feedback = make(map[int64]orders.Feedback)
		}
		s.feedback[o.ID] = *o.Feedback
		return
	}
	if fb, ok := s.feedback[o.ID]; ok {
		o.Feedback = &fb
	}
}

// Upsert merges a single order by id, overwriting all fields. An order whose
// status is earlier in the lifecycle than the one already held is stale and
// is ignored; Upsert then reports false.
func (s *Store) Upsert(o orders.Order) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	o = o.Clone()

	s.mu.Lock()
	if current, ok := s.byID[o.ID]; ok && o.Status.Before(current.Status) {
		s.mu.Unlock()
		return false, nil
	}
	if s.byID == nil {
		s.byID = make(map[int64]orders.Order)
	}
	if _, ok := s.byID[o.ID]; !ok {
		s.ids = append(s.ids, o.ID)
	}
	s.applyStickyFeedback(&o)
	s.byID[o.ID] = o
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true, nil
}

// AttachFeedback records feedback the server accepted for an order. The
// feedback stays attached until a snapshot carries a different one.
func (s *Store) AttachFeedback(id int64, fb orders.Feedback) error {
	s.mu.Lock()
	if s.feedback == nil {
		s.feedback = make(map[int64]orders.Feedback)
	}
	s.feedback[id] = fb
	o, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("attach feedback to order %d: %w", id, ErrNotFound)
	}
	o.Feedback = &fb
	s.byID[id] = o
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// RecordFailure notes a failed refresh. Held orders are kept as they are.
func (s *Store) RecordFailure(err error) {
	s.mu.Lock()
	s.health.LastError = err
	s.health.LastAttempt = s.now()
	s.health.ConsecutiveFailures++
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Get returns the order with id, or ErrNotFound.
func (s *Store) Get(id int64) (orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return orders.Order{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	return o.Clone(), nil
}

// All returns every held order in snapshot order.
func (s *Store) All() []orders.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(nil)
}

// ByStatus returns the held orders in status, oldest first.
func (s *Store) ByStatus(status orders.Status) []orders.Order {
	s.mu.RLock()
	list := s.collectLocked(func(o orders.Order) bool { return o.Status == status })
	s.mu.RUnlock()

	orders.SortByOldest(list)
	return list
}

// Health returns the current sync health.
func (s *Store) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// Snapshot returns a copy of the whole store at one version.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Orders:  s.collectLocked(nil),
		Health:  s.health,
		Version: s.version,
	}
}

func (s *Store) collectLocked(keep Filter) []orders.Order {
	out := make([]orders.Order, 0, len(s.ids))
	for _, id := range s.ids {
		o := s.byID[id]
		if keep != nil && !keep(o) {
			continue
		}
		out = append(out, o.Clone())
	}
	return out
}

// OnChange registers listener to receive a snapshot after every mutation.
// Listeners run on the writer's goroutine and must not block. The returned
// func unregisters the listener.
func (s *Store) OnChange(listener func(Snapshot)) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	if s.listeners == nil {
		s.listeners = make(map[int]func(Snapshot))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.lmu.Lock()
	keys := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		keys = append(keys, id)
	}
	sort.Ints(keys)
	fns := make([]func(Snapshot), 0, len(keys))
	for _, id := range keys {
		fns = append(fns, s.listeners[id])
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
