// Package stats keeps the dashboard's daily and weekly figures fresh.
//
// The server computes every number; this package only fetches them on a
// slow timer (five minutes by default), keeps the last good copy when a
// fetch fails, and asks the server to rebuild its aggregates on demand.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/galleyhq/galley/internal/api"
	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/state"
)

// DefaultInterval is the dashboard refresh cadence.
const DefaultInterval = 5 * time.Minute

// Snapshot is a copy of the dashboard data.
type Snapshot struct {
	Daily   api.DailyStats
	Weekly  []api.DailyStats
	Health  state.Health
	Version uint64
}

// Loaded reports whether any figures have arrived yet.
func (s Snapshot) Loaded() bool { return s.Health.Synced() }

// Store holds the latest dashboard figures.
type Store struct {
	mu       sync.RWMutex
	clock    clock.Clock
	snap     Snapshot
	listener func(Snapshot)
}

// NewStore returns an empty store.
func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{clock: clk}
}

// Update replaces the figures, or records err and keeps them.
func (s *Store) Update(daily api.DailyStats, weekly []api.DailyStats, err error) {
	s.mu.Lock()
	now := s.clock.Now()
	s.snap.Health.LastAttempt = now
	if err != nil {
		s.snap.Health.LastError = err
		s.snap.Health.ConsecutiveFailures++
	} else {
		api.SortByDate(weekly)
		s.snap.Daily = daily
		s.snap.Weekly = weekly
		s.snap.Health.LastSynced = now
		s.snap.Health.LastError = nil
		s.snap.Health.ConsecutiveFailures = 0
	}
	s.snap.Version++
	snap := s.copyLocked()
	fn := s.listener
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}

// Snapshot returns a copy of the current figures.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// OnChange sets the single listener called after every Update.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

func (s *Store) copyLocked() Snapshot {
	out := s.snap
	out.Weekly = append([]api.DailyStats(nil), s.snap.Weekly...)
	return out
}

// Options configure a Poller. API and Store are required.
type Options struct {
	API      api.StatsAPI
	Store    *Store
	Clock    clock.Clock
	Interval time.Duration
	Logger   *slog.Logger
}

// Poller refreshes a Store on a timer and on request.
type Poller struct {
	api      api.StatsAPI
	store    *Store
	clock    clock.Clock
	interval time.Duration
	log      *slog.Logger
	trigger  chan struct{}
}

// NewPoller builds a Poller. Call Run to start it.
func NewPoller(opts Options) *Poller {
	p := &Poller{
		api:      opts.API,
		store:    opts.Store,
		clock:    opts.Clock,
		interval: opts.Interval,
		log:      opts.Logger,
		trigger:  make(chan struct{}, 1),
	}
	if p.clock == nil {
		p.clock = clock.Real()
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}
	p.log = p.log.With("component", "stats")
	return p
}

// Trigger asks for a refresh. Requests made while one runs collapse into one.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes immediately and then on every tick or trigger until ctx is
// cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		_ = p.Refresh(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.trigger:
		}
	}
}

// Refresh fetches both daily and weekly figures. Either failing keeps the
// previous figures.
func (p *Poller) Refresh(ctx context.Context) error {
	daily, err := p.api.FetchDailyStats(ctx)
	if err != nil {
		return p.fail(ctx, fmt.Errorf("daily stats: %w", err))
	}
	weekly, err := p.api.FetchWeeklyStats(ctx)
	if err != nil {
		return p.fail(ctx, fmt.Errorf("weekly stats: %w", err))
	}
	p.store.Update(daily, weekly, nil)
	p.log.Debug("stats refreshed", "orders_today", daily.OrderCount, "days", len(weekly))
	return nil
}

func (p *Poller) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	p.log.Warn("stats refresh failed", "error", err)
	p.store.Update(api.DailyStats{}, nil, err)
	return err
}

// Regenerate asks the server to rebuild today's aggregates and then
// schedules a refresh.
func (p *Poller) Regenerate(ctx context.Context) error {
	if err := p.api.RegenerateStats(ctx); err != nil {
		p.log.Warn("stats regenerate failed", "error", err)
		return fmt.Errorf("regenerate stats: %w", err)
	}
	p.log.Info("stats regenerated")
	p.Trigger()
	return nil
}
