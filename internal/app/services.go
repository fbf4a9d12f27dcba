package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/galleyhq/galley/internal/api"
	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/config"
	"github.com/galleyhq/galley/internal/dispatch"
	"github.com/galleyhq/galley/internal/notify"
	"github.com/galleyhq/galley/internal/push"
	"github.com/galleyhq/galley/internal/state"
	"github.com/galleyhq/galley/internal/stats"
	"github.com/galleyhq/galley/internal/syncer"
)

const pushBuffer = 64

// Services holds the long-running parts behind the views. Each view keeps
// its own store and sync engine; one push source feeds both engines.
type Services struct {
	Kitchen     *state.Store
	History     *state.Store
	KitchenSync *syncer.Engine
	HistorySync *syncer.Engine
	Dispatcher  *dispatch.Dispatcher
	Board       *notify.Board
	Stats       *stats.Store
	StatsPoller *stats.Poller

	fanout *push.Fanout
	log    *slog.Logger
	wg     sync.WaitGroup
}

// Deps are the outside resources Services are built from. Source may be nil
// to poll only.
type Deps struct {
	Config config.Config
	Client *api.Client
	Source push.Source
	Clock  clock.Clock
	Logger *slog.Logger
}

// NewServices wires stores, engines, the dispatcher and the stats poller.
// Nothing runs until Start.
func NewServices(deps Deps) *Services {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := deps.Config

	s := &Services{
		Kitchen: state.New(state.ActiveOnly, clk),
		History: state.New(nil, clk),
		Board:   notify.NewBoard(clk, notify.DefaultTTL),
		Stats:   stats.NewStore(clk),
		log:     logger,
	}

	var kitchenSrc, historySrc push.Source
	if deps.Source != nil {
		s.fanout = push.NewFanout(deps.Source)
		kitchenSrc = s.fanout.Subscribe(pushBuffer)
		historySrc = s.fanout.Subscribe(pushBuffer)
	}

	s.KitchenSync = syncer.New(syncer.Options{
		Fetcher:  deps.Client,
		Store:    s.Kitchen,
		Source:   kitchenSrc,
		Notifier: s.Board,
		Clock:    clk,
		Interval: cfg.Refresh.Kitchen,
		Name:     config.ViewKitchen,
		Logger:   logger.With("view", config.ViewKitchen),
	})
	s.HistorySync = syncer.New(syncer.Options{
		Fetcher:  deps.Client,
		Store:    s.History,
		Source:   historySrc,
		Notifier: s.Board,
		Clock:    clk,
		Interval: cfg.Refresh.History,
		Name:     config.ViewHistory,
		Logger:   logger.With("view", config.ViewHistory),
	})
	s.Dispatcher = dispatch.New(dispatch.Options{
		Client:    deps.Client,
		Store:     state.Multi{s.Kitchen, s.History},
		Refresher: refreshAll{s.KitchenSync, s.HistorySync},
		Notifier:  s.Board,
		Clock:     clk,
		Logger:    logger,
	})
	s.StatsPoller = stats.NewPoller(stats.Options{
		API:      deps.Client,
		Store:    s.Stats,
		Clock:    clk,
		Interval: cfg.Refresh.Stats,
		Logger:   logger,
	})
	return s
}

// Start runs every engine until ctx is cancelled. Call Wait to block until
// they have stopped.
func (s *Services) Start(ctx context.Context) {
	run := func(name string, fn func(context.Context) error) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := fn(ctx); err != nil {
				s.log.Error("service stopped", "service", name, "error", err)
			}
		}()
	}

	if s.fanout != nil {
		run("push", func(ctx context.Context) error {
			s.fanout.Run(ctx)
			return nil
		})
	}
	run("kitchen sync", s.KitchenSync.Run)
	run("history sync", s.HistorySync.Run)
	run("stats", s.StatsPoller.Run)
}

// Wait blocks until every engine started by Start has returned, then closes
// the push source.
func (s *Services) Wait() {
	s.wg.Wait()
	if s.fanout != nil {
		if err := s.fanout.Close(); err != nil {
			s.log.Warn("close push source", "error", err)
		}
	}
}

// refreshAll triggers every engine that holds a copy of the orders.
type refreshAll []dispatch.Refresher

func (r refreshAll) Trigger() {
	for _, t := range r {
		t.Trigger()
	}
}
