package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/notify"
	"github.com/galleyhq/galley/internal/orders"
	"github.com/galleyhq/galley/internal/push"
	"github.com/galleyhq/galley/internal/state"
)

// WarningKey prefixes the notice key used for connectivity warnings. Named
// engines append their name so they do not clear each other's warnings.
const WarningKey = "sync"

// Refresh policy per view.
const (
	KitchenInterval = 10 * time.Second
	HistoryInterval = 30 * time.Second
)

// Fetcher loads the full order snapshot.
type Fetcher interface {
	FetchOrders(ctx context.Context) ([]orders.Order, error)
}

// Notifier shows connectivity warnings.
type Notifier interface {
	Raise(key string, level notify.Level, message string) notify.Notice
	Clear(key string)
}

// Options configure an Engine. Fetcher and Store are required.
type Options struct {
	Fetcher  Fetcher
	Store    *state.Store
	Source   push.Source // nil polls only
	Notifier Notifier
	Clock    clock.Clock
	Interval time.Duration // zero uses KitchenInterval
	Logger   *slog.Logger
	Name     string // scopes the warning key; empty uses WarningKey
}

// Engine keeps a Store eventually consistent with the server. Timer ticks,
// push events, reconnects and Trigger calls all lead to the same full
// refetch; at most one runs at a time and stimuli that arrive meanwhile
// collapse into a single follow-up.
type Engine struct {
	fetcher  Fetcher
	store    *state.Store
	source   push.Source
	notifier Notifier
	clock    clock.Clock
	interval time.Duration
	log      *slog.Logger
	warnKey  string

	trigger chan struct{}
	live    atomic.Bool
	fetches atomic.Int64
}

// New builds an Engine. Call Run to start it.
func New(opts Options) *Engine {
	e := &Engine{
		fetcher:  opts.Fetcher,
		store:    opts.Store,
		source:   opts.Source,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		interval: opts.Interval,
		log:      opts.Logger,
		warnKey:  WarningKey,
		trigger:  make(chan struct{}, 1),
	}
	if opts.Name != "" {
		e.warnKey = WarningKey + "/" + opts.Name
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	if e.interval <= 0 {
		e.interval = KitchenInterval
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	e.log = e.log.With("component", "syncer")
	return e
}

// Trigger requests a refetch. It never blocks.
func (e *Engine) Trigger() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Live reports whether the push channel is currently connected.
func (e *Engine) Live() bool { return e.live.Load() }

// Fetches returns how many refetches have been started.
func (e *Engine) Fetches() int64 { return e.fetches.Load() }

// WarningKey returns the key this engine raises connectivity warnings under.
func (e *Engine) WarningKey() string { return e.warnKey }

// Interval returns the timer cadence.
func (e *Engine) Interval() time.Duration { return e.interval }

type fetchResult struct {
	list   []orders.Order
	err    error
	reason string
}

// Run fetches immediately and then serves stimuli until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	var events <-chan push.Event
	if e.source != nil {
		events = e.source.Events()
	}

	results := make(chan fetchResult, 1)
	inflight := false
	pending := false

	start := func(reason string) {
		if inflight {
			pending = true
			e.log.Debug("refetch coalesced", "reason", reason)
			return
		}
		inflight = true
		e.fetches.Add(1)
		go func() {
			list, err := e.fetcher.FetchOrders(ctx)
			results <- fetchResult{list: list, err: err, reason: reason}
		}()
	}

	start("startup")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start("timer")
		case <-e.trigger:
			start("trigger")
		case ev, ok := <-events:
			if !ok {
				events = nil
				e.live.Store(false)
				continue
			}
			if e.handleEvent(ev) {
				start(ev.Kind.String())
			}
		case res := <-results:
			inflight = false
			if ctx.Err() != nil {
				return nil
			}
			e.apply(res)
			if pending {
				pending = false
				start("coalesced")
			}
		}
	}
}

// handleEvent reports whether ev calls for a refetch.
func (e *Engine) handleEvent(ev push.Event) bool {
	switch ev.Kind {
	case push.OrderUpdated, push.StatusChanged:
		e.log.Debug("push invalidation", "kind", ev.Kind.String(), "order_id", ev.OrderID)
		return true
	case push.Connected:
		e.live.Store(true)
		e.log.Info("push connected")
		return true
	case push.Disconnected:
		e.live.Store(false)
		e.log.Warn("push disconnected", "error", ev.Err)
		e.warn("Live updates lost; reconnecting")
	case push.Error:
		e.live.Store(false)
		e.log.Warn("push error", "error", ev.Err)
		e.warn(fmt.Sprintf("Live updates unavailable: %v", ev.Err))
	default:
		e.log.Debug("ignoring push event", "kind", ev.Kind.String())
	}
	return false
}

// apply settles notices before touching the store so store listeners see
// both.
func (e *Engine) apply(res fetchResult) {
	if res.err != nil {
		e.log.Warn("order refetch failed", "reason", res.reason, "error", res.err)
		e.warn("Cannot reach the server; showing last known orders")
		e.store.RecordFailure(res.err)
		return
	}
	if e.notifier != nil {
		e.notifier.Clear(e.warnKey)
	}
	out := e.store.ReplaceAll(res.list)
	if out.Rejected > 0 {
		e.log.Warn("dropped invalid orders from snapshot", "rejected", out.Rejected)
	}
	e.log.Debug("orders refreshed",
		"reason", res.reason,
		"kept", out.Kept,
		"filtered", out.Filtered,
	)
}

func (e *Engine) warn(message string) {
	if e.notifier != nil {
		e.notifier.Raise(e.warnKey, notify.Warning, message)
	}
}
