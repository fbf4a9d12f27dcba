// Package clock lets time-driven components (the sync engine's refresh timer,
// notice expiry) run against a fake clock in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock is the subset of the time package galley depends on.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers ticks on C. C has capacity 1; slow consumers miss ticks
// rather than queueing them, as with time.Ticker.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, stop: t.Stop}
}

// Fake is a Clock that only moves when Advance is called.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	changed *sync.Cond
}

type fakeTicker struct {
	next     time.Time
	interval time.Duration
	ch       chan time.Time
	stopped  bool
}

// NewFake returns a fake clock set to start.
func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.changed = sync.NewCond(&f.mu)
	return f
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewTicker registers a ticker that fires as Advance crosses its deadlines.
func (f *Fake) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ft := &fakeTicker{next: f.now.Add(d), interval: d, ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, ft)
	f.changed.Broadcast()
	return &Ticker{C: ft.ch, stop: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		ft.stopped = true
		f.changed.Broadcast()
	}}
}

// Advance moves the clock forward, firing every ticker deadline crossed on
// the way in deadline order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := f.now.Add(d)
	for {
		due := f.dueTickers(target)
		if len(due) == 0 {
			break
		}
		ft := due[0]
		f.now = ft.next
		select {
		case ft.ch <- ft.next:
		default:
		}
		ft.next = ft.next.Add(ft.interval)
	}
	f.now = target
}

func (f *Fake) dueTickers(target time.Time) []*fakeTicker {
	var due []*fakeTicker
	for _, ft := range f.tickers {
		if !ft.stopped && !ft.next.After(target) {
			due = append(due, ft)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].next.Before(due[j].next) })
	return due
}

// WaitForTickers blocks until at least n tickers are running. Tests call it
// before Advance so a goroutine's ticker exists before time moves.
func (f *Fake) WaitForTickers(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.activeTickers() < n {
		f.changed.Wait()
	}
}

func (f *Fake) activeTickers() int {
	count := 0
	for _, ft := range f.tickers {
		if !ft.stopped {
			count++
		}
	}
	return count
}
