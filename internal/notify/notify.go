// Package notify keeps the transient notices shown at the bottom of the
// screen: command results and connectivity warnings. Notices expire on their
// own; keyed notices replace each other instead of stacking.
package notify

import (
	"sync"
	"time"

	"github.com/galleyhq/galley/internal/clock"
)

// DefaultTTL is how long a notice stays visible.
const DefaultTTL = 3 * time.Second

// Level is the severity of a notice.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Notice is one message on the board.
type Notice struct {
	ID      uint64
	Key     string
	Level   Level
	Message string
	Posted  time.Time
	Expires time.Time
}

// Board holds the active notices. It is safe for concurrent use.
type Board struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	notices []Notice
	nextID  uint64

	lmu       sync.Mutex
	listeners map[int]func()
	nextL     int
}

// NewBoard returns an empty board. ttl <= 0 uses DefaultTTL.
func NewBoard(clk clock.Clock, ttl time.Duration) *Board {
	if clk == nil {
		clk = clock.Real()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{clock: clk, ttl: ttl}
}

// Post adds an unkeyed notice.
func (b *Board) Post(level Level, message string) Notice {
	return b.Raise("", level, message)
}

// Raise adds a notice under key, replacing any active notice with the same
// key and restarting its expiry. An empty key never replaces anything.
func (b *Board) Raise(key string, level Level, message string) Notice {
	now := b.clock.Now()

	b.mu.Lock()
	b.nextID++
	n := Notice{
		ID:      b.nextID,
		Key:     key,
		Level:   level,
		Message: message,
		Posted:  now,
		Expires: now.Add(b.ttl),
	}
	kept := b.notices[:0]
	for _, existing := range b.notices {
		if key != "" && existing.Key == key {
			continue
		}
		if !existing.Expires.After(now) {
			continue
		}
		kept = append(kept, existing)
	}
	b.notices = append(kept, n)
	b.mu.Unlock()

	b.notify()
	return n
}

// Clear removes the notice under key, if any.
func (b *Board) Clear(key string) {
	if key == "" {
		return
	}
	b.remove(func(n Notice) bool { return n.Key == key })
}

// Dismiss removes the notice with id.
func (b *Board) Dismiss(id uint64) {
	b.remove(func(n Notice) bool { return n.ID == id })
}

func (b *Board) remove(match func(Notice) bool) {
	b.mu.Lock()
	kept := b.notices[:0]
	removed := false
	for _, n := range b.notices {
		if match(n) {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	b.notices = kept
	b.mu.Unlock()

	if removed {
		b.notify()
	}
}

// Active returns the unexpired notices, oldest first.
func (b *Board) Active() []Notice {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notice, 0, len(b.notices))
	for _, n := range b.notices {
		if n.Expires.After(now) {
			out = append(out, n)
		}
	}
	return out
}

// Latest returns the newest unexpired notice.
func (b *Board) Latest() (Notice, bool) {
	active := b.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}

// OnChange registers fn to run after notices are added or removed. Expiry
// does not trigger it; readers poll Active on their own tick.
func (b *Board) OnChange(fn func()) func() {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[int]func())
	}
	id := b.nextL
	b.nextL++
	b.listeners[id] = fn
	return func() {
		b.lmu.Lock()
		defer b.lmu.Unlock()
		delete(b.listeners, id)
	}
}

func (b *Board) notify() {
	b.lmu.Lock()
	fns := make([]func(), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
