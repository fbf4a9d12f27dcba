package push

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to a closed hub.
var ErrClosed = errors.New("push: closed")

// Hub is an in-process Publisher whose subscribers are Sources. It stands in
// for the broker when galley-mock runs without one and in tests.
type Hub struct {
	mu     sync.Mutex
	subs   map[*ChanSource]struct{}
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*ChanSource]struct{})}
}

// Subscribe returns a Source that receives every later publication. Its
// first event is Connected.
func (h *Hub) Subscribe(buffer int) *ChanSource {
	src := NewChanSource(buffer)
	src.onClose = func() { h.remove(src) }

	h.mu.Lock()
	closed := h.closed
	if !closed {
		h.subs[src] = struct{}{}
	}
	h.mu.Unlock()

	if closed {
		_ = src.Close()
		return src
	}
	src.Emit(Event{Kind: Connected})
	return src
}

func (h *Hub) remove(src *ChanSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, src)
}

func (h *Hub) snapshot() []*ChanSource {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*ChanSource, 0, len(h.subs))
	for src := range h.subs {
		out = append(out, src)
	}
	return out
}

// Publish delivers a named event to every subscriber. Unknown names are
// dropped the same way a subscriber of the broker drops them.
func (h *Hub) Publish(ctx context.Context, name string, body []byte) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}

	ev, ok := Decode(name, body)
	if !ok {
		return nil
	}
	for _, src := range h.snapshot() {
		if err := src.EmitContext(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Drop simulates a lost connection: every subscriber receives Disconnected
// with err.
func (h *Hub) Drop(err error) {
	for _, src := range h.snapshot() {
		src.Emit(Event{Kind: Disconnected, Err: err})
	}
}

// Restore simulates a reconnect: every subscriber receives Connected.
func (h *Hub) Restore() {
	for _, src := range h.snapshot() {
		src.Emit(Event{Kind: Connected})
	}
}

// Close closes the hub and all subscribers.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, src := range h.snapshot() {
		_ = src.Close()
	}
	return nil
}

// ChanSource is a Source fed by Emit.
type ChanSource struct {
	events  chan Event
	done    chan struct{}
	once    sync.Once
	onClose func()
}

var _ Source = (*ChanSource)(nil)

// NewChanSource returns a source with the given channel buffer.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Events implements Source.
func (s *ChanSource) Events() <-chan Event { return s.events }

// Emit delivers ev, blocking until it is received, buffered, or the source
// is closed.
func (s *ChanSource) Emit(ev Event) {
	_ = s.EmitContext(context.Background(), ev)
}

// EmitContext is Emit bounded by ctx.
func (s *ChanSource) EmitContext(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return nil
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Source. It is safe to call more than once.
func (s *ChanSource) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.onClose != nil {
			s.onClose()
		}
	})
	return nil
}
