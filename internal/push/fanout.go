package push

import (
	"context"
	"sync"
)

// Fanout copies every event of one Source to several subscribers, so one
// broker connection can feed more than one sync engine.
type Fanout struct {
	src Source

	mu   sync.Mutex
	subs []*ChanSource
}

// NewFanout wraps src. Subscribe before calling Run.
func NewFanout(src Source) *Fanout {
	return &Fanout{src: src}
}

// Subscribe returns a Source that receives every event Run forwards.
func (f *Fanout) Subscribe(buffer int) *ChanSource {
	sub := NewChanSource(buffer)
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub
}

// Run forwards events until ctx is cancelled or the upstream closes its
// channel, then closes every subscriber.
func (f *Fanout) Run(ctx context.Context) {
	defer f.closeSubs()

	events := f.src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.mu.Lock()
			subs := append([]*ChanSource(nil), f.subs...)
			f.mu.Unlock()
			for _, sub := range subs {
				if err := sub.EmitContext(ctx, ev); err != nil {
					return
				}
			}
		}
	}
}

// Close closes the upstream source.
func (f *Fanout) Close() error {
	return f.src.Close()
}

func (f *Fanout) closeSubs() {
	f.mu.Lock()
	subs := f.subs
	f.mu.Unlock()
	for _, sub := range subs {
		_ = sub.Close()
	}
}
