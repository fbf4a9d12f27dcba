package push

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind tags an Event.
type Kind int

const (
	// OrderUpdated reports that some order was created or changed.
	OrderUpdated Kind = iota + 1
	// StatusChanged reports that an order moved to another status.
	StatusChanged
	// Connected is emitted whenever a subscription is (re)established.
	Connected
	// Disconnected is emitted when an established subscription drops.
	Disconnected
	// Error is emitted when a connection attempt fails.
	Error
)

func (k Kind) String() string {
	switch k {
	case OrderUpdated:
		return "order_updated"
	case StatusChanged:
		return "status_changed"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Error:
		return "error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Event is one item of the push stream. OrderID is best effort and zero when
// the payload did not carry one; Err is set for Disconnected and Error.
type Event struct {
	Kind    Kind
	OrderID int64
	Err     error
}

// Invalidates reports whether the event means the order set changed.
func (e Event) Invalidates() bool {
	return e.Kind == OrderUpdated || e.Kind == StatusChanged
}

// Wire names of the events the backend publishes.
const (
	NameOrderUpdate   = "order_update"
	NameStatusChanged = "order_status_changed"
	NameNewOrder      = "new_order"
)

// KindForName maps a wire event name to its Kind.
func KindForName(name string) (Kind, bool) {
	switch name {
	case NameOrderUpdate, NameNewOrder:
		return OrderUpdated, true
	case NameStatusChanged:
		return StatusChanged, true
	}
	return 0, false
}

// Decode builds an Event from a wire name and body. The body is only
// inspected for an order id.
func Decode(name string, body []byte) (Event, bool) {
	kind, ok := KindForName(name)
	if !ok {
		return Event{}, false
	}
	var ref struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(body, &ref)
	return Event{Kind: kind, OrderID: ref.ID}, true
}

// Source is a subscribable push stream. After Close no further events are
// delivered; a source may also close the Events channel.
type Source interface {
	Events() <-chan Event
	Close() error
}

// Publisher sends a named event with an order payload to every subscriber.
type Publisher interface {
	Publish(ctx context.Context, name string, body []byte) error
}
