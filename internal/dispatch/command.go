package dispatch

import (
	"fmt"
	"time"

	"github.com/galleyhq/galley/internal/orders"
)

// Phase is the state of one command.
//
//	Idle ──begin──→ Pending ──ok──→ Succeeded
//	                   │
//	                   └──err──→ Failed
//
// Succeeded and Failed behave like Idle for the next attempt.
type Phase int

const (
	Idle Phase = iota
	Pending
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "idle"
}

// Action identifies the kind of command.
type Action int

const (
	ActionAdvance Action = iota + 1
	ActionCreate
	ActionFeedback
)

// Key identifies one command slot. Advance and feedback are tracked per
// order; there is a single create slot.
type Key struct {
	Action  Action
	OrderID int64
}

// AdvanceKey is the slot of the advance action for order id.
func AdvanceKey(id int64) Key { return Key{Action: ActionAdvance, OrderID: id} }

// FeedbackKey is the slot of the feedback action for order id.
func FeedbackKey(id int64) Key { return Key{Action: ActionFeedback, OrderID: id} }

// CreateKey is the slot of order creation.
func CreateKey() Key { return Key{Action: ActionCreate} }

func (k Key) String() string {
	switch k.Action {
	case ActionAdvance:
		return fmt.Sprintf("advance/%d", k.OrderID)
	case ActionFeedback:
		return fmt.Sprintf("feedback/%d", k.OrderID)
	case ActionCreate:
		return "create"
	}
	return "unknown"
}

// CommandState is the last known state of a command slot.
type CommandState struct {
	Phase     Phase
	Target    orders.Status // advance target; pending for create
	RequestID string
	Err       error
	Updated   time.Time
}

// Enabled reports whether the action may be triggered.
func (s CommandState) Enabled() bool { return s.Phase != Pending }
