package orders

// Status is the wire value of an order's lifecycle state. Values outside the
// four known statuses are preserved verbatim for display.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
)

// Lifecycle lists the known statuses in transition order.
var Lifecycle = []Status{StatusPending, StatusPreparing, StatusReady, StatusCompleted}

// Group is the display bucket for a status.
type Group int

const (
	GroupUnknown Group = iota
	GroupPending
	GroupPreparing
	GroupReady
	GroupCompleted
)

func (g Group) String() string {
	switch g {
	case GroupPending:
		return "pending"
	case GroupPreparing:
		return "preparing"
	case GroupReady:
		return "ready"
	case GroupCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Known reports whether s is one of the four lifecycle statuses.
func (s Status) Known() bool {
	_, ok := s.Rank()
	return ok
}

// Rank returns the position of s in the lifecycle.
func (s Status) Rank() (int, bool) {
	switch s {
	case StatusPending:
		return 0, true
	case StatusPreparing:
		return 1, true
	case StatusReady:
		return 2, true
	case StatusCompleted:
		return 3, true
	}
	return -1, false
}

// Group returns the display bucket for s.
func (s Status) Group() Group {
	switch s {
	case StatusPending:
		return GroupPending
	case StatusPreparing:
		return GroupPreparing
	case StatusReady:
		return GroupReady
	case StatusCompleted:
		return GroupCompleted
	}
	return GroupUnknown
}

// Next returns the single status the primary action advances to. Completed
// and unknown statuses offer no action.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPending:
		return StatusPreparing, true
	case StatusPreparing:
		return StatusReady, true
	case StatusReady:
		return StatusCompleted, true
	}
	return "", false
}

// Before reports whether s precedes other in the lifecycle. Unknown statuses
// are never ordered.
func (s Status) Before(other Status) bool {
	a, okA := s.Rank()
	b, okB := other.Rank()
	return okA && okB && a < b
}

// Active reports whether the kitchen still works on orders in this status.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady:
		return true
	}
	return false
}

// Label is the display text for s. Unknown statuses display verbatim.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPreparing:
		return "Preparing"
	case StatusReady:
		return "Ready"
	case StatusCompleted:
		return "Completed"
	}
	return string(s)
}

// ActionLabel is the text of the button that advances an order out of s.
// It is empty when s offers no action.
func (s Status) ActionLabel() string {
	switch s {
	case StatusPending:
		return "Start preparing"
	case StatusPreparing:
		return "Mark ready"
	case StatusReady:
		return "Complete"
	}
	return ""
}
