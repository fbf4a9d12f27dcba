package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/galleyhq/galley/internal/api"
	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/notify"
	"github.com/galleyhq/galley/internal/orders"
	"github.com/galleyhq/galley/internal/state"
)

var (
	// ErrInFlight is returned when the same command is already pending.
	ErrInFlight = errors.New("command already in flight")
	// ErrNoTransition is returned for orders whose status offers no action.
	ErrNoTransition = errors.New("no status transition available")
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Client is the part of the REST API commands use.
type Client interface {
	UpdateStatus(ctx context.Context, id int64, status orders.Status) (orders.Order, error)
	CreateOrder(ctx context.Context, req orders.NewOrder) (orders.Order, error)
	SubmitFeedback(ctx context.Context, id int64, fb orders.Feedback) error
}

// Store is where command results land. *state.Store and state.Multi
// satisfy it.
type Store interface {
	Get(id int64) (orders.Order, error)
	Upsert(o orders.Order) (bool, error)
	AttachFeedback(id int64, fb orders.Feedback) error
}

// Refresher schedules a confirmatory refetch.
type Refresher interface {
	Trigger()
}

// Notifier surfaces command outcomes.
type Notifier interface {
	Post(level notify.Level, message string) notify.Notice
}

// Options configure a Dispatcher. Client and Store are required.
type Options struct {
	Client    Client
	Store     Store
	Refresher Refresher
	Notifier  Notifier
	Clock     clock.Clock
	Logger    *slog.Logger
	NewID     func() string // request ids; defaults to uuid v4
}

// Dispatcher turns user actions into server commands and tracks each
// command's state so views can disable the action while it is pending.
type Dispatcher struct {
	client    Client
	store     Store
	refresher Refresher
	notifier  Notifier
	clock     clock.Clock
	log       *slog.Logger
	newID     func() string

	mu       sync.Mutex
	commands map[Key]CommandState

	lmu       sync.Mutex
	listeners map[int]func(Key, CommandState)
	nextL     int
}

// New builds a Dispatcher.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		client:    opts.Client,
		store:     opts.Store,
		refresher: opts.Refresher,
		notifier:  opts.Notifier,
		clock:     opts.Clock,
		log:       opts.Logger,
		newID:     opts.NewID,
		commands:  make(map[Key]CommandState),
	}
	if d.clock == nil {
		d.clock = clock.Real()
	}
	if d.log == nil {
		d.log = slog.New(slog.DiscardHandler)
	}
	d.log = d.log.With("component", "dispatch")
	if d.newID == nil {
		d.newID = uuid.NewString
	}
	return d
}

// State returns the state of the command identified by key.
func (d *Dispatcher) State(key Key) CommandState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commands[key]
}

// CanAdvance reports whether the advance action for order id is enabled.
func (d *Dispatcher) CanAdvance(id int64) bool {
	return d.State(AdvanceKey(id)).Phase != Pending
}

// OnChange registers fn to run on every command state change. The returned
// func unregisters it.
func (d *Dispatcher) OnChange(fn func(Key, CommandState)) func() {
	d.lmu.Lock()
	defer d.lmu.Unlock()
	if d.listeners == nil {
		d.listeners = make(map[int]func(Key, CommandState))
	}
	id := d.nextL
	d.nextL++
	d.listeners[id] = fn
	return func() {
		d.lmu.Lock()
		defer d.lmu.Unlock()
		delete(d.listeners, id)
	}
}

// begin moves key to Pending, or fails with ErrInFlight.
func (d *Dispatcher) begin(key Key, target orders.Status, requestID string) error {
	d.mu.Lock()
	if d.commands[key].Phase == Pending {
		d.mu.Unlock()
		return ErrInFlight
	}
	st := CommandState{
		Phase:     Pending,
		Target:    target,
		RequestID: requestID,
		Updated:   d.clock.Now(),
	}
	d.commands[key] = st
	d.mu.Unlock()

	d.emit(key, st)
	return nil
}

func (d *Dispatcher) finish(key Key, err error) {
	d.mu.Lock()
	st := d.commands[key]
	st.Phase = Succeeded
	st.Err = err
	if err != nil {
		st.Phase = Failed
	}
	st.Updated = d.clock.Now()
	d.commands[key] = st
	d.mu.Unlock()

	d.emit(key, st)
}

func (d *Dispatcher) emit(key Key, st CommandState) {
	d.lmu.Lock()
	fns := make([]func(Key, CommandState), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.lmu.Unlock()
	for _, fn := range fns {
		fn(key, st)
	}
}

// AdvanceResult describes a successful status advance.
type AdvanceResult struct {
	Order orders.Order
	// Applied is false when a newer status was already in the store.
	Applied bool
	// PromptFeedback is set when the order just completed and has no
	// feedback yet.
	PromptFeedback bool
}

// Advance moves order id to the next status of its lifecycle, as last known
// to the store. The action is disabled until the server answers. On success
// the server's order is upserted and a refetch is scheduled; on failure
// nothing in the store changes and the action is enabled again.
func (d *Dispatcher) Advance(ctx context.Context, id int64) (AdvanceResult, error) {
	current, err := d.store.Get(id)
	if err != nil {
		return AdvanceResult{}, err
	}
	next, ok := current.Status.Next()
	if !ok {
		return AdvanceResult{}, fmt.Errorf("order %d in status %q: %w", id, current.Status, ErrNoTransition)
	}

	key := AdvanceKey(id)
	reqID := d.newID()
	if err := d.begin(key, next, reqID); err != nil {
		return AdvanceResult{}, fmt.Errorf("advance order %d: %w", id, err)
	}
	log := d.log.With("request_id", reqID, "order_id", id)
	log.Info("advancing order", "from", string(current.Status), "to", string(next))

	started := d.clock.Now()
	updated, err := d.client.UpdateStatus(api.WithRequestID(ctx, reqID), id, next)
	if err != nil {
		log.Warn("advance failed", "error", err, "duration", d.clock.Now().Sub(started))
		d.finish(key, err)
		d.post(notify.Error, fmt.Sprintf("Could not update order #%d: %v", id, err))
		return AdvanceResult{}, fmt.Errorf("advance order %d to %s: %w", id, next, err)
	}

	applied, upErr := d.store.Upsert(updated)
	if upErr != nil {
		log.Warn("server returned an unusable order", "error", upErr)
	}
	d.finish(key, nil)
	d.confirm()

	log.Info("order advanced", "status", string(updated.Status), "applied", applied, "duration", d.clock.Now().Sub(started))
	d.post(notify.Success, fmt.Sprintf("Order #%d is now %s", id, updated.Status.Label()))

	return AdvanceResult{
		Order:          updated,
		Applied:        applied,
		PromptFeedback: updated.FeedbackEligible(),
	}, nil
}

// Create submits a new order. The returned order is inserted into the store
// right away and confirmed by the refetch that follows.
func (d *Dispatcher) Create(ctx context.Context, req orders.NewOrder) (orders.Order, error) {
	if err := req.Validate(); err != nil {
		return orders.Order{}, err
	}

	key := CreateKey()
	reqID := d.newID()
	if err := d.begin(key, orders.StatusPending, reqID); err != nil {
		return orders.Order{}, fmt.Errorf("create order: %w", err)
	}
	log := d.log.With("request_id", reqID)
	log.Info("creating order", "customer", req.CustomerName, "items", len(req.Items))

	created, err := d.client.CreateOrder(api.WithRequestID(ctx, reqID), req)
	if err != nil {
		log.Warn("create failed", "error", err)
		d.finish(key, err)
		d.post(notify.Error, fmt.Sprintf("Could not place order: %v", err))
		return orders.Order{}, fmt.Errorf("create order: %w", err)
	}

	if _, err := d.store.Upsert(created); err != nil {
		log.Warn("server returned an unusable order", "error", err)
	}
	d.finish(key, nil)
	d.confirm()

	log.Info("order created", "order_id", created.ID)
	d.post(notify.Success, fmt.Sprintf("Order #%d placed", created.ID))
	return created, nil
}

// SubmitFeedback rates a completed order. Callers only offer it for orders
// whose FeedbackEligible is true. Accepted feedback is attached to the
// store's copy and stays attached across later snapshots.
func (d *Dispatcher) SubmitFeedback(ctx context.Context, id int64, fb orders.Feedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return ErrInvalidRating
	}

	key := FeedbackKey(id)
	reqID := d.newID()
	if err := d.begin(key, "", reqID); err != nil {
		return fmt.Errorf("feedback for order %d: %w", id, err)
	}
	log := d.log.With("request_id", reqID, "order_id", id)

	if err := d.client.SubmitFeedback(api.WithRequestID(ctx, reqID), id, fb); err != nil {
		log.Warn("feedback failed", "error", err)
		d.finish(key, err)
		d.post(notify.Error, fmt.Sprintf("Could not send feedback: %v", err))
		return fmt.Errorf("feedback for order %d: %w", id, err)
	}

	if err := d.store.AttachFeedback(id, fb); err != nil && !errors.Is(err, state.ErrNotFound) {
		log.Warn("attach feedback", "error", err)
	}
	d.finish(key, nil)
	d.confirm()

	log.Info("feedback submitted", "rating", fb.Rating)
	d.post(notify.Success, "Thanks for your feedback!")
	return nil
}

func (d *Dispatcher) confirm() {
	if d.refresher != nil {
		d.refresher.Trigger()
	}
}

func (d *Dispatcher) post(level notify.Level, message string) {
	if d.notifier != nil {
		d.notifier.Post(level, message)
	}
}
