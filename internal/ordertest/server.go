// Package ordertest is an in-memory ordering backend. It serves the REST
// surface galley consumes and publishes the same push events the real
// server emits, so the client can be driven end to end in tests and by
// galley-mock.
package ordertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/orders"
	"github.com/galleyhq/galley/internal/push"
)

const timestampLayout = "2006-01-02T15:04:05"

// Options configure a Server.
type Options struct {
	Menu      []Product // nil uses DefaultMenu
	Clock     clock.Clock
	Publisher push.Publisher // nil publishes nothing
	Logger    *slog.Logger
}

// Server holds orders in memory behind a chi router.
type Server struct {
	mu       sync.Mutex
	menu     map[int64]Product
	orders   map[int64]*orders.Order
	nextID   int64
	nextItem int64
	book     *statsBook
	failures []int

	clock  clock.Clock
	pub    push.Publisher
	log    *slog.Logger
	router chi.Router
}

// New builds a Server with an empty order book.
func New(opts Options) *Server {
	s := &Server{
		menu:   make(map[int64]Product),
		orders: make(map[int64]*orders.Order),
		book:   newStatsBook(),
		clock:  opts.Clock,
		pub:    opts.Publisher,
		log:    opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	menu := opts.Menu
	if menu == nil {
		menu = DefaultMenu()
	}
	for _, p := range menu {
		s.menu[p.ID] = p
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.injectFailures)

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", s.listOrders)
		r.Post("/", s.createOrder)
		r.Put("/{id}/status", s.updateStatus)
		r.Post("/{id}/feedback", s.submitFeedback)
	})
	r.Route("/api/stats", func(r chi.Router) {
		r.Get("/daily", s.dailyStats)
		r.Get("/weekly", s.weeklyStats)
		r.Post("/regenerate", s.regenerateStats)
	})
	return r
}

// FailNext makes the next len(codes) requests fail with the given statuses.
func (s *Server) FailNext(codes ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, codes...)
}

// Seed stores orders as given, keeping their ids.
func (s *Server) Seed(list ...orders.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range list {
		c := o.Clone()
		s.orders[c.ID] = &c
		if c.ID > s.nextID {
			s.nextID = c.ID
		}
	}
}

// Orders returns every order, newest first.
func (s *Server) Orders() []orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

// SetStatus changes an order's status without transition checks, as another
// client or a back-office tool would, and publishes the change.
func (s *Server) SetStatus(ctx context.Context, id int64, status orders.Status) error {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("order %d not found", id)
	}
	s.setStatusLocked(o, status)
	snapshot := o.Clone()
	s.mu.Unlock()

	s.publish(ctx, push.NameStatusChanged, snapshot)
	return nil
}

func (s *Server) listLocked() []orders.Order {
	out := make([]orders.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) now() string {
	return s.clock.Now().UTC().Format(timestampLayout)
}

func (s *Server) setStatusLocked(o *orders.Order, status orders.Status) {
	o.Status = status
	stamp := s.now()
	switch status {
	case orders.StatusPreparing:
		o.PreparingAt = stamp
		if o.AcceptedAt == "" {
			o.AcceptedAt = stamp
		}
	case orders.StatusReady:
		o.ReadyAt = stamp
	case orders.StatusCompleted:
		o.CompletedAt = stamp
	}
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Orders())
}

type statusRequest struct {
	Status orders.Status `json:"status"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	o, found := s.orders[id]
	if !found {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	next, ok := o.Status.Next()
	if !req.Status.Known() || !ok || next != req.Status {
		from := o.Status
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status transition from %s to %s", from, req.Status))
		return
	}
	s.setStatusLocked(o, req.Status)
	snapshot := o.Clone()
	s.mu.Unlock()

	s.log.Info("order status changed",
		"order_id", id,
		"status", string(req.Status),
		"request_id", middleware.GetReqID(r.Context()),
	)
	s.publish(r.Context(), push.NameStatusChanged, snapshot)
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.NewOrder
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	items := make([]orders.Item, 0, len(req.Items))
	for _, line := range req.Items {
		p, found := s.menu[line.ProductID]
		if !found {
			s.mu.Unlock()
			writeError(w, http.StatusNotFound, fmt.Sprintf("Product %d not found", line.ProductID))
			return
		}
		if !p.Available {
			s.mu.Unlock()
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Product %s is not available", p.Name))
			return
		}
		s.nextItem++
		items = append(items, orders.Item{
			ID:             s.nextItem,
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       line.Quantity,
			Customizations: line.Customizations.Clone(),
		})
	}
	s.nextID++
	o := &orders.Order{
		ID:            s.nextID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Status:        orders.StatusPending,
		Items:         items,
		CreatedAt:     s.now(),
	}
	s.orders[o.ID] = o
	s.book.record(*o, s.menu, s.clock.Now())
	snapshot := o.Clone()
	s.mu.Unlock()

	s.log.Info("order created",
		"order_id", snapshot.ID,
		"items", len(snapshot.Items),
		"request_id", middleware.GetReqID(r.Context()),
	)
	s.publish(r.Context(), push.NameOrderUpdate, snapshot)
	s.publish(r.Context(), push.NameNewOrder, snapshot)
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var fb orders.Feedback
	if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fb.Rating < 1 || fb.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	s.mu.Lock()
	o, found := s.orders[id]
	if !found {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if o.Status != orders.StatusCompleted {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Feedback is only accepted for completed orders")
		return
	}
	o.Feedback = &orders.Feedback{Rating: fb.Rating, Comment: fb.Comment}
	snapshot := o.Clone()
	s.mu.Unlock()

	s.publish(r.Context(), push.NameOrderUpdate, snapshot)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feedback received"})
}

func (s *Server) dailyStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.book.daily(s.clock.Now())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) weeklyStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.book.weekly(s.clock.Now())
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

// regenerateStats rebuilds the tallies from completed orders only, bucketed
// by their creation time.
func (s *Server) regenerateStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.book = newStatsBook()
	completed := 0
	for _, o := range s.listLocked() {
		if o.Status != orders.StatusCompleted {
			continue
		}
		at := o.ParsedCreatedAt()
		if at.IsZero() {
			at = s.clock.Now()
		}
		s.book.record(o, s.menu, at)
		completed++
	}
	s.mu.Unlock()

	s.log.Info("stats regenerated", "orders", completed)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sales statistics regenerated successfully"})
}

func (s *Server) publish(ctx context.Context, name string, o orders.Order) {
	if s.pub == nil {
		return
	}
	body, err := json.Marshal(o)
	if err != nil {
		s.log.Error("encode push event", "event", name, "error", err)
		return
	}
	if err := s.pub.Publish(ctx, name, body); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("publish push event", "event", name, "order_id", o.ID, "error", err)
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		code := 0
		if len(s.failures) > 0 {
			code = s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()
		if code != 0 {
			writeError(w, code, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
