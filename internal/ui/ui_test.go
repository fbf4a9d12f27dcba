package ui

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/galleyhq/galley/internal/api"
	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/dispatch"
	"github.com/galleyhq/galley/internal/notify"
	"github.com/galleyhq/galley/internal/orders"
	"github.com/galleyhq/galley/internal/state"
	"github.com/galleyhq/galley/internal/stats"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string { return ansiRe.ReplaceAllString(s, "") }

type fakeCommands struct {
	mu       sync.Mutex
	states   map[dispatch.Key]dispatch.CommandState
	advanced []int64
	feedback []orders.Feedback
	result   dispatch.AdvanceResult
}

func (f *fakeCommands) Advance(ctx context.Context, id int64) (dispatch.AdvanceResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanced = append(f.advanced, id)
	return f.result, nil
}

func (f *fakeCommands) SubmitFeedback(ctx context.Context, id int64, fb orders.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback = append(f.feedback, fb)
	return nil
}

func (f *fakeCommands) State(key dispatch.Key) dispatch.CommandState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[key]
}

func (f *fakeCommands) CanAdvance(id int64) bool {
	return f.State(dispatch.AdvanceKey(id)).Enabled()
}

func (f *fakeCommands) OnChange(fn func(dispatch.Key, dispatch.CommandState)) func() {
	return func() {}
}

type fakeSyncer struct {
	triggers int
	live     bool
}

func (s *fakeSyncer) Trigger()   { s.triggers++ }
func (s *fakeSyncer) Live() bool { return s.live }

func testOrder(id int64, status orders.Status) orders.Order {
	return orders.Order{
		ID:           id,
		CustomerName: "Ana",
		Status:       status,
		CreatedAt:    "2025-03-01T12:00:00",
		Items:        []orders.Item{{ProductName: "Classic Burger", Quantity: 2}},
	}
}

type harness struct {
	kitchen  *state.Store
	history  *state.Store
	commands *fakeCommands
	sync     *fakeSyncer
	board    *notify.Board
	clock    *clock.Fake
}

func newHarness() *harness {
	fake := clock.NewFake(time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC))
	return &harness{
		kitchen:  state.New(state.ActiveOnly, fake),
		history:  state.New(nil, fake),
		commands: &fakeCommands{states: map[dispatch.Key]dispatch.CommandState{}},
		sync:     &fakeSyncer{},
		board:    notify.NewBoard(fake, time.Minute),
		clock:    fake,
	}
}

func (h *harness) model(view View) Model {
	m := New(Options{
		View:        view,
		Kitchen:     h.kitchen,
		History:     h.history,
		KitchenSync: h.sync,
		HistorySync: h.sync,
		Commands:    h.commands,
		Board:       h.board,
		Clock:       h.clock,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	return next.(Model)
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestKitchen_StationsCountWaitingOrders(t *testing.T) {
	h := newHarness()
	h.kitchen.ReplaceAll([]orders.Order{
		testOrder(1, orders.StatusPending),
		testOrder(2, orders.StatusReady),
	})
	out := plain(h.model(ViewKitchen).View())

	if strings.Contains(out, "Grill Station free") {
		t.Fatalf("pending burger left the grill free:\n%s", out)
	}
	if !strings.Contains(out, "Grill 2 items") {
		t.Fatalf("grill load missing or counts the ready order:\n%s", out)
	}
	if !strings.Contains(out, "Prep Station free") {
		t.Fatalf("prep station should be free:\n%s", out)
	}
}

func TestKitchen_EmptyState(t *testing.T) {
	h := newHarness()
	h.kitchen.ReplaceAll(nil)
	out := plain(h.model(ViewKitchen).View())

	if !strings.Contains(out, "No active orders") {
		t.Fatalf("view missing empty state:\n%s", out)
	}
	for _, want := range []string{"Pending: 0", "Preparing: 0", "Ready: 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestKitchen_ShowsColumnsAndActions(t *testing.T) {
	h := newHarness()
	h.kitchen.ReplaceAll([]orders.Order{
		testOrder(1, orders.StatusPending),
		testOrder(2, orders.StatusReady),
		testOrder(3, orders.StatusCompleted),
	})
	out := plain(h.model(ViewKitchen).View())

	for _, want := range []string{"Pending (1)", "Preparing (0)", "Ready (1)", "#1", "Start preparing", "2 active"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "#3") {
		t.Fatalf("completed order shown on the kitchen board:\n%s", out)
	}
}

func TestKitchen_UpdatingWhilePending(t *testing.T) {
	h := newHarness()
	h.kitchen.ReplaceAll([]orders.Order{testOrder(1, orders.StatusPending)})
	h.commands.states[dispatch.AdvanceKey(1)] = dispatch.CommandState{Phase: dispatch.Pending}
	m := h.model(ViewKitchen)

	if out := plain(m.View()); !strings.Contains(out, "Updating...") {
		t.Fatalf("view missing pending marker:\n%s", out)
	}
	if _, cmd := press(t, m, "enter"); cmd != nil {
		t.Fatal("enter returned a command while the advance is in flight")
	}
}

func TestKitchen_AdvanceCompletionOpensFeedback(t *testing.T) {
	h := newHarness()
	h.kitchen.ReplaceAll([]orders.Order{testOrder(4, orders.StatusReady)})
	h.commands.result = dispatch.AdvanceResult{
		Order:          testOrder(4, orders.StatusCompleted),
		Applied:        true,
		PromptFeedback: true,
	}
	m := h.model(ViewKitchen)
	m, _ = press(t, m, "l")
	m, _ = press(t, m, "l")

	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)

	if len(h.commands.advanced) != 1 || h.commands.advanced[0] != 4 {
		t.Fatalf("advanced = %v, want [4]", h.commands.advanced)
	}
	if out := plain(m.View()); !strings.Contains(out, "How was order #4?") {
		t.Fatalf("feedback dialog not shown:\n%s", out)
	}
}

func TestFeedbackModal_Submit(t *testing.T) {
	h := newHarness()
	m := h.model(ViewHistory)
	m.modal = newFeedbackModal(testOrder(9, orders.StatusCompleted))

	m, _ = press(t, m, "left")
	m, _ = press(t, m, "ok")
	m, cmd := press(t, m, "enter")
	if m.modal != nil {
		t.Fatal("modal still open after submit")
	}
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	submit, ok := cmd().(feedbackSubmitMsg)
	if !ok {
		t.Fatalf("command produced %T, want feedbackSubmitMsg", cmd())
	}
	if submit.orderID != 9 || submit.feedback.Rating != 4 || submit.feedback.Comment != "ok" {
		t.Fatalf("submit = %+v", submit)
	}

	_, send := m.Update(submit)
	if send == nil {
		t.Fatal("no command sends the feedback")
	}
	send()
	if len(h.commands.feedback) != 1 || h.commands.feedback[0].Rating != 4 {
		t.Fatalf("feedback sent = %+v", h.commands.feedback)
	}
}

func TestFeedbackModal_Cancel(t *testing.T) {
	h := newHarness()
	m := h.model(ViewHistory)
	m.modal = newFeedbackModal(testOrder(9, orders.StatusCompleted))

	m, cmd := press(t, m, "esc")
	if m.modal != nil || cmd != nil {
		t.Fatal("esc did not close the dialog quietly")
	}
}

func TestHistory_FeedbackPrompt(t *testing.T) {
	h := newHarness()
	rated := testOrder(2, orders.StatusCompleted)
	rated.Feedback = &orders.Feedback{Rating: 5}
	h.history.ReplaceAll([]orders.Order{testOrder(1, orders.StatusCompleted), rated})
	m := h.model(ViewHistory)

	out := plain(m.View())
	if !strings.Contains(out, "Leave feedback") || !strings.Contains(out, "★★★★★") {
		t.Fatalf("history view missing feedback cells:\n%s", out)
	}

	// Newest first: both share CreatedAt, so id 2 sorts on top.
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "f")
	if m.modal == nil {
		t.Fatal("f did not open the feedback dialog")
	}
}

func TestHeader_ConnectionStates(t *testing.T) {
	h := newHarness()
	if out := plain(h.model(ViewKitchen).View()); !strings.Contains(out, "CONNECTING") {
		t.Fatalf("header before first sync:\n%s", out)
	}

	h.kitchen.ReplaceAll(nil)
	if out := plain(h.model(ViewKitchen).View()); !strings.Contains(out, "POLLING") {
		t.Fatalf("header after sync without push:\n%s", out)
	}

	h.sync.live = true
	if out := plain(h.model(ViewKitchen).View()); !strings.Contains(out, "LIVE") {
		t.Fatalf("header with push:\n%s", out)
	}

	h.kitchen.RecordFailure(errors.New("connection refused"))
	h.kitchen.RecordFailure(errors.New("connection refused"))
	if out := plain(h.model(ViewKitchen).View()); !strings.Contains(out, "OFFLINE") {
		t.Fatalf("header after failures:\n%s", out)
	}
}

func TestHeader_ShowsNoticeAndDismiss(t *testing.T) {
	h := newHarness()
	h.board.Post(notify.Error, "Invalid status transition")
	m := h.model(ViewKitchen)

	if out := plain(m.View()); !strings.Contains(out, "Invalid status transition") {
		t.Fatalf("notice not shown:\n%s", out)
	}
	press(t, m, "x")
	if got := h.board.Active(); len(got) != 0 {
		t.Fatalf("notice not dismissed: %+v", got)
	}
}

func TestRefreshKeyTriggersSyncer(t *testing.T) {
	h := newHarness()
	m := h.model(ViewKitchen)
	press(t, m, "r")
	if h.sync.triggers != 1 {
		t.Fatalf("triggers = %d, want 1", h.sync.triggers)
	}
}

func TestViewSwitching(t *testing.T) {
	h := newHarness()
	m := h.model(ViewKitchen)

	m, _ = press(t, m, "3")
	if m.view != ViewStats {
		t.Fatalf("view = %v, want stats", m.view)
	}
	m, _ = press(t, m, "tab")
	if m.view != ViewLog {
		t.Fatalf("view = %v, want log", m.view)
	}
	m, _ = press(t, m, "tab")
	if m.view != ViewKitchen {
		t.Fatalf("view = %v, want kitchen", m.view)
	}
}

func TestStatsView(t *testing.T) {
	h := newHarness()
	store := stats.NewStore(h.clock)
	m := New(Options{Stats: store, View: ViewStats, Clock: h.clock})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	m = next.(Model)
	if out := plain(m.View()); !strings.Contains(out, "Loading statistics...") {
		t.Fatalf("stats view before load:\n%s", out)
	}

	store.Update(api.DailyStats{
		TotalSales:    22.6,
		OrderCount:    2,
		AvgOrderValue: 11.3,
		PopularItems:  map[string]api.PopularItem{"1": {Name: "Classic Burger", Count: 2, Total: 17}},
		PeakHours:     map[string]int{"12": 2},
	}, []api.DailyStats{{Date: "2025-03-01", TotalSales: 22.6, OrderCount: 2}}, nil)
	next, _ = m.Update(changeMsg{})
	m = next.(Model)

	out := plain(m.View())
	for _, want := range []string{"$22.60", "$11.30", "Classic Burger", "12:00", "Sat 03/01"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats view missing %q:\n%s", want, out)
		}
	}
}

func TestParseView(t *testing.T) {
	if ParseView("History") != ViewHistory || ParseView("log") != ViewLog || ParseView("nope") != ViewKitchen {
		t.Fatal("ParseView mismatch")
	}
	if ViewStats.String() != "stats" {
		t.Fatalf("ViewStats.String() = %q", ViewStats.String())
	}
}

func TestThemes(t *testing.T) {
	names := ThemeNames()
	if len(names) == 0 {
		t.Fatal("no themes")
	}
	seen := map[string]bool{}
	name := names[0]
	for range names {
		seen[name] = true
		name = NextTheme(name)
	}
	if len(seen) != len(names) || name != names[0] {
		t.Fatalf("NextTheme does not cycle through %v", names)
	}
	if GetTheme("missing").Name != names[0] {
		t.Fatal("unknown theme does not fall back to the default")
	}

	theme := GetTheme(names[0])
	for _, status := range orders.Lifecycle {
		if theme.StatusColor(string(status)) == theme.Muted {
			t.Fatalf("status %s has no color", status)
		}
	}
	if theme.StatusColor("cancelled") != theme.Muted {
		t.Fatal("unknown status should use the muted color")
	}
}
