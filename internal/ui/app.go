package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/galleyhq/galley/internal/clock"
	"github.com/galleyhq/galley/internal/config"
	"github.com/galleyhq/galley/internal/dispatch"
	"github.com/galleyhq/galley/internal/notify"
	"github.com/galleyhq/galley/internal/orders"
	"github.com/galleyhq/galley/internal/prefs"
	"github.com/galleyhq/galley/internal/state"
	"github.com/galleyhq/galley/internal/stats"
)

// View represents the current active view.
type View int

const (
	ViewKitchen View = iota
	ViewHistory
	ViewStats
	ViewLog
)

var viewNames = []string{config.ViewKitchen, config.ViewHistory, config.ViewStats, config.ViewLog}

func (v View) String() string {
	if int(v) < len(viewNames) {
		return viewNames[v]
	}
	return config.ViewKitchen
}

func (v View) title() string {
	switch v {
	case ViewHistory:
		return "History"
	case ViewStats:
		return "Stats"
	case ViewLog:
		return "Log"
	}
	return "Kitchen"
}

// ParseView maps a view name to a View. Unknown names open the kitchen.
func ParseView(name string) View {
	for i, n := range viewNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return View(i)
		}
	}
	return ViewKitchen
}

// Syncer is the part of a sync engine the UI drives.
type Syncer interface {
	Trigger()
	Live() bool
}

// Commands is the part of the command dispatcher the UI drives.
type Commands interface {
	Advance(ctx context.Context, id int64) (dispatch.AdvanceResult, error)
	SubmitFeedback(ctx context.Context, id int64, fb orders.Feedback) error
	State(key dispatch.Key) dispatch.CommandState
	CanAdvance(id int64) bool
	OnChange(fn func(dispatch.Key, dispatch.CommandState)) func()
}

// StatsControl refreshes and rebuilds the dashboard figures.
type StatsControl interface {
	Trigger()
	Regenerate(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context context.Context
	View    View

	Kitchen     *state.Store
	History     *state.Store
	KitchenSync Syncer
	HistorySync Syncer
	Commands    Commands
	Board       *notify.Board
	Stats       *stats.Store
	StatsCtl    StatsControl

	LogPath   string
	ThemeName string
	PrefsPath string
	Clock     clock.Clock
	Tick      time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	kitchen   *state.Store
	history   *state.Store
	kSync     Syncer
	hSync     Syncer
	commands  Commands
	board     *notify.Board
	stats     *stats.Store
	statsCtl  StatsControl
	logPath   string
	prefsPath string
	clock     clock.Clock
	tick      time.Duration
	changes   chan struct{}

	keys   keyMap
	theme  Theme
	view   View
	width  int
	height int
	ready  bool
	now    time.Time

	kitchenSnap state.Snapshot
	historySnap state.Snapshot
	statsSnap   stats.Snapshot
	notices     []notify.Notice

	kitchenSel kitchenSelection
	historyRow int

	logViewport viewport.Model
	logState    logState

	modal    Modal
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Default().Theme
	}

	m := Model{
		ctx:       ctx,
		kitchen:   opts.Kitchen,
		history:   opts.History,
		kSync:     opts.KitchenSync,
		hSync:     opts.HistorySync,
		commands:  opts.Commands,
		board:     opts.Board,
		stats:     opts.Stats,
		statsCtl:  opts.StatsCtl,
		logPath:   opts.LogPath,
		prefsPath: opts.PrefsPath,
		clock:     clk,
		tick:      tick,
		changes:   make(chan struct{}, 1),
		keys:      DefaultKeyMap(),
		theme:     GetTheme(themeName),
		view:      opts.View,
		now:       clk.Now(),
		logState:  newLogState(),
	}
	m.subscribe()
	m.refresh()
	return m
}

// subscribe wakes the program whenever any data source changes. Listeners
// run on writer goroutines, so they only signal.
func (m Model) subscribe() {
	signal := func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}
	if m.kitchen != nil {
		m.kitchen.OnChange(func(state.Snapshot) { signal() })
	}
	if m.history != nil {
		m.history.OnChange(func(state.Snapshot) { signal() })
	}
	if m.commands != nil {
		m.commands.OnChange(func(dispatch.Key, dispatch.CommandState) { signal() })
	}
	if m.board != nil {
		m.board.OnChange(signal)
	}
	if m.stats != nil {
		m.stats.OnChange(func(stats.Snapshot) { signal() })
	}
}

// refresh pulls fresh copies of every data source.
func (m *Model) refresh() {
	m.now = m.clock.Now()
	if m.kitchen != nil {
		m.kitchenSnap = m.kitchen.Snapshot()
	}
	if m.history != nil {
		m.historySnap = m.history.Snapshot()
		orders.SortByNewest(m.historySnap.Orders)
	}
	if m.stats != nil {
		m.statsSnap = m.stats.Snapshot()
	}
	if m.board != nil {
		m.notices = m.board.Active()
	}
	m.clampSelection()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForChange(m.changes), tickCmd(m.tick)}
	if m.view == ViewLog {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case tickMsg:
		m.refresh()
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.view == ViewLog && m.logState.follow && m.now.Sub(m.logState.lastRead) >= logRefreshInterval {
			cmds = append(cmds, readLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case advanceDoneMsg:
		if msg.err == nil && msg.result.PromptFeedback && m.modal == nil {
			m.modal = newFeedbackModal(msg.result.Order)
		}
		return m, nil

	case feedbackSubmitMsg:
		return m, m.submitFeedbackCmd(msg.orderID, msg.feedback)

	case feedbackDoneMsg:
		return m, nil

	case regenerateDoneMsg:
		if m.board != nil {
			if msg.err != nil {
				m.board.Post(notify.Error, msg.err.Error())
			} else {
				m.board.Post(notify.Success, "Sales statistics regenerated")
			}
		}
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m.switchView(View((int(m.view) + 1) % len(viewNames)))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(View((int(m.view) + len(viewNames) - 1) % len(viewNames)))
	case key.Matches(msg, m.keys.ViewKitchen):
		return m.switchView(ViewKitchen)
	case key.Matches(msg, m.keys.ViewHistory):
		return m.switchView(ViewHistory)
	case key.Matches(msg, m.keys.ViewStats):
		return m.switchView(ViewStats)
	case key.Matches(msg, m.keys.ViewLog):
		return m.switchView(ViewLog)
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCurrent()
	case key.Matches(msg, m.keys.Dismiss):
		if m.board != nil && len(m.notices) > 0 {
			m.board.Dismiss(m.notices[len(m.notices)-1].ID)
		}
		return m, nil
	}

	switch m.view {
	case ViewKitchen:
		return m.handleKitchenKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	case ViewStats:
		return m.handleStatsKey(msg)
	case ViewLog:
		return m.handleLogKey(msg)
	}
	return m, nil
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if m.view == v {
		return m, nil
	}
	m.view = v
	m.savePrefs()
	if v == ViewLog {
		return m, readLogsCmd(m.logPath)
	}
	return m, nil
}

// refreshCurrent asks the current view's source for fresh data now.
func (m Model) refreshCurrent() tea.Cmd {
	switch m.view {
	case ViewKitchen:
		if m.kSync != nil {
			m.kSync.Trigger()
		}
	case ViewHistory:
		if m.hSync != nil {
			m.hSync.Trigger()
		}
	case ViewStats:
		if m.statsCtl != nil {
			m.statsCtl.Trigger()
		}
	case ViewLog:
		return readLogsCmd(m.logPath)
	}
	return nil
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, View: m.view.String()})
}

// live reports whether the current view's data is pushed.
func (m Model) live() bool {
	switch m.view {
	case ViewKitchen:
		return m.kSync != nil && m.kSync.Live()
	case ViewHistory:
		return m.hSync != nil && m.hSync.Live()
	}
	return false
}

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// contentHeight is the height left below the header and command bar.
func (m Model) contentHeight() int {
	return maxInt(m.height-2, 3)
}

func (m Model) renderContent() string {
	switch m.view {
	case ViewHistory:
		return m.renderHistory()
	case ViewStats:
		return m.renderStats()
	case ViewLog:
		return m.renderLogs()
	}
	return m.renderKitchen()
}

// Messages

type tickMsg time.Time

type changeMsg struct{}

type advanceDoneMsg struct {
	id     int64
	result dispatch.AdvanceResult
	err    error
}

type feedbackDoneMsg struct {
	id  int64
	err error
}

type regenerateDoneMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changeMsg{}
	}
}

func (m Model) advanceCmd(id int64) tea.Cmd {
	if m.commands == nil || !m.commands.CanAdvance(id) {
		return nil
	}
	ctx, commands := m.ctx, m.commands
	return func() tea.Msg {
		res, err := commands.Advance(ctx, id)
		return advanceDoneMsg{id: id, result: res, err: err}
	}
}

func (m Model) submitFeedbackCmd(id int64, fb orders.Feedback) tea.Cmd {
	if m.commands == nil {
		return nil
	}
	ctx, commands := m.ctx, m.commands
	return func() tea.Msg {
		return feedbackDoneMsg{id: id, err: commands.SubmitFeedback(ctx, id, fb)}
	}
}

func (m Model) regenerateCmd() tea.Cmd {
	if m.statsCtl == nil {
		return nil
	}
	ctx, ctl := m.ctx, m.statsCtl
	return func() tea.Msg {
		return regenerateDoneMsg{err: ctl.Regenerate(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until it exits or ctx is
// cancelled.
func Run(opts Options) error {
	m := New(opts)
	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
