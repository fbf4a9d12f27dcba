package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/galleyhq/galley/internal/logtail"
)

const (
	logRefreshInterval = 2 * time.Second
	logBufferLimit     = 2000
)

// logLevels is the cycle of minimum levels; debug shows everything.
var logLevels = []string{"debug", "info", "warn", "error"}

// logState holds all log-related state.
type logState struct {
	entries  []logtail.Entry
	follow   bool
	level    int
	lastRead time.Time
	err      error
}

func newLogState() logState {
	return logState{follow: true}
}

type logsMsg struct {
	lines []string
	err   error
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		lines, err := logtail.Read(path, logBufferLimit)
		return logsMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logState.lastRead = m.now
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.entries = logtail.ParseAll(msg.lines)
	}
	m.updateLogViewport()
}

func (m Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
		}
	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.level = (m.logState.level + 1) % len(logLevels)
		m.updateLogViewport()
	case key.Matches(msg, m.keys.Bottom):
		m.logState.follow = true
		m.logViewport.GotoBottom()
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
	default:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		if !m.logViewport.AtBottom() {
			m.logState.follow = false
		}
		return m, cmd
	}
	return m, nil
}

// visibleLogs applies the level filter.
func (m Model) visibleLogs() []logtail.Entry {
	return logtail.AtLeast(m.logState.entries, logLevels[m.logState.level])
}

func (m *Model) updateLogViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// Box border takes two rows and the status line one.
	w, h := maxInt(m.width-2, 1), maxInt(m.contentHeight()-3, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(w, h)
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent(w))
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogs() string {
	height := m.contentHeight()
	title := "Log"
	if lvl := logLevels[m.logState.level]; lvl != "debug" {
		title = fmt.Sprintf("Log (%s+)", lvl)
	}
	box := m.renderBox(title, m.logViewport.View(), m.width, height-1, true)
	return box + "\n" + m.renderLogStatus()
}

func (m Model) renderLogStatus() string {
	bg := NewBgStyle(m.theme.Background)
	styles := m.theme.Styles().WithBackground(m.theme.Background)

	if m.logState.err != nil {
		return bg.Render("Cannot read log: "+m.logState.err.Error(), styles.DangerText)
	}
	follow := ternary(m.logState.follow, "on", "off")
	parts := []string{
		bg.Render(fmt.Sprintf("%d lines", len(m.visibleLogs())), styles.FaintText),
		bg.Render("follow "+follow, styles.FaintText),
		bg.Render(truncate(m.logPath, 60), styles.MutedText),
	}
	return bg.Join(parts, " • ")
}

func (m Model) renderLogContent(width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	entries := m.visibleLogs()
	if len(entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	var b strings.Builder
	for i, e := range entries {
		b.WriteString(bg.FillLine(m.formatLogEntry(e, styles, bg), width))
		if i < len(entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatLogEntry renders "15:04:05 INFO component message key=value".
func (m Model) formatLogEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if !e.Parsed() {
		return bg.Render(e.Raw, styles.MutedText)
	}
	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, bg.Render(e.Time.Local().Format("15:04:05"), styles.FaintText))
	}
	parts = append(parts, bg.Render(padRight(strings.ToUpper(e.Level), 5), m.levelStyle(e.Level, styles)))
	if e.Component != "" {
		parts = append(parts, bg.Render(e.Component, styles.AccentText))
	}
	parts = append(parts, bg.Render(e.Message, styles.Text))
	if len(e.Fields) > 0 {
		parts = append(parts, bg.Render(strings.Join(e.Fields, " "), styles.MutedText))
	}
	return strings.Join(parts, bg.Space())
}

func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR":
		return styles.DangerText
	case "WARN":
		return styles.WarningText
	case "DEBUG":
		return styles.FaintText
	}
	return styles.InfoText
}
