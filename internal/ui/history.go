package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/galleyhq/galley/internal/dispatch"
	"github.com/galleyhq/galley/internal/orders"
)

func (m Model) selectedHistoryOrder() (orders.Order, bool) {
	if m.historyRow < 0 || m.historyRow >= len(m.historySnap.Orders) {
		return orders.Order{}, false
	}
	return m.historySnap.Orders[m.historyRow], true
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.historySnap.Orders)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.historyRow > 0 {
			m.historyRow--
		}
	case key.Matches(msg, m.keys.Down):
		if m.historyRow < count-1 {
			m.historyRow++
		}
	case key.Matches(msg, m.keys.Top):
		m.historyRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.historyRow = maxInt(count-1, 0)
	case key.Matches(msg, m.keys.Feedback):
		if o, ok := m.selectedHistoryOrder(); ok && m.canLeaveFeedback(o) {
			m.modal = newFeedbackModal(o)
		}
	case key.Matches(msg, m.keys.Advance):
		o, ok := m.selectedHistoryOrder()
		if !ok {
			break
		}
		if m.canLeaveFeedback(o) {
			m.modal = newFeedbackModal(o)
			break
		}
		return m, m.advanceCmd(o.ID)
	}
	return m, nil
}

func (m Model) canLeaveFeedback(o orders.Order) bool {
	if !o.FeedbackEligible() {
		return false
	}
	if m.commands == nil {
		return true
	}
	return m.commands.State(dispatch.FeedbackKey(o.ID)).Enabled()
}

// renderHistory renders every order, newest first.
func (m Model) renderHistory() string {
	height := m.contentHeight()
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	width := maxInt(m.width-2, 10)

	list := m.historySnap.Orders
	title := fmt.Sprintf("History (%d)", len(list))
	if len(list) == 0 {
		return m.renderBox(title, bg.Render("No orders yet", styles.MutedText), m.width, height, true)
	}

	header := bg.Render(m.historyHeader(), styles.FaintText)
	rows := []string{header}

	visible := maxInt(height-3, 1)
	start := 0
	if m.historyRow >= visible {
		start = m.historyRow - visible + 1
	}
	end := min(start+visible, len(list))
	for i := start; i < end; i++ {
		rows = append(rows, m.renderHistoryRow(list[i], width, i == m.historyRow))
	}
	return m.renderBox(title, strings.Join(rows, "\n"), m.width, height, true)
}

func (m Model) historyHeader() string {
	return padRight("ID", 7) + padRight("Customer", 18) + padRight("Status", 12) +
		padRight("Items", 7) + padRight("Placed", 10) + "Feedback"
}

func (m Model) renderHistoryRow(o orders.Order, width int, selected bool) string {
	bgColor := ternary(selected, m.theme.SelectionBg, m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(string(o.Status))))
	placed := "--"
	if t := o.ParsedCreatedAt(); !t.IsZero() {
		placed = t.Format("15:04")
	}

	line := bg.Render(padRight(fmt.Sprintf("#%d", o.ID), 7), styles.AccentText) +
		bg.Render(padRight(truncate(o.CustomerName, 16), 18), styles.Text) +
		bg.Render(padRight(o.Status.Label(), 12), statusStyle) +
		bg.Render(padRight(fmt.Sprintf("%d", o.ItemCount()), 7), styles.Text) +
		bg.Render(padRight(placed, 10), styles.MutedText) +
		m.renderFeedbackCell(o, styles, bg)
	return bg.FillLine(line, width)
}

func (m Model) renderFeedbackCell(o orders.Order, styles Styles, bg BgStyle) string {
	if o.Feedback != nil {
		stars := strings.Repeat("★", o.Feedback.Rating)
		return bg.Render(stars, styles.WarningText)
	}
	if !o.FeedbackEligible() {
		return ""
	}
	if m.commands != nil && m.commands.State(dispatch.FeedbackKey(o.ID)).Phase == dispatch.Pending {
		return bg.Render("Sending...", styles.WarningText)
	}
	return bg.Render("Leave feedback", styles.InfoText)
}
