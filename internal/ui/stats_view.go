package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	statsTopItems = 5
	statsBarWidth = 24
)

func (m Model) handleStatsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Regenerate) {
		return m, m.regenerateCmd()
	}
	return m, nil
}

// renderStats renders today's figures on the left and the week on the right.
func (m Model) renderStats() string {
	height := m.contentHeight()
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles().WithBackground(m.theme.Surface)

	snap := m.statsSnap
	if !snap.Loaded() {
		msg := "Loading statistics..."
		if err := snap.Health.LastError; err != nil {
			msg = "Statistics unavailable: " + err.Error()
		}
		return m.renderBox("Stats", bg.Render(msg, styles.MutedText), m.width, height, false)
	}

	widths := columnWidths(m.width, 2)
	today := m.renderBox("Today", m.renderToday(widths[0]-2, styles, bg), widths[0], height, false)
	week := m.renderBox("Last 7 days", m.renderWeek(widths[1]-2, styles, bg), widths[1], height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, today, week)
}

func (m Model) renderToday(width int, styles Styles, bg BgStyle) string {
	d := m.statsSnap.Daily
	var lines []string

	kv := func(label, value string) string {
		return bg.Render(padRight(label, 14), styles.MutedText) + bg.Render(value, styles.Text.Bold(true))
	}
	lines = append(lines,
		kv("Orders", fmt.Sprintf("%d", d.OrderCount)),
		kv("Revenue", formatMoney(d.TotalSales)),
		kv("Average", formatMoney(d.AvgOrderValue)),
		"",
		bg.Render("Top items", styles.AccentText.Bold(true)),
	)

	items := d.TopItems(statsTopItems)
	if len(items) == 0 {
		lines = append(lines, bg.Render("No sales yet", styles.FaintText))
	}
	maxCount := 0
	for _, it := range items {
		maxCount = max(maxCount, it.Count)
	}
	nameW := min(18, maxInt(width/3, 8))
	barW := min(statsBarWidth, maxInt(width-nameW-12, 4))
	for _, it := range items {
		lines = append(lines,
			bg.Render(padRight(truncate(it.Name, nameW-1), nameW), styles.Text)+
				bg.Render(padRight(bar(float64(it.Count), float64(maxCount), barW), barW+1), styles.InfoText)+
				bg.Render(fmt.Sprintf("%d", it.Count), styles.MutedText))
	}

	if cats := d.Categories(); len(cats) > 0 {
		lines = append(lines, "", bg.Render("Categories", styles.AccentText.Bold(true)))
		for _, c := range cats {
			lines = append(lines, bg.Render(padRight(truncate(c.Name, nameW-1), nameW), styles.Text)+
				bg.Render(formatMoney(c.Total), styles.MutedText))
		}
	}

	if hours := d.Hours(); len(hours) > 0 {
		lines = append(lines, "", bg.Render("Peak hours", styles.AccentText.Bold(true)))
		peak := 0
		for _, h := range hours {
			peak = max(peak, h.Count)
		}
		for _, h := range hours {
			lines = append(lines,
				bg.Render(fmt.Sprintf("%02d:00   ", h.Hour), styles.MutedText)+
					bg.Render(padRight(bar(float64(h.Count), float64(peak), barW), barW+1), styles.WarningText)+
					bg.Render(fmt.Sprintf("%d", h.Count), styles.MutedText))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderWeek(width int, styles Styles, bg BgStyle) string {
	week := m.statsSnap.Weekly
	if len(week) == 0 {
		return bg.Render("No history", styles.FaintText)
	}
	best := 0.0
	for _, d := range week {
		best = max(best, d.TotalSales)
	}
	barW := min(statsBarWidth, maxInt(width-28, 4))

	lines := make([]string, 0, len(week)+2)
	for _, d := range week {
		label := d.Date
		if t := d.ParsedDate(); !t.IsZero() {
			label = t.Format("Mon 01/02")
		}
		lines = append(lines,
			bg.Render(padRight(label, 11), styles.MutedText)+
				bg.Render(padRight(bar(d.TotalSales, best, barW), barW+1), styles.SuccessText)+
				bg.Render(padRight(formatMoney(d.TotalSales), 10), styles.Text)+
				bg.Render(fmt.Sprintf("%d orders", d.OrderCount), styles.FaintText))
	}
	if h := m.statsSnap.Health; h.LastError != nil {
		lines = append(lines, "", bg.Render("Last refresh failed: "+truncate(h.LastError.Error(), width-22), styles.DangerText))
	}
	lines = append(lines, "", bg.Render("Updated "+formatSince(m.now, m.statsSnap.Health.LastSynced), styles.FaintText))
	return strings.Join(lines, "\n")
}
