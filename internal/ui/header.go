package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/galleyhq/galley/internal/notify"
	"github.com/galleyhq/galley/internal/orders"
	"github.com/galleyhq/galley/internal/state"
)

// renderHeader renders the status bar: view tabs, connection state, counts,
// last sync time and the newest notice.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render("galley", styles.Logo), m.renderTabs(styles, bg)}

	if health, ok := m.viewHealth(); ok {
		parts = append(parts, m.renderConnection(health, styles, bg))
	}

	switch m.view {
	case ViewKitchen:
		parts = append(parts, bg.Render(fmt.Sprintf("%d active", m.activeCount()), styles.Text))
		for _, status := range kitchenColumns {
			color := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColor(string(status))))
			parts = append(parts, bg.Render(status.Label()+":", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", m.kitchenSnap.Count(status)), color))
		}
	case ViewHistory:
		parts = append(parts,
			bg.Render(fmt.Sprintf("%d orders", len(m.historySnap.Orders)), styles.Text),
			bg.Render("Completed:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", m.historySnap.Count(orders.StatusCompleted)), styles.Text))
	}

	if notice, ok := m.latestNotice(); ok {
		parts = append(parts, m.renderNotice(notice, styles, bg))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// activeCount skips orders a command just completed; the next refetch
// drops them from the kitchen store.
func (m Model) activeCount() int {
	n := 0
	for _, o := range m.kitchenSnap.Orders {
		if o.Status.Active() {
			n++
		}
	}
	return n
}

func (m Model) renderTabs(styles Styles, bg BgStyle) string {
	tabs := make([]string, 0, len(viewNames))
	for i := range viewNames {
		v := View(i)
		label := fmt.Sprintf("%d %s", i+1, v.title())
		if v == m.view {
			tabs = append(tabs, bg.Render(label, styles.AccentText.Bold(true)))
			continue
		}
		tabs = append(tabs, bg.Render(label, styles.FaintText))
	}
	return bg.Join(tabs, " ")
}

// viewHealth returns the sync health behind the current view.
func (m Model) viewHealth() (state.Health, bool) {
	switch m.view {
	case ViewKitchen:
		return m.kitchenSnap.Health, m.kitchen != nil
	case ViewHistory:
		return m.historySnap.Health, m.history != nil
	case ViewStats:
		return m.statsSnap.Health, m.stats != nil
	}
	return state.Health{}, false
}

// renderConnection shows LIVE while push drives the view, POLLING when
// only the timer does, and OFFLINE after repeated failures.
func (m Model) renderConnection(h state.Health, styles Styles, bg BgStyle) string {
	var indicator string
	switch {
	case h.Offline():
		indicator = bg.Render("● OFFLINE", styles.DangerText)
	case !h.Synced():
		indicator = bg.Render("● CONNECTING", styles.WarningText)
	case m.live():
		indicator = bg.Render("● LIVE", styles.SuccessText)
	default:
		indicator = bg.Render("● POLLING", styles.InfoText)
	}
	return indicator + bg.Space() + bg.Render(formatSince(m.now, h.LastSynced), styles.MutedText)
}

func (m Model) latestNotice() (notify.Notice, bool) {
	if len(m.notices) == 0 {
		return notify.Notice{}, false
	}
	return m.notices[len(m.notices)-1], true
}

func (m Model) renderNotice(n notify.Notice, styles Styles, bg BgStyle) string {
	style := styles.InfoText
	switch n.Level {
	case notify.Success:
		style = styles.SuccessText
	case notify.Warning:
		style = styles.WarningText
	case notify.Error:
		style = styles.DangerText
	}
	return bg.Render(truncate(n.Message, maxInt(m.width/3, 20)), style)
}

// renderCommandBar renders the key hints of the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.view {
	case ViewKitchen:
		commands = []cmd{{"h/l", "Column"}, {"j/k", "Order"}, {"enter", "Advance"}, {"r", "Refresh"}}
	case ViewHistory:
		commands = []cmd{{"j/k", "Navigate"}, {"f", "Feedback"}, {"enter", "Advance"}, {"r", "Refresh"}}
	case ViewStats:
		commands = []cmd{{"R", "Regenerate"}, {"r", "Refresh"}}
	case ViewLog:
		commands = []cmd{
			{"F", ternary(m.logState.follow, "Pause", "Follow")},
			{"L", "Level " + logLevels[m.logState.level]},
			{"g/G", "Top/Bottom"},
			{"r", "Reload"},
		}
	}
	commands = append(commands, cmd{"tab", "View"}, cmd{"?", "More"})
	if len(m.notices) > 0 {
		commands = append(commands, cmd{"x", "Dismiss"})
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments, bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
