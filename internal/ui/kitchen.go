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

// kitchenColumns are the board columns, in lifecycle order.
var kitchenColumns = []orders.Status{orders.StatusPending, orders.StatusPreparing, orders.StatusReady}

const stationRows = 3

type kitchenSelection struct {
	column int
	rows   [3]int
}

// column returns the orders of a board column, oldest first.
func (m Model) column(i int) []orders.Order {
	var out []orders.Order
	for _, o := range m.kitchenSnap.Orders {
		if o.Status == kitchenColumns[i] {
			out = append(out, o)
		}
	}
	orders.SortByOldest(out)
	return out
}

func (m Model) selectedKitchenOrder() (orders.Order, bool) {
	list := m.column(m.kitchenSel.column)
	row := m.kitchenSel.rows[m.kitchenSel.column]
	if row < 0 || row >= len(list) {
		return orders.Order{}, false
	}
	return list[row], true
}

func (m *Model) clampSelection() {
	for i := range kitchenColumns {
		n := len(m.column(i))
		if m.kitchenSel.rows[i] >= n {
			m.kitchenSel.rows[i] = maxInt(n-1, 0)
		}
	}
	if n := len(m.historySnap.Orders); m.historyRow >= n {
		m.historyRow = maxInt(n-1, 0)
	}
}

func (m Model) handleKitchenKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel := &m.kitchenSel
	count := len(m.column(sel.column))

	switch {
	case key.Matches(msg, m.keys.Left):
		if sel.column > 0 {
			sel.column--
		}
	case key.Matches(msg, m.keys.Right):
		if sel.column < len(kitchenColumns)-1 {
			sel.column++
		}
	case key.Matches(msg, m.keys.Up):
		if sel.rows[sel.column] > 0 {
			sel.rows[sel.column]--
		}
	case key.Matches(msg, m.keys.Down):
		if sel.rows[sel.column] < count-1 {
			sel.rows[sel.column]++
		}
	case key.Matches(msg, m.keys.Top):
		sel.rows[sel.column] = 0
	case key.Matches(msg, m.keys.Bottom):
		sel.rows[sel.column] = maxInt(count-1, 0)
	case key.Matches(msg, m.keys.Advance):
		if o, ok := m.selectedKitchenOrder(); ok {
			return m, m.advanceCmd(o.ID)
		}
	}
	return m, nil
}

// renderKitchen renders the three status columns and the station strip.
func (m Model) renderKitchen() string {
	height := m.contentHeight()
	if m.activeCount() == 0 {
		return m.renderKitchenEmpty(height)
	}

	boardHeight := height - stationRows
	widths := columnWidths(m.width, len(kitchenColumns))
	cols := make([]string, len(kitchenColumns))
	for i, status := range kitchenColumns {
		list := m.column(i)
		title := fmt.Sprintf("%s (%d)", status.Label(), len(list))
		focused := i == m.kitchenSel.column
		cols[i] = m.renderBox(title, m.renderColumn(i, list, widths[i]-2, focused), widths[i], boardHeight, focused)
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return board + "\n" + m.renderStations()
}

func (m Model) renderKitchenEmpty(height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	counts := make([]string, 0, len(kitchenColumns))
	for _, status := range kitchenColumns {
		counts = append(counts, bg.Render(status.Label()+":", styles.MutedText)+bg.Space()+bg.Render("0", styles.Text))
	}
	body := bg.Render("No active orders", styles.MutedText) + "\n\n" + bg.Join(counts, "   ")
	return m.renderBox("Kitchen", body, m.width, height, false)
}

func (m Model) renderColumn(col int, list []orders.Order, width int, focused bool) string {
	bgColor := ternary(focused, m.theme.FocusBg, m.theme.Surface)
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	if len(list) == 0 {
		return bg.Render("Nothing here", styles.FaintText)
	}

	var cards []string
	for row, o := range list {
		selected := focused && row == m.kitchenSel.rows[col]
		cards = append(cards, m.renderCard(o, width, selected, styles, bg))
	}
	return strings.Join(cards, "\n"+bg.Spaces(width)+"\n")
}

// renderCard renders one order ticket: header, items, action.
func (m Model) renderCard(o orders.Order, width int, selected bool, styles Styles, bg BgStyle) string {
	if selected {
		styles = m.theme.Styles().WithBackground(m.theme.SelectionBg)
		bg = NewBgStyle(m.theme.SelectionBg)
	}

	idText := fmt.Sprintf("#%d", o.ID)
	age := formatAge(m.now, o.StatusChangedAt())
	nameWidth := maxInt(width-len(idText)-len(age)-3, 4)
	head := bg.Render(idText, styles.AccentText.Bold(true)) + bg.Space() +
		bg.Render(padRight(truncate(o.CustomerName, nameWidth), nameWidth), styles.Text) + bg.Space() +
		bg.Render(age, styles.MutedText)

	lines := []string{head}
	for _, item := range o.Items {
		line := fmt.Sprintf("%d× %s", item.Quantity, item.ProductName)
		lines = append(lines, bg.Render(truncate(line, width), styles.Text))
		if summary := item.Customizations.Summary(", "); summary != "" {
			lines = append(lines, bg.Render(truncate("  "+summary, width), styles.MutedText))
		}
	}
	lines = append(lines, m.renderAction(o, styles, bg))

	for i, line := range lines {
		lines[i] = bg.FillLine(line, width)
	}
	return strings.Join(lines, "\n")
}

// renderAction shows the primary action, or its progress while the
// command is in flight.
func (m Model) renderAction(o orders.Order, styles Styles, bg BgStyle) string {
	label := o.Status.ActionLabel()
	if label == "" {
		return ""
	}
	if m.commands != nil {
		st := m.commands.State(dispatch.AdvanceKey(o.ID))
		if st.Phase == dispatch.Pending {
			return bg.Render("Updating...", styles.WarningText)
		}
		if st.Phase == dispatch.Failed {
			return bg.Render("[enter] "+label, styles.AccentText) + bg.Space() + bg.Render("failed", styles.DangerText)
		}
	}
	return bg.Render("[enter] "+label, styles.AccentText)
}

// renderStations shows how much work sits at each station, counting orders
// still waiting as well as those being prepared.
func (m Model) renderStations() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var working []orders.Order
	for _, o := range m.kitchenSnap.Orders {
		if o.Status == orders.StatusPending || o.Status == orders.StatusPreparing {
			working = append(working, o)
		}
	}
	load := orders.StationLoad(working)

	parts := make([]string, 0, len(orders.Stations))
	for _, st := range orders.Stations {
		tickets := load[st]
		label := bg.Render(st.Label(), styles.Text.Bold(true)) + bg.Space()
		if len(tickets) == 0 {
			parts = append(parts, label+bg.Render("Station free", styles.SuccessText))
			continue
		}
		qty := 0
		for _, t := range tickets {
			qty += t.Item.Quantity
		}
		parts = append(parts, label+
			bg.Render(fmt.Sprintf("%d items", qty), styles.WarningText)+bg.Space()+
			bg.Render(st.Estimate(), styles.MutedText))
	}
	return m.renderBox("Stations", bg.Join(parts, "   "), m.width, stationRows, false)
}
