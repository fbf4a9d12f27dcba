package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/galleyhq/galley/internal/orders"
)

const (
	minRating     = 1
	maxRating     = 5
	defaultRating = 5
)

// feedbackSubmitMsg asks the model to send a rating for an order.
type feedbackSubmitMsg struct {
	orderID  int64
	feedback orders.Feedback
}

// feedbackModal collects a star rating and an optional comment.
type feedbackModal struct {
	order   orders.Order
	rating  int
	comment textinput.Model
}

func newFeedbackModal(o orders.Order) *feedbackModal {
	ti := textinput.New()
	ti.Placeholder = "Comment (optional)"
	ti.CharLimit = 200
	ti.Width = 40
	ti.Focus()
	return &feedbackModal{order: o, rating: defaultRating, comment: ti}
}

func (f *feedbackModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil, false
	}
	switch {
	case key.Matches(km, keys.Cancel):
		return f, nil, true
	case key.Matches(km, keys.Confirm):
		submit := feedbackSubmitMsg{
			orderID: f.order.ID,
			feedback: orders.Feedback{
				Rating:  f.rating,
				Comment: strings.TrimSpace(f.comment.Value()),
			},
		}
		return f, func() tea.Msg { return submit }, true
	}
	switch km.Type {
	case tea.KeyUp, tea.KeyRight:
		if f.rating < maxRating {
			f.rating++
		}
		return f, nil, false
	case tea.KeyDown, tea.KeyLeft:
		if f.rating > minRating {
			f.rating--
		}
		return f, nil, false
	}
	var cmd tea.Cmd
	f.comment, cmd = f.comment.Update(km)
	return f, cmd, false
}

func (f *feedbackModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	stars := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Warning)).
		Render(strings.Repeat("★", f.rating)) +
		styles.FaintText.Render(strings.Repeat("☆", maxRating-f.rating))

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf("How was order #%d?", f.order.ID)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(f.order.CustomerName))
	b.WriteString("\n\n")
	b.WriteString(stars)
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("  %d/%d", f.rating, maxRating)))
	b.WriteString("\n\n")
	b.WriteString(f.comment.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("←/→ rating  enter send  esc skip"))
	return placeModal(theme, width, height, 48, b.String())
}
