package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var helpTitles = []string{"Views", "Navigation", "Orders", "Stats", "Log", "General"}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning)).Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	groups := m.keys.FullHelp()
	for i, group := range groups {
		title := ""
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		b.WriteString("\n")
		for _, binding := range group {
			b.WriteString(renderBinding(binding, keyStyle, styles))
		}
		if i < len(groups)-1 {
			b.WriteString("\n")
		}
	}
	return placeModal(m.theme, m.width, m.height, 44, b.String())
}

func renderBinding(binding key.Binding, keyStyle lipgloss.Style, styles Styles) string {
	h := binding.Help()
	return keyStyle.Render(h.Key) + styles.Text.Render(h.Desc) + "\n"
}
