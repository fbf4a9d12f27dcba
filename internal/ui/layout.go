package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders text so every cell, spaces included, carries the same
// background. lipgloss resets between styled segments otherwise leave gaps.
type BgStyle struct {
	bg    lipgloss.Color
	space string
}

// NewBgStyle creates a helper for the given background color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style on the helper's background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	wordStyle := style.Background(b.bg)
	if !strings.Contains(text, " ") {
		return wordStyle.Render(text)
	}
	words := strings.Split(text, " ")
	for i, w := range words {
		if w != "" {
			words[i] = wordStyle.Render(w)
		}
	}
	return strings.Join(words, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string { return b.space }

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, lipgloss.NewStyle().Background(b.bg).Render(sep))
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// renderBox draws a titled rounded border around content, sized to
// width x height including the border.
func (m Model) renderBox(title, content string, width, height int, focused bool) string {
	border := m.theme.Border
	bgColor := m.theme.Surface
	if focused {
		border = m.theme.BorderFocus
		bgColor = m.theme.FocusBg
	}
	innerW := maxInt(width-2, 1)
	innerH := maxInt(height-2, 1)

	lines := strings.Split(content, "\n")
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	bg := NewBgStyle(bgColor)
	for i, line := range lines {
		lines[i] = bg.FillLine(line, innerW)
	}
	for len(lines) < innerH {
		lines = append(lines, bg.Spaces(innerW))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Width(innerW).
		Render(strings.Join(lines, "\n"))

	if title == "" {
		return box
	}
	// Splice the title into the top border.
	rows := strings.SplitN(box, "\n", 2)
	label := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Background(lipgloss.Color(m.theme.Background)).
		Bold(true).
		Render(" " + truncate(title, maxInt(innerW-4, 1)) + " ")
	edge := lipgloss.NewStyle().
		Foreground(lipgloss.Color(border)).
		Background(lipgloss.Color(m.theme.Background))
	fill := maxInt(innerW-lipgloss.Width(label)-1, 0)
	top := edge.Render("╭─") + label + edge.Render(strings.Repeat("─", fill)+"╮")
	if len(rows) == 1 {
		return top
	}
	return top + "\n" + rows[1]
}

// columnWidths splits total into n widths that add up to total.
func columnWidths(total, n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	base := total / n
	extra := total % n
	for i := range widths {
		widths[i] = base
		if i < extra {
			widths[i]++
		}
	}
	return widths
}
