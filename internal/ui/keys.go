package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Refresh    key.Binding
	Dismiss    key.Binding

	// View switching
	ViewKitchen key.Binding
	ViewHistory key.Binding
	ViewStats   key.Binding
	ViewLog     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Left   key.Binding
	Right  key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Order actions
	Advance  key.Binding
	Feedback key.Binding

	// Stats
	Regenerate key.Binding

	// Log
	ToggleFollow key.Binding
	CycleLevel   key.Binding

	// Modal
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss notice"),
		),

		ViewKitchen: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Kitchen"),
		),
		ViewHistory: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "History"),
		),
		ViewStats: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Stats"),
		),
		ViewLog: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Log"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/left", "Previous column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/right", "Next column"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Advance: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "Advance order"),
		),
		Feedback: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Leave feedback"),
		),

		Regenerate: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Regenerate stats"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Toggle follow mode"),
		),
		CycleLevel: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Cycle minimum level"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewKitchen, k.ViewHistory, k.ViewStats, k.ViewLog},
		{k.Up, k.Down, k.Left, k.Right, k.Top, k.Bottom},
		{k.Advance, k.Feedback, k.Refresh, k.Dismiss},
		{k.Regenerate},
		{k.ToggleFollow, k.CycleLevel},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
