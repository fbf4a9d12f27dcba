// Package ui is galley's Bubble Tea terminal interface.
//
// # Views
//
//   - Kitchen: active orders in Pending, Preparing and Ready columns, oldest
//     first, with the primary action of each card and a station strip.
//   - History: every order, newest first, with feedback prompts for
//     completed orders that have none.
//   - Stats: today's figures and the last seven days, refreshed slowly.
//   - Log: galley's own JSON log, parsed by logtail, with a level filter.
//
// # Event Flow
//
// The model never polls its sources. Stores, the command dispatcher, the
// notice board and the stats store signal a one-slot channel when they
// change; a waiting command turns that into a message and the model pulls
// fresh snapshots. A one-second tick keeps ages and notice expiry current.
//
// Actions run as commands off the UI goroutine. While an advance is in
// flight its card shows "Updating..." and enter does nothing for it.
// Completing an order opens the feedback dialog.
//
// # Key Bindings
//
//   - 1-4, tab, shift+tab: switch views
//   - h/l, j/k, g/G: move between columns and rows
//   - enter: advance the selected order
//   - f: leave feedback (history)
//   - R: regenerate statistics
//   - F, L: follow and level filter (log)
//   - r: refresh the current view now
//   - x: dismiss the newest notice
//   - T: cycle theme, ?: help, q or ctrl+c: quit
package ui
