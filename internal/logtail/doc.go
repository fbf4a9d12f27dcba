// Package logtail reads the tail of galley's own log file for the log view.
//
// # Reading
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays at O(maxLines) however large the file grows. A missing file
// yields no lines and no error; the logger may simply not have written yet.
//
//	lines, err := logtail.Read(cfg.Log.File, 400)
//
// # Parsing
//
// galley logs JSON lines through log/slog. Parse turns one line into an Entry
// with the time, level, message and component split out and every other
// attribute flattened to sorted key=value pairs. Lines that are not JSON (a
// panic trace, output from an older build) come back with only Raw set so the
// view can still show them verbatim.
//
// AtLeast filters entries by minimum level for the log view's level toggle.
// Styling is left to the ui package.
package logtail
