// Package logging builds galley's structured logger.
//
// The terminal belongs to the Bubble Tea program, so records are written as
// JSON lines to a file (the same file the log view tails). Passing "-" as the
// output sends them to stderr, which is what galley-mock uses.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/galleyhq/galley/internal/config"
)

// Stderr selects standard error as the log output.
const Stderr = "-"

// ParseLevel maps a config level to a slog level. Unknown values are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger tagged with service. output overrides cfg.File
// when non-empty. The returned closer releases the log file and must be
// called on shutdown; it is a no-op for stderr.
func New(cfg config.Log, service, output string) (*slog.Logger, io.Closer, error) {
	dest := strings.TrimSpace(output)
	if dest == "" {
		dest = cfg.File
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if dest != Stderr {
		path, err := config.ExpandPath(dest)
		if err != nil {
			return nil, nil, fmt.Errorf("log file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = file, file
	}

	return NewWriter(w, service, ParseLevel(cfg.Level)), closer, nil
}

// NewWriter returns a JSON logger writing to w.
func NewWriter(w io.Writer, service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With("service", service)
	if host, err := os.Hostname(); err == nil {
		logger = logger.With("hostname", host)
	}
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
