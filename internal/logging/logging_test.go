package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/galleyhq/galley/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"loud":    slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWriter_EmitsJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, "galley", slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("refetch applied", "orders", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["service"] != "galley" {
		t.Fatalf("service = %v, want galley", rec["service"])
	}
	if rec["msg"] != "refetch applied" {
		t.Fatalf("msg = %v", rec["msg"])
	}
	if rec["orders"] != float64(3) {
		t.Fatalf("orders = %v, want 3", rec["orders"])
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "galley.log")

	logger, closer, err := New(config.Log{File: path, Level: "debug"}, "galley", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Fatalf("log file = %q, want the debug record", data)
	}
}

func TestNew_OutputOverridesFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "ignored.log")
	outPath := filepath.Join(t.TempDir(), "chosen.log")

	logger, closer, err := New(config.Log{File: cfgPath}, "galley", outPath)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("x")
	_ = closer.Close()

	if _, err := os.Stat(cfgPath); !os.IsNotExist(err) {
		t.Fatalf("config log file was created")
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("output log file missing: %v", err)
	}

	_, closer, err = New(config.Log{File: cfgPath}, "galley", Stderr)
	if err != nil {
		t.Fatalf("New(stderr) returned error: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("stderr Close: %v", err)
	}
}
