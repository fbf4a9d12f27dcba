package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds galley's settings.
type Config struct {
	APIBase string
	View    string
	Refresh Refresh
	Push    Push
	Log     Log
}

// Refresh holds the timer cadence of each view.
type Refresh struct {
	Kitchen time.Duration
	History time.Duration
	Stats   time.Duration
}

// Push configures the AMQP push channel.
type Push struct {
	Enabled  bool
	URL      string
	Exchange string
}

// Log configures galley's own log output.
type Log struct {
	File  string
	Level string
}

// Views galley can open.
const (
	ViewKitchen = "kitchen"
	ViewHistory = "history"
	ViewStats   = "stats"
	ViewLog     = "log"
)

// Views lists the views in display order.
var Views = []string{ViewKitchen, ViewHistory, ViewStats, ViewLog}

const (
	defaultConfigPath = "~/.config/galley/config.toml"
	defaultAPIBase    = "127.0.0.1:5000"
	defaultExchange   = "orders.events"
	defaultLogFile    = "~/.local/state/galley/galley.log"
	defaultLogLevel   = "info"

	defaultKitchenRefresh = 10 * time.Second
	defaultHistoryRefresh = 30 * time.Second
	defaultStatsRefresh   = 5 * time.Minute
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase: defaultAPIBase,
		View:    ViewKitchen,
		Refresh: Refresh{
			Kitchen: defaultKitchenRefresh,
			History: defaultHistoryRefresh,
			Stats:   defaultStatsRefresh,
		},
		Push: Push{Exchange: defaultExchange},
		Log:  Log{File: mustExpand(defaultLogFile), Level: defaultLogLevel},
	}
}

type rawConfig struct {
	APIBase string `toml:"api_base" yaml:"api_base"`
	View    string `toml:"view" yaml:"view"`
	Refresh struct {
		Kitchen string `toml:"kitchen" yaml:"kitchen"`
		History string `toml:"history" yaml:"history"`
		Stats   string `toml:"stats" yaml:"stats"`
	} `toml:"refresh" yaml:"refresh"`
	Push struct {
		Enabled  *bool  `toml:"enabled" yaml:"enabled"`
		URL      string `toml:"url" yaml:"url"`
		Exchange string `toml:"exchange" yaml:"exchange"`
	} `toml:"push" yaml:"push"`
	Log struct {
		File  string `toml:"file" yaml:"file"`
		Level string `toml:"level" yaml:"level"`
	} `toml:"log" yaml:"log"`
}

// Load reads the config at path, falling back to defaults when the file is
// missing. Files ending in .yaml or .yml are parsed as YAML, anything else
// as TOML.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &raw)
	default:
		err = toml.Unmarshal(bytes, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return raw.resolve()
}

func (raw rawConfig) resolve() (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.View)); v != "" {
		if !ValidView(v) {
			return Config{}, fmt.Errorf("parse config: unknown view %q", raw.View)
		}
		cfg.View = v
	}

	for _, field := range []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"refresh.kitchen", raw.Refresh.Kitchen, &cfg.Refresh.Kitchen},
		{"refresh.history", raw.Refresh.History, &cfg.Refresh.History},
		{"refresh.stats", raw.Refresh.Stats, &cfg.Refresh.Stats},
	} {
		v := strings.TrimSpace(field.value)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %s: %w", field.name, err)
		}
		if d <= 0 {
			return Config{}, fmt.Errorf("parse config: %s must be positive", field.name)
		}
		*field.dest = d
	}

	cfg.Push.URL = strings.TrimSpace(raw.Push.URL)
	if v := strings.TrimSpace(raw.Push.Exchange); v != "" {
		cfg.Push.Exchange = v
	}
	cfg.Push.Enabled = cfg.Push.URL != ""
	if raw.Push.Enabled != nil {
		cfg.Push.Enabled = *raw.Push.Enabled && cfg.Push.URL != ""
	}

	if v := strings.TrimSpace(raw.Log.File); v != "" {
		cfg.Log.File = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Log.Level)); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

// ValidView reports whether name is a known view.
func ValidView(name string) bool {
	for _, v := range Views {
		if v == name {
			return true
		}
	}
	return false
}

// RefreshFor returns the timer cadence of view. The log view has none.
func (c Config) RefreshFor(view string) time.Duration {
	switch view {
	case ViewKitchen:
		return c.Refresh.Kitchen
	case ViewHistory:
		return c.Refresh.History
	case ViewStats:
		return c.Refresh.Stats
	}
	return 0
}

// DefaultPath returns the config location used when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) { return expandPath(path) }

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
