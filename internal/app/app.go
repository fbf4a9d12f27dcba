package app

import (
	"context"
	"fmt"
	"time"

	"github.com/galleyhq/galley/internal/api"
	"github.com/galleyhq/galley/internal/config"
	"github.com/galleyhq/galley/internal/logging"
	"github.com/galleyhq/galley/internal/prefs"
	"github.com/galleyhq/galley/internal/push"
	"github.com/galleyhq/galley/internal/ui"
)

// Options configure the galley application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses ~/.config/galley/prefs.toml
	View       string        // overrides the saved and configured view
	PollEvery  time.Duration // overrides the kitchen refresh; zero keeps config
	LogOutput  string        // overrides the log file; "-" is stderr
}

// Run boots the galley TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.Refresh.Kitchen = opts.PollEvery
	}

	logger, closer, err := logging.New(cfg.Log, "galley", opts.LogOutput)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("ignoring unreadable prefs", "path", prefsPath, "error", err)
	}

	client, err := api.NewClient(cfg.APIBase)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var source push.Source
	if cfg.Push.Enabled {
		source = push.NewAMQPSource(ctx, push.AMQPConfig{
			URL:      cfg.Push.URL,
			Exchange: cfg.Push.Exchange,
			Logger:   logger,
		})
	}

	logger.Info("galley starting",
		"api_base", client.BaseURL(),
		"push", cfg.Push.Enabled,
		"kitchen_refresh", cfg.Refresh.Kitchen.String(),
		"history_refresh", cfg.Refresh.History.String(),
		"stats_refresh", cfg.Refresh.Stats.String(),
	)

	svc := NewServices(Deps{
		Config: cfg,
		Client: client,
		Source: source,
		Logger: logger,
	})
	svc.Start(ctx)
	defer svc.Wait()
	defer cancel()

	err = ui.Run(ui.Options{
		Context:     ctx,
		View:        ui.ParseView(pickView(opts.View, userPrefs.View, cfg.View)),
		Kitchen:     svc.Kitchen,
		History:     svc.History,
		KitchenSync: svc.KitchenSync,
		HistorySync: svc.HistorySync,
		Commands:    svc.Dispatcher,
		Board:       svc.Board,
		Stats:       svc.Stats,
		StatsCtl:    svc.StatsPoller,
		LogPath:     cfg.Log.File,
		ThemeName:   userPrefs.Theme,
		PrefsPath:   prefsPath,
	})
	logger.Info("galley stopped", "error", err)
	return err
}

// pickView returns the first valid view: the flag, the saved preference,
// then the config file.
func pickView(candidates ...string) string {
	for _, v := range candidates {
		if config.ValidView(v) {
			return v
		}
	}
	return config.ViewKitchen
}
