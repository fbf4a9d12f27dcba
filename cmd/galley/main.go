package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/galleyhq/galley/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.StringP("config", "c", "", "config file (default ~/.config/galley/config.toml)")
	view := flag.String("view", "", "view to open: kitchen, history, stats or log")
	poll := flag.Duration("poll", 0, "kitchen refresh interval, e.g. 5s (overrides config)")
	logOutput := flag.String("log-output", "", `log file, or "-" for stderr (overrides config)`)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		View:       *view,
		PollEvery:  *poll,
		LogOutput:  *logOutput,
	}
	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "galley: %v\n", err)
		return 1
	}
	return 0
}
