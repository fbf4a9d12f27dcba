// Command galley-mock serves an in-memory ordering backend for trying galley
// without the real server. With --amqp-url it publishes push events to a
// broker; otherwise events are dropped and galley falls back to polling.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/galleyhq/galley/internal/config"
	"github.com/galleyhq/galley/internal/logging"
	"github.com/galleyhq/galley/internal/ordertest"
	"github.com/galleyhq/galley/internal/push"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:5000", "listen address")
	amqpURL := flag.String("amqp-url", "", "AMQP broker to publish order events to (optional)")
	exchange := flag.String("exchange", push.DefaultExchange, "AMQP exchange name")
	level := flag.String("log-level", "info", "log level: debug, info, warn or error")
	flag.Parse()

	logger, closer, err := logging.New(config.Log{Level: *level}, "galley-mock", logging.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "galley-mock: %v\n", err)
		return 1
	}
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var publisher push.Publisher
	if *amqpURL != "" {
		pub, err := push.DialPublisher(push.AMQPConfig{URL: *amqpURL, Exchange: *exchange, Logger: logger})
		if err != nil {
			logger.Error("connect broker", "error", err)
			return 1
		}
		defer pub.Close()
		publisher = pub
	}

	srv := ordertest.New(ordertest.Options{Publisher: publisher, Logger: logger})
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("galley-mock listening", "addr", *addr, "push", publisher != nil)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			return 1
		}
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", "error", err)
	}
	logger.Info("galley-mock stopped")
	return 0
}
