// Package cli provides the initialization shared by the kakeibo binaries and
// the subcommands of the kakeibo command line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"kakeibo/internal/amqp"
	"kakeibo/internal/config"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	"kakeibo/internal/remote"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Bootstrap loads .env and the configuration, builds the logger writing to w
// and makes it the default. Invalid configuration is returned as an error
// after being logged.
func Bootstrap(component string, w io.Writer) (*config.Config, *applog.Logger, error) {
	LoadEnvFile()

	cfg := config.Load()
	// Unknown levels fall back to info; Validate reports them.
	level, _ := applog.ParseLevel(cfg.LogLevel)
	logger := applog.NewWithWriter(w, level, component)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		return nil, nil, err
	}
	return cfg, logger, nil
}

// MustBootstrap is Bootstrap for long-running mains: it exits on failure.
func MustBootstrap(component string) (*config.Config, *applog.Logger) {
	cfg, logger, err := Bootstrap(component, os.Stdout)
	if err != nil {
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// NewController wires a ledger controller to the expenses resource named by
// the configuration. Sync outcomes go to AMQP when it is configured and
// reachable. The returned cleanup closes the event publisher.
func NewController(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*ledger.Controller, func(), error) {
	client, err := remote.NewClient(cfg.ExpensesURL, remote.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("create expenses client: %w", err)
	}

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithRemoteTimeout(cfg.RemoteTimeout),
	}
	cleanup := func() {}

	if cfg.AMQPURL != "" {
		events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			opts = append(opts, ledger.WithEvents(events))
			cleanup = func() {
				if err := events.Close(); err != nil {
					logger.Warn("Failed to close AMQP client", applog.FieldError, err)
				}
			}
		}
	}

	return ledger.NewController(ledger.NewStore(), client, opts...), cleanup, nil
}
