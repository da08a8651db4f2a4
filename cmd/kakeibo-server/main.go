package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/cli"
	apphttp "kakeibo/internal/http"
	applog "kakeibo/internal/log"
)

func main() {
	cfg, logger := cli.MustBootstrap(applog.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	ctrl, cleanup, err := cli.NewController(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", applog.FieldError, err)
		os.Exit(1)
	}
	defer cleanup()

	// The ledger still serves an empty list when the resource is down.
	if err := ctrl.LoadAll(ctx); err != nil {
		logger.Warn("Initial load failed, starting with an empty ledger", applog.FieldError, err)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ctrl, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting kakeibo server", "port", cfg.Port, applog.FieldURL, cfg.ExpensesURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
