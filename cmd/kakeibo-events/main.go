package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/cli"
	applog "kakeibo/internal/log"
	"kakeibo/internal/worker"
)

func main() {
	cfg, logger := cli.MustBootstrap(applog.ComponentAMQP)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	events := worker.NewEventWorker(logger)
	go events.RunSummaries(ctx, 10*time.Minute)

	logger.Info("Consuming ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := client.ConsumeEvents(ctx, events.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	s := events.Stats()
	logger.Info("Event consumer stopped", "failed", s.Failed, applog.FieldCount, len(s.Counts))
}
