package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(nil, log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume change events")
		os.Exit(1)
	}
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend is not shared with the API server, activity will not be visible to it")
	}

	// The worker only records activity, so it does not publish changes itself.
	app, err := cli.Bootstrap(context.Background(), cfg, logger, cli.Options{})
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	activity := worker.NewActivityWorker(app.Backend.DB, app.Ledger.Activity, logger)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		if err := consumer.Close(); err != nil {
			logger.Error("Failed to close AMQP client", log.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	})

	// Record anything created while no worker was running.
	if n, err := activity.StartupBackfill(ctx); err != nil {
		logger.Error("Startup backfill failed", log.FieldError, err)
	} else {
		logger.Info("Startup backfill complete", log.FieldCount, n)
	}

	if err := activity.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = consumer.Close()
		_ = app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
