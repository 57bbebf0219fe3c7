package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"nrjtrack/internal/amqp"
	"nrjtrack/internal/cli"
	"nrjtrack/internal/log"
	"nrjtrack/internal/report"
	gsheet "nrjtrack/internal/sheets/google"
	"nrjtrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger(slog.LevelInfo, log.ComponentWorker).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.SlogLevel(), log.ComponentWorker)
	logger.Info("Starting nrjtrack-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	schema := cli.LoadSchema(logger, cfg)
	store := cli.MustOpenStore(context.Background(), logger, cfg, schema)
	defer store.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background(), logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", sheetsClient.SheetName())

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(store.Store, report.NewEngine(schema), sheetsClient, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on changes made while the worker was down.
	logger.Info("Performing startup sync...")
	if err := syncWorker.Sync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeReadingChanged(gctx, syncWorker.HandleReadingChanged)
	})
	g.Go(func() error {
		return syncWorker.RunResync(gctx, cfg.SheetsResyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
