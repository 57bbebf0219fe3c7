package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"nrjtrack/internal/amqp"
	"nrjtrack/internal/cache"
	"nrjtrack/internal/cli"
	apphttp "nrjtrack/internal/http"
	"nrjtrack/internal/log"
	"nrjtrack/internal/ports"
	"nrjtrack/internal/report"
	"nrjtrack/internal/services"
)

const cacheSweepInterval = time.Minute

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		cli.SetupLogger(slog.LevelInfo, log.ComponentApp).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.SlogLevel(), log.ComponentApp)
	logger.Info("Starting nrjtrack server", "port", cfg.Port, "backend", cfg.DataBackend)

	schema := cli.LoadSchema(logger, cfg)
	store := cli.MustOpenStore(context.Background(), logger, cfg, schema)
	defer store.Close()

	// AMQP is optional: readings are saved locally first and the worker
	// catches up on its periodic resync.
	var publisher ports.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change messages", log.FieldError, err)
		} else {
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - readings will not be announced")
	}

	exports := cache.NewLRUCache[services.ExportEntry](cfg.ExportCacheSize, cfg.ExportCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(exports)

	readings := services.NewReadingService(store.Store, publisher, schema, logger)
	defer readings.Close()
	reports := services.NewReportService(store.Store, report.NewEngine(schema), exports, logger)

	srv, err := apphttp.NewServer(":"+cfg.Port, readings, reports, store.Ping, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cacheManager.Run(gctx, cacheSweepInterval)
	})
	g.Go(func() error {
		return srv.RateLimiter().Run(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
