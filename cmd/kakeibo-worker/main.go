package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/config"
	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
	"kakeibo/internal/plan"
	"kakeibo/internal/sheets"
	gsheet "kakeibo/internal/sheets/google"
	sheetmem "kakeibo/internal/sheets/memory"
	"kakeibo/internal/storage"
	"kakeibo/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.ConfigFromEnv(applog.ComponentWorker))
	applog.SetDefault(logger)

	logger.Info("Starting kakeibo-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Balance writer: Google Sheets when configured, in-process otherwise.
	var writer sheets.BalanceWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = sheetmem.NewWriter()
		logger.Info("Google Sheets disabled - balances kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(repo, writer)
	if err := syncWorker.StartupSyncCheck(ctx, core.YMOf(time.Now())); err != nil {
		logger.Error("Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	planSvc := plan.NewService(repo, repo, repo, repo, repo, cfg.HorizonMonths)
	warmup := worker.NewWarmupWorker(planSvc, cfg.WarmupMonths, cfg.WarmupInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeBalanceSync(gctx, func(msg *amqp.BalanceSyncMessage) error {
			return syncWorker.HandleSyncMessage(gctx, msg)
		})
	})
	g.Go(func() error {
		return warmup.Run(gctx)
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Worker context cancelled")
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
