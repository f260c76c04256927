package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kakeibo/internal/amqp"
	"kakeibo/internal/config"
	apphttp "kakeibo/internal/http"
	"kakeibo/internal/ledger"
	applog "kakeibo/internal/log"
	"kakeibo/internal/memory"
	"kakeibo/internal/plan"
	"kakeibo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.ConfigFromEnv(applog.ComponentApp))
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Choose data backend (default: memory).
	var (
		ledgerStore ledgerPorts
		planStore   planPorts
		closeStore  func() error
	)
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		ledgerStore, planStore, closeStore = repo, repo, repo.Close
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		store := memory.NewStore()
		ledgerStore, planStore, closeStore = store, store, func() error { return nil }
		logger.Info("Initialized memory backend")
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	// Balance sync publishing is best-effort: without a broker the
	// ledger still works, balances just aren't mirrored.
	var publisher ledger.BalancePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, balance sync disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ledgerSvc := ledger.NewService(ledgerStore, ledgerStore, ledgerStore, ledgerStore, publisher)
	planSvc := plan.NewService(planStore, planStore, planStore, planStore, ledgerStore, cfg.HorizonMonths)

	srv := apphttp.NewServer(":"+cfg.Port, ledgerSvc, planSvc)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting kakeibo server", "port", cfg.Port, "backend", cfg.DataBackend, "horizon_months", cfg.HorizonMonths)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// ledgerPorts is the union of stores the ledger service needs; both
// backends satisfy it.
type ledgerPorts interface {
	ledger.IncomeRepo
	ledger.OutcomeRepo
	ledger.SavingRepo
	ledger.AdjustmentRepo
}

// planPorts is the union of stores the planning service needs.
type planPorts interface {
	plan.PartTimeJobRepo
	plan.MonthlyOutcomeRepo
	plan.TemporaryIncomeRepo
	plan.TemporaryOutcomeRepo
}
