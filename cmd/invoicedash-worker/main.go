package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"invoicedash/internal/amqp"
	"invoicedash/internal/config"
	applog "invoicedash/internal/log"
	"invoicedash/internal/sheets"
	"invoicedash/internal/storage"
	"invoicedash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "worker"})
	applog.SetDefault(logger)

	logger.Info("Starting invoicedash-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var store storage.Store
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		store = repo
	default:
		mem, err := storage.NewMemoryStoreFromFile(cfg.SeedFile)
		if err != nil {
			logger.Error("Failed to seed memory store", "error", err, "seed_file", cfg.SeedFile)
			os.Exit(1)
		}
		store = mem
	}

	// Spreadsheet mirroring is optional.
	var appender sheets.RowAppender
	if cfg.SheetsEnabled() {
		client, err := sheets.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.SheetsSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no SHEETS_SPREADSHEET_ID provided")
	}

	extractWorker := worker.NewExtractWorker(store, appender, cfg.ExtractBatchSize)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On startup, process any pending records that might have been missed
	logger.Info("Performing startup check...")
	if err := extractWorker.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup check", "error", err)
		// Don't exit - continue with normal operation
	}

	// Consume extraction jobs if a broker is configured
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.ConsumeExtractions(ctx, extractWorker.HandleExtractionMessage); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep only")
	}

	// Periodic sweep for records missed by the broker
	sweepLog := logger.WithComponent("sweeper")
	go func() {
		if err := extractWorker.Run(ctx, cfg.ExtractInterval); err != nil && err != context.Canceled {
			sweepLog.Error("Periodic sweep stopped", "error", err)
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give worker time to finish current operations
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
