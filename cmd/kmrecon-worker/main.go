package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	kmamqp "kmrecon/internal/amqp"
	"kmrecon/internal/cli"
	kmlog "kmrecon/internal/log"
	"kmrecon/internal/source/google"
	"kmrecon/internal/source/sqlite"
	"kmrecon/internal/worker"
)

// The worker pulls every tab from Google Sheets on an interval, persists
// the raw CSV into the SQLite snapshot store, and announces refreshes over
// AMQP. The server can then run on the sqlite backend without sheet
// credentials of its own.
func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(kmlog.ComponentWorker)

	logger.Info("Starting kmrecon-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	upstream, err := google.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite snapshot store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// AMQP is optional; without it refreshes are periodic only.
	amqpClient := cli.InitAMQP(logger, cfg)
	var publisher worker.Publisher
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	w := worker.NewRefreshWorker(upstream, store, cfg.Tabs, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// On-demand reload requests from the dashboard.
	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeReloadRequests(ctx, func(msg *kmamqp.ReloadRequestMessage) error {
				return w.HandleReloadRequest(ctx, msg)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Reload request consumption stopped", "error", err)
				cancel()
			}
		}()
	}

	go func() {
		if err := w.Run(ctx, cfg.RefreshInterval); err != nil && err != context.Canceled {
			logger.Error("Refresh loop stopped", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	// Give in-flight fetches a moment to finish before the deferred closes.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
