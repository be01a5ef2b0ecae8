package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kmamqp "kmrecon/internal/amqp"
	"kmrecon/internal/backend"
	"kmrecon/internal/cli"
	"kmrecon/internal/httpapi"
	kmlog "kmrecon/internal/log"
	"kmrecon/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(kmlog.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	loader := session.NewLoader(result.Fetcher, cfg.Tabs, cfg.Vehicles, cfg.Thresholds(), nil)

	// AMQP is optional; without it reloads stay local to this process.
	amqpClient := cli.InitAMQP(logger, cfg)
	var publisher httpapi.ReloadPublisher
	if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First load; a failure here is not fatal, /readyz stays unready and a
	// later reload can still succeed.
	if _, err := loader.Reload(ctx); err != nil {
		logger.Error("Initial load failed", "error", err)
	}

	// Refresh announcements from the worker trigger a local reload.
	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeDataRefreshed(ctx, func(msg *kmamqp.DataRefreshedMessage) error {
				_, err := loader.Reload(ctx)
				return err
			})
			if err != nil && err != context.Canceled {
				logger.Error("Refresh consumption stopped", "error", err)
			}
		}()
	}

	srv := httpapi.NewServer(":"+cfg.Port, loader, cfg.Vehicles, cfg.Thresholds(), publisher)
	srv.Handler = kmlog.Middleware(logger.WithComponent(kmlog.ComponentHTTP))(srv.Handler)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

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

	logger.Info("Starting kmrecon server", "port", cfg.Port, "backend", cfg.DataBackend, "tabs", len(cfg.Tabs))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
