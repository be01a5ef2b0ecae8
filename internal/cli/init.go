// Package cli provides common initialization shared by cmd/kmrecon and
// cmd/kmrecon-worker.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"kmrecon/internal/amqp"
	"kmrecon/internal/config"
	"kmrecon/internal/log"
)

// SetupLogger initializes structured logging with default settings and
// installs it as the process default.
func SetupLogger(component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitAMQP connects the optional messaging client. A missing URL or a
// connection failure yields nil; both binaries run fine without AMQP.
func InitAMQP(logger *log.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPReloadQueue, cfg.AMQPRefreshedQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"reload_queue", cfg.AMQPReloadQueue,
		"refreshed_queue", cfg.AMQPRefreshedQueue)
	return client
}
