package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"risparmio/internal/amqp"
	"risparmio/internal/config"
	apphttp "risparmio/internal/http"
	"risparmio/internal/log"
	"risparmio/internal/model"
	"risparmio/internal/services"
	"risparmio/internal/storage"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}
	defer store.Close()

	registry, err := model.Load(cfg.ModelDir)
	if err != nil {
		logger.Error("Failed to load model artifacts", "error", err, "dir", cfg.ModelDir)
		os.Exit(1)
	}
	logger.Info("Model registry ready", "models", registry.Len(), "dir", cfg.ModelDir)

	agg := services.NewAggregator(store)
	features := services.NewFeatureBuilder(store, agg, cfg.FeatureSchema, registry.Schema())
	predictor := services.NewPredictionService(registry, agg, features,
		cfg.NegativePredictionPolicy == config.NegativeClamp)
	trends := services.NewTrendAnalyzer(store)

	// Spreadsheet export publisher is optional; without a broker the
	// API still works, rows just stay queued as pending.
	var publisher apphttp.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, predictor, trends, publisher,
		registry.Len(), cfg.DefaultTrendDays, logger)

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

	logger.Info("Starting risparmio server",
		"port", cfg.Port,
		"backend", cfg.StorageBackend,
		"models", registry.Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
