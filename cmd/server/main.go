package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/puzzle-league/internal/config"
	"github.com/puzzle-league/internal/handler"
	"github.com/puzzle-league/internal/kafka"
	"github.com/puzzle-league/internal/postgres"
	"github.com/puzzle-league/internal/redis"
	"github.com/puzzle-league/internal/service"
	"github.com/puzzle-league/internal/websocket"
	"github.com/puzzle-league/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	store, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := store.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize Redis live boards. The weekly leaderboard never touches
	// Redis, so the service stays functional without it.
	var live *redis.LiveBoard
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	live, err = redis.NewLiveBoard(&cfg.Redis, cfg.League.LiveExpiry, logger)
	if err != nil {
		logger.Warn("failed to connect to Redis, live standings disabled", "error", err)
		live = nil
	} else {
		defer live.Close()
		logger.Info("connected to Redis")
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize service
	var liveBoard service.LiveBoard
	if live != nil {
		liveBoard = live
	}
	svc := service.New(store, liveBoard, cfg.League.LiveLimit, logger)
	svc.SetHub(wsHub)

	// Initialize live-board rebuild worker
	var rebuildWorker *worker.RebuildWorker
	if live != nil {
		rebuildWorker = worker.NewRebuildWorker(live, store, &cfg.Sync, logger)

		// Rebuild today's boards from the database on startup (recovery)
		logger.Info("rebuilding live boards from database")
		if err := rebuildWorker.RebuildToday(ctx); err != nil {
			logger.Warn("failed to rebuild live boards on startup", "error", err)
		}

		if cfg.Sync.Enabled {
			if err := rebuildWorker.Start(ctx); err != nil {
				logger.Error("failed to start rebuild worker", "error", err)
				os.Exit(1)
			}
		}
	}

	// Initialize Kafka consumer for chat-bridge submission ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, svc, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(svc, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop rebuild worker
	if rebuildWorker != nil {
		if err := rebuildWorker.Stop(); err != nil {
			logger.Error("failed to stop rebuild worker", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
