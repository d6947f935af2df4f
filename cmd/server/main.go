package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lineview/odds-aggregator/internal/adapter"
	"github.com/lineview/odds-aggregator/internal/adapter/oddsapi"
	"github.com/lineview/odds-aggregator/internal/adapter/scrape"
	"github.com/lineview/odds-aggregator/internal/aggregator"
	"github.com/lineview/odds-aggregator/internal/config"
	httpHandler "github.com/lineview/odds-aggregator/internal/handler/http"
	"github.com/lineview/odds-aggregator/internal/identity"
	"github.com/lineview/odds-aggregator/internal/messaging"
	"github.com/lineview/odds-aggregator/internal/models"
	"github.com/lineview/odds-aggregator/internal/normalizer"
	"github.com/lineview/odds-aggregator/internal/scheduler"
	"github.com/lineview/odds-aggregator/internal/service"
	"github.com/lineview/odds-aggregator/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting odds-aggregator")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create snapshot store
	snapshotStore := store.NewRedisStore(
		store.RedisStoreConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Retention: cfg.Redis.Retention,
		},
		logger,
	)
	defer snapshotStore.Close()

	// Test Redis connection
	if err := snapshotStore.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	// Build canonical identity resolver with configured extensions
	resolver := identity.NewResolver(logger)
	for id, name := range cfg.Identity.Entities {
		resolver.RegisterEntity(id, name)
	}
	for alias, id := range cfg.Identity.Aliases {
		resolver.RegisterAlias(alias, id)
	}
	for _, sa := range cfg.Identity.SourceAliases {
		resolver.RegisterSourceAlias(sa.Source, sa.Alias, sa.ID)
	}

	// Core pipeline
	events := normalizer.NewEventRegistry()
	selections := normalizer.NewSelectionCatalog()
	norm := normalizer.New(resolver, events, selections, logger)
	engine := aggregator.New(selections, logger)
	logger.Info().Msg("aggregation pipeline initialized")

	// Source adapters
	adapters := buildAdapters(cfg, logger)
	if len(adapters) == 0 {
		logger.Fatal().Msg("no enabled sources configured")
	}
	logger.Info().Int("source_count", len(adapters)).Msg("source adapters initialized")

	// Optional Kafka snapshot publisher
	var publisher scheduler.Publisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := messaging.NewKafkaPublisher(
			messaging.KafkaPublisherConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
			},
			logger,
		)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info().Str("topic", cfg.Kafka.Topic).Msg("Kafka snapshot publisher enabled")
	}

	// Cycle scheduler
	sched := scheduler.New(
		scheduler.Config{
			Intervals:      cfg.Scheduler.Intervals(),
			AdapterTimeout: cfg.Scheduler.AdapterTimeout,
		},
		adapters,
		norm,
		engine,
		snapshotStore,
		publisher,
		logger,
	)

	// Start scheduler in goroutine
	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped")
		}
	}()

	// Query facade and HTTP handler
	queryService := service.NewQueryService(snapshotStore, resolver, logger)
	oddsHandler := httpHandler.NewOddsHandler(queryService, logger)

	// Setup HTTP server routes
	mux := http.NewServeMux()

	// Health and monitoring endpoints
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, snapshotStore)
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Register API routes
	oddsHandler.RegisterRoutes(mux)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop the scheduler
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// buildAdapters instantiates one adapter per enabled source.
func buildAdapters(cfg *config.Config, logger zerolog.Logger) []adapter.Adapter {
	var adapters []adapter.Adapter
	for _, src := range cfg.EnabledSources() {
		switch src.Category {
		case string(models.CategoryScrape):
			adapters = append(adapters, scrape.New(scrape.Config{
				SourceID:    src.ID,
				URL:         src.URL,
				StateMarker: src.StateMarker,
			}, logger))
		default:
			adapters = append(adapters, oddsapi.New(oddsapi.Config{
				SourceID:  src.ID,
				BaseURL:   src.BaseURL,
				APIKey:    src.APIKey,
				SportKey:  src.SportKey,
				Bookmaker: src.Bookmaker,
				Markets:   src.Markets,
			}, logger))
		}
	}
	return adapters
}

// setupLogger configures the logger based on config.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "odds-aggregator").Logger()
}

// healthHandler returns 200 if the service is running.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 if the service is ready to accept traffic.
func readyHandler(w http.ResponseWriter, r *http.Request, store *store.RedisStore) {
	// Check Redis connection
	if err := store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Redis unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
