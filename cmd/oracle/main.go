// Command oracle is the primary Weather Oracle server: it serves the
// forecast/geocode/metrics HTTP API and runs a background cache warmer
// for a configured set of locations. Startup connects optional
// infrastructure before serving: a missing REDIS_URL or DB_URL degrades
// to a disabled cache or skipped audit trail rather than a fatal exit.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weather-oracle/oracle/internal/cache"
	"github.com/weather-oracle/oracle/internal/config"
	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/fanout"
	"github.com/weather-oracle/oracle/internal/fetch"
	"github.com/weather-oracle/oracle/internal/geocode"
	"github.com/weather-oracle/oracle/internal/httpapi"
	"github.com/weather-oracle/oracle/internal/persistence"
	"github.com/weather-oracle/oracle/internal/pipeline"
	"github.com/weather-oracle/oracle/internal/warmer"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger

	redisClient := connectRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cacheMgr := cache.New(redisClient, logger)

	store := connectPersistence(cfg, logger)
	if store != nil && store.DB != nil {
		if closer, ok := store.DB.(interface{ Close() error }); ok {
			defer closer.Close()
		}
	}

	httpClient := &http.Client{Timeout: cfg.PipelineOptions.FetchOptions.Timeout}
	geocoder := geocode.New(httpClient, cfg.GeocodingBaseURL)
	fetcher := fetch.NewFetcher(httpClient, cfg.OpenMeteoBaseURL, logger)
	coordinator := &fanout.Coordinator{RequestDelay: cfg.RequestDelay}
	orchestrator := pipeline.New(geocoder, fetcher, coordinator, cacheMgr, logger)

	auditingForecaster := &auditingOrchestrator{orchestrator: orchestrator, store: store, logger: logger}

	if len(cfg.WatchedLocations) > 0 {
		w := warmer.New(auditingForecaster, cfg.WatchedLocations, cfg.WarmerInterval, cfg.PipelineOptions, logger)
		w.Start()
		defer w.Stop()
		logger.Info("cache warmer started", "locations", cfg.WatchedLocations, "interval", cfg.WarmerInterval)
	}

	server := &httpapi.Server{
		Orchestrator:   orchestrator,
		Geocoder:       geocoder,
		Logger:         logger,
		DevMode:        cfg.DevMode,
		DefaultOptions: cfg.PipelineOptions,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("serving", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(httpServer, logger)
}

func connectRedis(cfg *config.Config, logger *slog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, caching disabled")
		return nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("could not parse REDIS_URL, caching disabled", "error", err)
		return nil
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Error("could not connect to Redis, caching disabled", "error", err)
		client.Close()
		return nil
	}
	return client
}

func connectPersistence(cfg *config.Config, logger *slog.Logger) *persistence.Store {
	if cfg.DBURL == "" {
		logger.Info("DB_URL not set, audit persistence disabled")
		return persistence.New(nil, logger)
	}
	db, err := persistence.Connect(cfg.DBURL)
	if err != nil {
		logger.Error("could not connect to database, audit persistence disabled", "error", err)
		return persistence.New(nil, logger)
	}
	return persistence.New(db, logger)
}

// auditingOrchestrator adapts *pipeline.Orchestrator to warmer.Forecaster,
// recording each warmed forecast to the audit trail after it completes.
type auditingOrchestrator struct {
	orchestrator *pipeline.Orchestrator
	store        *persistence.Store
	logger       *slog.Logger
}

func (a *auditingOrchestrator) Forecast(ctx context.Context, query string, opts pipeline.Options) (domain.AggregatedForecast, error) {
	forecast, err := a.orchestrator.Forecast(ctx, query, opts)
	if err != nil {
		return forecast, err
	}
	key := cache.Key(forecast.Coordinates, forecast.ContributingModels, forecast.GeneratedAt)
	a.logger.Debug("warmer cycle completed, recording audit", "query", query, "cache_key", key)
	a.store.RecordAudit(ctx, key, forecast)
	return forecast, nil
}

func waitForShutdown(server *http.Server, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
