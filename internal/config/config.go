// Package config loads Weather Oracle's runtime configuration from
// environment variables: a best-effort .env load via godotenv, then
// os.LookupEnv-backed getRequiredEnv/getEnv/getEnvAsInt helpers, plus
// duration and float variants for the pipeline's retry/backoff and
// confidence-weight knobs.
package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/weather-oracle/oracle/internal/aggregate"
	"github.com/weather-oracle/oracle/internal/confidence"
	"github.com/weather-oracle/oracle/internal/fetch"
	"github.com/weather-oracle/oracle/internal/pipeline"
	"github.com/weather-oracle/oracle/internal/weatherlog"
)

// Config holds every dependency and tunable the oracle binaries need.
type Config struct {
	DevMode bool
	Port    string

	RedisURL string // empty disables the Redis-backed cache
	DBURL    string // empty disables audit persistence

	GeocodingBaseURL string
	OpenMeteoBaseURL string

	RequestDelay time.Duration

	PipelineOptions pipeline.Options

	// WatchedLocations and WarmerInterval configure the background cache
	// warmer: one refresh cycle across every watched location on a
	// fixed interval.
	WatchedLocations []string
	WarmerInterval   time.Duration

	Logger *slog.Logger
}

// getRequiredEnv retrieves an environment variable by key, and fatals if
// it's not set.
func getRequiredEnv(key string, logger *slog.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		logger.Error("environment variable must be set", "key", key)
		os.Exit(1)
	}
	return val
}

// getEnv retrieves an environment variable by key, with a fallback value.
func getEnv(key, fallback string, logger *slog.Logger) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	logger.Debug("environment variable not set, using fallback", "key", key, "fallback", fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer, with a
// fallback value.
func getEnvAsInt(key string, fallback int, logger *slog.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		logger.Warn("invalid integer value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsDuration retrieves an environment variable parsed as
// time.ParseDuration (e.g. "90s", "1h30m"), with a fallback value.
func getEnvAsDuration(key string, fallback time.Duration, logger *slog.Logger) time.Duration {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		logger.Warn("invalid duration value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

// getEnvAsFloat retrieves an environment variable as a float64, with a
// fallback value.
func getEnvAsFloat(key string, fallback float64, logger *slog.Logger) float64 {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		logger.Warn("invalid float value for environment variable, using fallback", "key", key, "value", valStr, "error", err)
		return fallback
	}
	return val
}

func getEnvAsCSV(key string, logger *slog.Logger) []string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads configuration from .env (best-effort) and the process
// environment. Redis and Postgres URLs are optional: their absence
// degrades gracefully to a disabled cache and no audit persistence
// rather than a fatal exit, since the core pipeline is usable
// standalone (e.g. the CLI adapter against a bare checkout with no
// infrastructure).
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("could not load .env file, proceeding with environment variables")
	}

	devMode, _ := strconv.ParseBool(os.Getenv("DEV_MODE"))
	logger := weatherlog.NewDefault(devMode)

	fetchOpts := fetch.DefaultOptions
	fetchOpts.ForecastDays = getEnvAsInt("FORECAST_DAYS", fetchOpts.ForecastDays, logger)
	fetchOpts.Timezone = getEnv("FORECAST_TIMEZONE", fetchOpts.Timezone, logger)
	fetchOpts.Timeout = getEnvAsDuration("FETCH_TIMEOUT", fetchOpts.Timeout, logger)
	fetchOpts.Retry.MaxAttempts = getEnvAsInt("RETRY_MAX_ATTEMPTS", fetchOpts.Retry.MaxAttempts, logger)
	fetchOpts.Retry.BaseDelay = getEnvAsDuration("RETRY_BASE_DELAY", fetchOpts.Retry.BaseDelay, logger)
	fetchOpts.Retry.MaxDelay = getEnvAsDuration("RETRY_MAX_DELAY", fetchOpts.Retry.MaxDelay, logger)
	fetchOpts.Retry.JitterFraction = getEnvAsFloat("RETRY_JITTER_FRACTION", fetchOpts.Retry.JitterFraction, logger)

	weights := confidence.DefaultWeights
	weights.Spread = getEnvAsFloat("CONFIDENCE_WEIGHT_SPREAD", weights.Spread, logger)
	weights.Agreement = getEnvAsFloat("CONFIDENCE_WEIGHT_AGREEMENT", weights.Agreement, logger)
	weights.Horizon = getEnvAsFloat("CONFIDENCE_WEIGHT_HORIZON", weights.Horizon, logger)

	pipelineOpts := pipeline.DefaultOptions
	pipelineOpts.Models = getEnvAsCSV("FORECAST_MODELS", logger)
	pipelineOpts.FetchOptions = fetchOpts
	pipelineOpts.MinSuccessRate = getEnvAsFloat("MIN_SUCCESS_RATE", 0, logger)
	pipelineOpts.WallClock = getEnvAsDuration("PIPELINE_WALL_CLOCK", pipelineOpts.WallClock, logger)
	pipelineOpts.CacheTTL = getEnvAsDuration("CACHE_TTL", pipelineOpts.CacheTTL, logger)
	pipelineOpts.UseCache = !mustParseBool(getEnv("CACHE_DISABLED", "false", logger))
	pipelineOpts.AggregateOpts = aggregate.DefaultOptions
	pipelineOpts.AggregateOpts.ConfidenceWeights = weights

	return &Config{
		DevMode:          devMode,
		Port:             getEnv("PORT", "8080", logger),
		RedisURL:         getEnv("REDIS_URL", "", logger),
		DBURL:            getEnv("DB_URL", "", logger),
		GeocodingBaseURL: getEnv("GEOCODING_BASE_URL", "", logger),
		OpenMeteoBaseURL: getEnv("OPEN_METEO_BASE_URL", "", logger),
		RequestDelay:     getEnvAsDuration("REQUEST_DELAY", 0, logger),
		PipelineOptions:  pipelineOpts,
		WatchedLocations: getEnvAsCSV("WARMER_LOCATIONS", logger),
		WarmerInterval:   getEnvAsDuration("WARMER_INTERVAL", 30*time.Minute, logger),
		Logger:           logger,
	}
}

func mustParseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return v
}
