package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetEnv_FallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", getEnv("WO_UNSET_KEY", "fallback", testLogger()))
}

func TestGetEnv_ReturnsSetValue(t *testing.T) {
	t.Setenv("WO_KEY", "value")
	assert.Equal(t, "value", getEnv("WO_KEY", "fallback", testLogger()))
}

func TestGetEnvAsInt_InvalidValueFallsBack(t *testing.T) {
	t.Setenv("WO_INT", "not-a-number")
	assert.Equal(t, 7, getEnvAsInt("WO_INT", 7, testLogger()))
}

func TestGetEnvAsInt_ParsesValidValue(t *testing.T) {
	t.Setenv("WO_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("WO_INT", 7, testLogger()))
}

func TestGetEnvAsDuration_ParsesValidValue(t *testing.T) {
	t.Setenv("WO_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvAsDuration("WO_DURATION", time.Minute, testLogger()))
}

func TestGetEnvAsDuration_InvalidValueFallsBack(t *testing.T) {
	t.Setenv("WO_DURATION", "ninety seconds")
	assert.Equal(t, time.Minute, getEnvAsDuration("WO_DURATION", time.Minute, testLogger()))
}

func TestGetEnvAsFloat_ParsesValidValue(t *testing.T) {
	t.Setenv("WO_FLOAT", "0.35")
	assert.InDelta(t, 0.35, getEnvAsFloat("WO_FLOAT", 0.5, testLogger()), 1e-9)
}

func TestGetEnvAsFloat_InvalidValueFallsBack(t *testing.T) {
	t.Setenv("WO_FLOAT", "not-a-float")
	assert.InDelta(t, 0.5, getEnvAsFloat("WO_FLOAT", 0.5, testLogger()), 1e-9)
}

func TestGetEnvAsCSV_SplitsAndTrims(t *testing.T) {
	t.Setenv("WO_CSV", " ecmwf, gfs ,icon")
	assert.Equal(t, []string{"ecmwf", "gfs", "icon"}, getEnvAsCSV("WO_CSV", testLogger()))
}

func TestGetEnvAsCSV_UnsetIsNil(t *testing.T) {
	assert.Nil(t, getEnvAsCSV("WO_CSV_UNSET", testLogger()))
}

func TestLoad_DefaultsToDisabledCacheBackendWhenRedisURLUnset(t *testing.T) {
	cfg := Load()
	assert.Empty(t, cfg.RedisURL)
	assert.True(t, cfg.PipelineOptions.UseCache) // UseCache toggles the orchestrator's intent; the
	// Manager itself degrades to disabled mode when no Redis client is wired in main.
}

func TestLoad_CacheDisabledFlagTurnsOffCaching(t *testing.T) {
	t.Setenv("CACHE_DISABLED", "true")
	cfg := Load()
	assert.False(t, cfg.PipelineOptions.UseCache)
}

func TestLoad_ModelsFromCSV(t *testing.T) {
	t.Setenv("FORECAST_MODELS", "ecmwf,gfs")
	cfg := Load()
	assert.Equal(t, []string{"ecmwf", "gfs"}, cfg.PipelineOptions.Models)
}

func TestLoad_WarmerDefaultsToThirtyMinutesWithNoLocations(t *testing.T) {
	cfg := Load()
	assert.Nil(t, cfg.WatchedLocations)
	assert.Equal(t, 30*time.Minute, cfg.WarmerInterval)
}

func TestLoad_WarmerLocationsFromCSV(t *testing.T) {
	t.Setenv("WARMER_LOCATIONS", "Dublin,Berlin")
	t.Setenv("WARMER_INTERVAL", "15m")
	cfg := Load()
	assert.Equal(t, []string{"Dublin", "Berlin"}, cfg.WatchedLocations)
	assert.Equal(t, 15*time.Minute, cfg.WarmerInterval)
}
