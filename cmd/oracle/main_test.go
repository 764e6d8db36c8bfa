package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weather-oracle/oracle/internal/cache"
	"github.com/weather-oracle/oracle/internal/config"
	"github.com/weather-oracle/oracle/internal/fanout"
	"github.com/weather-oracle/oracle/internal/fetch"
	"github.com/weather-oracle/oracle/internal/geocode"
	"github.com/weather-oracle/oracle/internal/persistence"
	"github.com/weather-oracle/oracle/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleForecastJSON = `{
	"latitude": 53.35, "longitude": -6.26, "timezone": "UTC",
	"hourly": {"time": [1700000000], "temperature_2m": [10], "wind_speed_10m": [10], "wind_direction_10m": [180]},
	"daily": {"time": [1700000000], "temperature_2m_max": [12], "temperature_2m_min": [5]}
}`

func newTestOrchestrator(t *testing.T) (*pipeline.Orchestrator, func()) {
	t.Helper()
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"name":"Dublin","latitude":53.35,"longitude":-6.26,"country":"Ireland","country_code":"IE","timezone":"UTC"}]}`))
	}))
	fetchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleForecastJSON))
	}))
	orch := &pipeline.Orchestrator{
		Geocoder:    geocode.New(geoSrv.Client(), geoSrv.URL),
		Fetcher:     fetch.NewFetcher(fetchSrv.Client(), fetchSrv.URL, testLogger()),
		Coordinator: &fanout.Coordinator{},
		Cache:       cache.New(nil, testLogger()),
		Logger:      testLogger(),
	}
	return orch, func() { geoSrv.Close(); fetchSrv.Close() }
}

func TestAuditingOrchestrator_RecordsAuditOnSuccess(t *testing.T) {
	orch, closeSrv := newTestOrchestrator(t)
	defer closeSrv()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("INSERT INTO forecast_audit").WillReturnResult(sqlmock.NewResult(1, 1))

	a := &auditingOrchestrator{orchestrator: orch, store: persistence.New(db, testLogger()), logger: testLogger()}
	opts := pipeline.DefaultOptions
	opts.Models = []string{"ecmwf", "gfs"}
	opts.UseCache = false

	_, err = a.Forecast(context.Background(), "Dublin", opts)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditingOrchestrator_PropagatesErrorWithoutRecording(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer geoSrv.Close()

	orch := &pipeline.Orchestrator{
		Geocoder:    geocode.New(geoSrv.Client(), geoSrv.URL),
		Fetcher:     fetch.NewFetcher(geoSrv.Client(), geoSrv.URL, testLogger()),
		Coordinator: &fanout.Coordinator{},
		Cache:       cache.New(nil, testLogger()),
		Logger:      testLogger(),
	}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := &auditingOrchestrator{orchestrator: orch, store: persistence.New(db, testLogger()), logger: testLogger()}
	_, err = a.Forecast(context.Background(), "Nowhere", pipeline.DefaultOptions)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectRedis_EmptyURLReturnsNil(t *testing.T) {
	cfg := &config.Config{}
	assert.Nil(t, connectRedis(cfg, testLogger()))
}

func TestConnectRedis_InvalidURLReturnsNil(t *testing.T) {
	cfg := &config.Config{RedisURL: "not-a-url"}
	assert.Nil(t, connectRedis(cfg, testLogger()))
}

func TestConnectPersistence_EmptyURLReturnsNoOpStore(t *testing.T) {
	cfg := &config.Config{}
	store := connectPersistence(cfg, testLogger())
	require.NotNil(t, store)
	assert.Nil(t, store.DB)
}
