package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weather-oracle/oracle/internal/cache"
	"github.com/weather-oracle/oracle/internal/failure"
	"github.com/weather-oracle/oracle/internal/fanout"
	"github.com/weather-oracle/oracle/internal/fetch"
	"github.com/weather-oracle/oracle/internal/geocode"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sampleForecastJSON = `{
	"latitude": 53.35, "longitude": -6.26, "timezone": "UTC",
	"hourly": {"time": [1700000000], "temperature_2m": [10], "wind_speed_10m": [10], "wind_direction_10m": [180]},
	"daily": {"time": [1700000000], "temperature_2m_max": [12], "temperature_2m_min": [5]}
}`

func newTestOrchestrator(t *testing.T, forecastHandler http.HandlerFunc) (*Orchestrator, func()) {
	t.Helper()
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"name":"Dublin","latitude":53.35,"longitude":-6.26,"country":"Ireland","country_code":"IE","timezone":"UTC"}]}`))
	}))
	fetchSrv := httptest.NewServer(forecastHandler)

	orch := &Orchestrator{
		Geocoder:    geocode.New(geoSrv.Client(), geoSrv.URL),
		Fetcher:     fetch.NewFetcher(fetchSrv.Client(), fetchSrv.URL, testLogger()),
		Coordinator: &fanout.Coordinator{},
		Cache:       cache.New(nil, testLogger()), // disabled mode: each test observes a real compute
		Logger:      testLogger(),
	}
	return orch, func() { geoSrv.Close(); fetchSrv.Close() }
}

func fastOptions() Options {
	opts := DefaultOptions
	opts.FetchOptions.Retry.JitterFraction = 0
	opts.FetchOptions.Retry.BaseDelay = time.Millisecond
	opts.FetchOptions.Retry.MaxDelay = 5 * time.Millisecond
	opts.FetchOptions.Timeout = time.Second
	opts.Models = []string{"ecmwf", "gfs"}
	opts.WallClock = 5 * time.Second
	opts.UseCache = false
	return opts
}

func TestForecast_Success(t *testing.T) {
	orch, closeSrv := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleForecastJSON))
	})
	defer closeSrv()

	result, err := orch.Forecast(t.Context(), "Dublin", fastOptions())
	require.NoError(t, err)
	require.Len(t, result.ConsensusHourly, 1)
	assert.ElementsMatch(t, []string{"ecmwf", "gfs"}, result.ContributingModels)
	assert.Equal(t, 1.0, result.SuccessRate)
}

func TestForecast_GeocodingFailureSurfacesPipelineError(t *testing.T) {
	geoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer geoSrv.Close()
	fetchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer fetchSrv.Close()

	orch := &Orchestrator{
		Geocoder:    geocode.New(geoSrv.Client(), geoSrv.URL),
		Fetcher:     fetch.NewFetcher(fetchSrv.Client(), fetchSrv.URL, testLogger()),
		Coordinator: &fanout.Coordinator{},
		Cache:       cache.New(nil, testLogger()),
		Logger:      testLogger(),
	}

	_, err := orch.Forecast(t.Context(), "Nowheresville", fastOptions())
	require.Error(t, err)
	var pipeErr *failure.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, failure.PipelineGeocodingFailed, pipeErr.Kind)
}

func TestForecast_AllModelsFailedBelowMinSuccessRate(t *testing.T) {
	orch, closeSrv := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	defer closeSrv()

	opts := fastOptions()
	_, err := orch.Forecast(t.Context(), "Dublin", opts)
	require.Error(t, err)
	var pipeErr *failure.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, failure.PipelineAllModelsFailed, pipeErr.Kind)
	assert.Len(t, pipeErr.ModelErrors, 2)
}

func TestForecast_PartialFailureStillSucceedsAboveMinSuccessRate(t *testing.T) {
	var calls atomic.Int64
	orch, closeSrv := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleForecastJSON))
	})
	defer closeSrv()

	opts := fastOptions()
	opts.MinSuccessRate = 0.25
	result, err := orch.Forecast(t.Context(), "Dublin", opts)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.SuccessRate, 1e-9)
	assert.Len(t, result.FailedModels, 1)
}

func TestForecast_WallClockTimeoutWithInsufficientSuccessesSurfacesPipelineTimeout(t *testing.T) {
	orch, closeSrv := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done() // never respond; only the orchestrator's wall clock ends this
	})
	defer closeSrv()

	opts := fastOptions()
	opts.WallClock = 30 * time.Millisecond

	_, err := orch.Forecast(t.Context(), "Dublin", opts)
	require.Error(t, err)
	var pipeErr *failure.PipelineError
	require.ErrorAs(t, err, &pipeErr)
	assert.Equal(t, failure.PipelineTimeout, pipeErr.Kind)
}

func TestForecast_CallerCancellationReturnsCancelErrorWithoutPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var calls atomic.Int64
	orch, closeSrv := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// the first model's fetch lands successfully, which by
			// itself clears the default 1/len(models) success-rate
			// floor, before the caller cancels the request.
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(sampleForecastJSON))
			cancel()
			return
		}
		<-r.Context().Done()
	})
	defer closeSrv()

	_, err := orch.Forecast(ctx, "Dublin", fastOptions())
	require.Error(t, err)
	assert.True(t, failure.IsCancelled(err))
	var pipeErr *failure.PipelineError
	assert.False(t, errors.As(err, &pipeErr), "caller cancellation must not surface a partial aggregated result")
}
