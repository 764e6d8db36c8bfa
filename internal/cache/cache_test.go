package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weather-oracle/oracle/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleForecast() domain.AggregatedForecast {
	coords, _ := domain.NewCoordinates(53.35, -6.26)
	return domain.AggregatedForecast{Coordinates: coords, ContributingModels: []string{"ecmwf"}}
}

func TestGet_HitReturnsUnexpiredValue(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := New(client, testLogger())

	e := entry{Value: sampleForecast(), ExpiresAt: time.Now().UTC().Add(time.Hour)}
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	mock.ExpectGet("k1").SetVal(string(raw))

	value, ok := m.Get(t.Context(), "k1")
	require.True(t, ok)
	assert.Equal(t, []string{"ecmwf"}, value.ContributingModels)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_ExpiredEntryIsAMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := New(client, testLogger())

	e := entry{Value: sampleForecast(), ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	raw, _ := json.Marshal(e)
	mock.ExpectGet("k1").SetVal(string(raw))

	_, ok := m.Get(t.Context(), "k1")
	assert.False(t, ok)
}

func TestGet_MissOnRedisNil(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := New(client, testLogger())
	mock.ExpectGet("k1").RedisNil()

	_, ok := m.Get(t.Context(), "k1")
	assert.False(t, ok)
}

func TestDisabledManager_AlwaysMisses(t *testing.T) {
	m := New(nil, testLogger())
	_, ok := m.Get(t.Context(), "any")
	assert.False(t, ok)
	require.NoError(t, m.Set(t.Context(), "any", sampleForecast(), time.Hour))
}

func TestGetOrCompute_RunsOnceOnMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	m := New(client, testLogger())
	mock.ExpectGet("k1").RedisNil()
	mock.Regexp().ExpectSet("k1", `.*`, time.Hour).SetVal("OK")

	calls := 0
	value, err := m.GetOrCompute(t.Context(), "k1", time.Hour, func(ctx context.Context) (domain.AggregatedForecast, error) {
		calls++
		return sampleForecast(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"ecmwf"}, value.ContributingModels)
}

func TestKey_SortsModelsAndRoundsToHour(t *testing.T) {
	coords, _ := domain.NewCoordinates(53.349803, -6.260310)
	at := time.Date(2026, 7, 31, 14, 37, 0, 0, time.UTC)
	k1 := Key(coords, []string{"gfs", "ecmwf"}, at)
	k2 := Key(coords, []string{"ecmwf", "gfs"}, at.Add(10*time.Minute))
	assert.Equal(t, k1, k2)

	later := Key(coords, []string{"ecmwf", "gfs"}, at.Add(time.Hour))
	assert.NotEqual(t, k1, later)
}
