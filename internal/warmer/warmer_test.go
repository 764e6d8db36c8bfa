package warmer

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubForecaster struct {
	calls   atomic.Int64
	fail    map[string]bool
	queries chan string
}

func newStubForecaster(fail map[string]bool) *stubForecaster {
	return &stubForecaster{fail: fail, queries: make(chan string, 4096)}
}

func (s *stubForecaster) Forecast(ctx context.Context, query string, opts pipeline.Options) (domain.AggregatedForecast, error) {
	s.calls.Add(1)
	s.queries <- query
	if s.fail[query] {
		return domain.AggregatedForecast{}, assertError{}
	}
	return domain.AggregatedForecast{}, nil
}

type assertError struct{}

func (assertError) Error() string { return "forecast failed" }

func TestWarmer_RefreshesEveryLocationPerCycle(t *testing.T) {
	forecaster := newStubForecaster(nil)
	w := New(forecaster, []string{"Dublin", "Paris"}, 5*time.Millisecond, pipeline.DefaultOptions, testLogger())

	w.runCycle()

	assert.Equal(t, int64(2), forecaster.calls.Load())
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		seen[<-forecaster.queries] = true
	}
	assert.True(t, seen["Dublin"])
	assert.True(t, seen["Paris"])
}

func TestWarmer_ContinuesPastIndividualFailures(t *testing.T) {
	forecaster := newStubForecaster(map[string]bool{"Nowhere": true})
	w := New(forecaster, []string{"Dublin", "Nowhere"}, 5*time.Millisecond, pipeline.DefaultOptions, testLogger())

	w.runCycle()

	assert.Equal(t, int64(2), forecaster.calls.Load())
}

func TestWarmer_StartAndStopDoesNotPanic(t *testing.T) {
	forecaster := newStubForecaster(nil)
	w := New(forecaster, []string{"Dublin"}, time.Millisecond, pipeline.DefaultOptions, testLogger())
	w.Start()
	require.Eventually(t, func() bool { return forecaster.calls.Load() > 0 }, time.Second, time.Millisecond)
	w.Stop()
}
