// Package warmer implements the background cache-warming scheduler: a
// single ticker that, on every tick, re-runs the forecast pipeline for
// every watched location concurrently, so the cache stays populated for
// the set of locations a deployment cares about.
package warmer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/pipeline"
)

// Forecaster is the subset of *pipeline.Orchestrator the warmer needs,
// narrowed to keep the warmer testable against a fake.
type Forecaster interface {
	Forecast(ctx context.Context, query string, opts pipeline.Options) (domain.AggregatedForecast, error)
}

// Warmer periodically refreshes the forecast cache for a fixed set of
// watched locations, so the first real request for a popular location
// never pays the full fan-out latency cold.
type Warmer struct {
	Forecaster Forecaster
	Locations  []string
	Interval   time.Duration
	Options    pipeline.Options
	Logger     *slog.Logger

	stop chan struct{}
}

func New(forecaster Forecaster, locations []string, interval time.Duration, opts pipeline.Options, logger *slog.Logger) *Warmer {
	return &Warmer{
		Forecaster: forecaster,
		Locations:  locations,
		Interval:   interval,
		Options:    opts,
		Logger:     logger,
		stop:       make(chan struct{}),
	}
}

// Start launches the ticker loop in a goroutine and returns immediately.
func (w *Warmer) Start() {
	ticker := time.NewTicker(w.Interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				w.Logger.Info("warmer: running refresh cycle", "locations", len(w.Locations))
				w.runCycle()
			case <-w.stop:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop signals the ticker loop to exit. It does not wait for an
// in-flight cycle to finish.
func (w *Warmer) Stop() {
	close(w.stop)
}

func (w *Warmer) runCycle() {
	var wg sync.WaitGroup
	for _, location := range w.Locations {
		wg.Add(1)
		go func(location string) {
			defer wg.Done()
			ctx := context.Background()
			if _, err := w.Forecaster.Forecast(ctx, location, w.Options); err != nil {
				w.Logger.Warn("warmer: failed to refresh location", "location", location, "error", err)
				return
			}
			w.Logger.Debug("warmer: refreshed location", "location", location)
		}(location)
	}
	wg.Wait()
	w.Logger.Info("warmer: cycle complete")
}
