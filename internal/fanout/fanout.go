// Package fanout runs a model fetch concurrently across every requested
// model, tolerating partial failure, and returns both the successes and
// a per-model failure ledger with timing. Cooperative cancellation is
// layered on top via golang.org/x/sync/errgroup, so a wall-clock budget
// elsewhere in the pipeline can abort every in-flight fetch at once.
package fanout

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/failure"
)

// Result is the fan-out coordinator's output.
type Result struct {
	Successes       []domain.ModelForecast
	Failures        []domain.ModelFailure
	FetchedAt       time.Time
	TotalDurationMs int64
	SuccessRate     float64
}

// Coordinator runs fetches for a set of models, one request per model,
// honoring an optional inter-request stagger.
type Coordinator struct {
	// RequestDelay staggers fetch k to start at t0 + k*delay, to respect
	// upstream rate limits; zero issues all fetches immediately.
	RequestDelay time.Duration
}

// FetchFunc performs a single model's fetch; callers close over their
// fetch.Fetcher and fetch.Options here so this package has no direct
// dependency on the fetch package's retry internals.
type FetchFunc func(ctx context.Context, model string) (domain.ModelForecast, error)

// FetchMany runs fetch for every model in models concurrently (honoring
// RequestDelay if set), collecting successes and failures without
// canceling siblings on an individual failure. The returned slices are
// stable-sorted by model identifier for determinism.
func (c *Coordinator) FetchMany(ctx context.Context, models []string, fetch FetchFunc) Result {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var successes []domain.ModelForecast
	var failures []domain.ModelFailure

	for i, model := range models {
		model := model
		delay := time.Duration(i) * c.RequestDelay
		g.Go(func() error {
			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-timer.C:
				case <-ctx.Done():
					mu.Lock()
					failures = append(failures, domain.ModelFailure{Model: model, Reason: ctx.Err().Error(), Transient: false})
					mu.Unlock()
					return nil
				}
			}

			attemptStart := time.Now()
			forecast, err := fetch(gctx, model)
			durationMs := time.Since(attemptStart).Milliseconds()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				transient := false
				if ae, ok := err.(*failure.ApiError); ok {
					transient = ae.Transient()
				}
				failures = append(failures, domain.ModelFailure{
					Model:      model,
					Reason:     err.Error(),
					Transient:  transient,
					DurationMs: durationMs,
				})
				return nil // never cancel siblings on one failure
			}
			successes = append(successes, forecast)
			return nil
		})
	}

	// errgroup's Wait only returns an error if a Go func itself
	// returned one; this coordinator never does, by design, so every
	// outcome is captured in successes/failures instead.
	_ = g.Wait()

	sort.Slice(successes, func(i, j int) bool { return successes[i].ModelID < successes[j].ModelID })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Model < failures[j].Model })

	var successRate float64
	if len(models) > 0 {
		successRate = float64(len(successes)) / float64(len(models))
	}

	return Result{
		Successes:       successes,
		Failures:        failures,
		FetchedAt:       start.UTC(),
		TotalDurationMs: time.Since(start).Milliseconds(),
		SuccessRate:     successRate,
	}
}
