// Package pipeline binds the geocoder, fan-out coordinator, aggregator,
// and cache manager into a single Forecast(query) entry point: resolve a
// location, fetch every requested model concurrently, reduce the
// successes into a consensus forecast, all within an overall wall-clock
// budget and behind an optional cache.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/weather-oracle/oracle/internal/aggregate"
	"github.com/weather-oracle/oracle/internal/cache"
	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/fanout"
	"github.com/weather-oracle/oracle/internal/failure"
	"github.com/weather-oracle/oracle/internal/fetch"
	"github.com/weather-oracle/oracle/internal/geocode"
	"github.com/weather-oracle/oracle/internal/registry"
)

// Options parametrizes one forecast call.
type Options struct {
	Models         []string // empty means every registered model
	FetchOptions   fetch.Options
	MinSuccessRate float64 // default: at least one model, i.e. 1/len(models)
	WallClock      time.Duration
	RequestDelay   time.Duration
	CacheTTL       time.Duration
	AggregateOpts  aggregate.Options
	UseCache       bool
}

// DefaultOptions: every registered model, a 90s wall-clock budget, and
// caching enabled.
var DefaultOptions = Options{
	FetchOptions:  fetch.DefaultOptions,
	WallClock:     90 * time.Second,
	CacheTTL:      cache.DefaultTTL,
	AggregateOpts: aggregate.DefaultOptions,
	UseCache:      true,
}

// Orchestrator wires together the components a Forecast call touches.
type Orchestrator struct {
	Geocoder    *geocode.Geocoder
	Fetcher     *fetch.Fetcher
	Coordinator *fanout.Coordinator
	Cache       *cache.Manager
	Logger      *slog.Logger
}

func New(geocoder *geocode.Geocoder, fetcher *fetch.Fetcher, coordinator *fanout.Coordinator, cacheMgr *cache.Manager, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Geocoder: geocoder, Fetcher: fetcher, Coordinator: coordinator, Cache: cacheMgr, Logger: logger}
}

// Forecast resolves query, fans out to the requested models (or every
// registered model if none given), aggregates the successes, and returns
// the AggregatedForecast. Cache lookups and wall-clock cancellation wrap
// the compute path transparently.
func (o *Orchestrator) Forecast(ctx context.Context, query string, opts Options) (domain.AggregatedForecast, error) {
	location, err := o.Geocoder.Resolve(ctx, query)
	if err != nil {
		geoErr, _ := err.(*failure.GeocodingError)
		return domain.AggregatedForecast{}, &failure.PipelineError{Kind: failure.PipelineGeocodingFailed, Geocoding: geoErr}
	}

	models := opts.Models
	if len(models) == 0 {
		models = registry.All()
	}
	sort.Strings(models)

	minSuccessRate := opts.MinSuccessRate
	if minSuccessRate <= 0 {
		minSuccessRate = 1.0 / float64(len(models))
	}

	ctx, cancel := context.WithTimeout(ctx, o.wallClock(opts))
	defer cancel()

	// computeForecast can return a partial result (success rate between
	// minSuccessRate and 1.0). Whether that partial result is safe to
	// hand back depends on WHY the fetch stopped: if ctx's own deadline
	// fired, the result is exactly what the wall-clock budget allows and
	// is returned as-is (or as a Timeout if too partial); if the caller
	// cancelled ctx out from under the fetch, the result is discarded in
	// favor of CancelError regardless of how complete it looked.
	compute := func(ctx context.Context) (domain.AggregatedForecast, error) {
		result, err := o.computeForecast(ctx, location.Coordinates, models, minSuccessRate, opts)
		if errors.Is(ctx.Err(), context.Canceled) {
			return domain.AggregatedForecast{}, &failure.CancelError{Cause: ctx.Err()}
		}
		return result, err
	}

	if !opts.UseCache || o.Cache == nil {
		return compute(ctx)
	}

	key := cache.Key(location.Coordinates, models, time.Now())
	return o.Cache.GetOrCompute(ctx, key, o.cacheTTL(opts), compute)
}

func (o *Orchestrator) wallClock(opts Options) time.Duration {
	if opts.WallClock > 0 {
		return opts.WallClock
	}
	return DefaultOptions.WallClock
}

func (o *Orchestrator) cacheTTL(opts Options) time.Duration {
	if opts.CacheTTL > 0 {
		return opts.CacheTTL
	}
	return DefaultOptions.CacheTTL
}

func (o *Orchestrator) computeForecast(ctx context.Context, coords domain.Coordinates, models []string, minSuccessRate float64, opts Options) (domain.AggregatedForecast, error) {
	fetchOptions := opts.FetchOptions
	if fetchOptions == (fetch.Options{}) {
		fetchOptions = fetch.DefaultOptions
	}

	// fanout.Coordinator holds only a duration; copying it per call keeps
	// a per-request RequestDelay override from racing with other callers
	// sharing the same Orchestrator.
	coordinator := *o.Coordinator
	if opts.RequestDelay > 0 {
		coordinator.RequestDelay = opts.RequestDelay
	}
	result := coordinator.FetchMany(ctx, models, func(ctx context.Context, model string) (domain.ModelForecast, error) {
		return o.Fetcher.FetchOne(ctx, model, coords, fetchOptions)
	})

	if result.SuccessRate < minSuccessRate {
		kind := failure.PipelineAllModelsFailed
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			kind = failure.PipelineTimeout
		}
		return domain.AggregatedForecast{}, &failure.PipelineError{
			Kind:        kind,
			ModelErrors: toAPIErrors(result.Failures),
		}
	}

	aggOpts := opts.AggregateOpts
	if aggOpts == (aggregate.Options{}) {
		aggOpts = aggregate.DefaultOptions
	}
	aggregated, err := aggregate.Aggregate(result.Successes, aggOpts)
	if err != nil {
		aggErr, _ := err.(*failure.AggregationError)
		return domain.AggregatedForecast{}, &failure.PipelineError{Kind: failure.PipelineAggregationFailed, Aggregation: aggErr}
	}

	aggregated.FailedModels = result.Failures
	aggregated.SuccessRate = result.SuccessRate
	return aggregated, nil
}

// toAPIErrors reconstitutes minimal ApiErrors from fan-out failures for
// PipelineError diagnostics; the fan-out coordinator only preserves the
// rendered message and transience, not the original typed error.
func toAPIErrors(failures []domain.ModelFailure) []failure.ApiError {
	out := make([]failure.ApiError, len(failures))
	for i, f := range failures {
		kind := failure.ApiRequestFailed
		if f.Transient {
			kind = failure.ApiServiceUnavailable
		}
		out[i] = failure.ApiError{Kind: kind, Model: f.Model, Message: f.Reason}
	}
	return out
}
