// Package fetch makes one HTTP round trip to Open-Meteo for a single
// model, with retry/backoff, unit normalization, and response parsing
// into a domain.ModelForecast.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/failure"
	"github.com/weather-oracle/oracle/internal/registry"
)

// RetryPolicy is a value type describing the retry behavior; DelayFor is
// deliberately not exposed as a method here — the exponential schedule is
// delegated to backoff/v4, configured from these fields.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// JitterFraction in [0,1]; tests pin this to 0 for determinism.
	JitterFraction float64
}

// DefaultRetryPolicy: three attempts, base 1s, factor 2 (set explicitly
// on the backoff/v4 schedule in FetchOne), capped at 30s. JitterFraction
// is backoff/v4's randomization factor: each delay is drawn from
// +/-10% of the current interval (+/-100ms on the first 1s retry,
// +/-200ms on the 2s one); there is no separate additive jitter term.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:    3,
	BaseDelay:      time.Second,
	MaxDelay:       30 * time.Second,
	JitterFraction: 0.1,
}

// Options parametrize one fetch.
type Options struct {
	ForecastDays int // 1-16, default 7
	Timezone     string
	Timeout      time.Duration
	Retry        RetryPolicy
}

// DefaultOptions are the out-of-the-box fetch parameters.
var DefaultOptions = Options{
	ForecastDays: 7,
	Timezone:     "auto",
	Timeout:      30 * time.Second,
	Retry:        DefaultRetryPolicy,
}

// Fetcher performs model fetches against a configured Open-Meteo host.
type Fetcher struct {
	HTTPClient *http.Client
	BaseURL    string // e.g. "https://api.open-meteo.com"
	Logger     *slog.Logger
}

func NewFetcher(client *http.Client, baseURL string, logger *slog.Logger) *Fetcher {
	return &Fetcher{HTTPClient: client, BaseURL: baseURL, Logger: logger}
}

// FetchOne performs the full retry-wrapped request/parse cycle for one
// model.
func (f *Fetcher) FetchOne(ctx context.Context, model string, coords domain.Coordinates, opts Options) (domain.ModelForecast, error) {
	endpoint, ok := registry.Lookup(model)
	if !ok {
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiInvalidResponse, Model: model, Message: "model not registered"}
	}

	reqURL := f.buildURL(endpoint, coords, opts)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.Retry.BaseDelay
	b.MaxInterval = opts.Retry.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = opts.Retry.JitterFraction
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(0, opts.Retry.MaxAttempts-1))), ctx)

	start := time.Now()
	var result domain.ModelForecast
	op := func() error {
		attemptStart := time.Now()
		forecast, err := f.attempt(ctx, model, reqURL, coords, opts)
		attemptErr := classify(model, err)
		if attemptErr == nil {
			fetchAttemptsTotal.WithLabelValues(model, "success").Inc()
			result = forecast
			return nil
		}
		var apiErr *failure.ApiError
		if ae, ok := attemptErr.(*failure.ApiError); ok {
			apiErr = ae
		}
		if apiErr != nil && !apiErr.Transient() {
			fetchAttemptsTotal.WithLabelValues(model, "fatal").Inc()
			return backoff.Permanent(attemptErr)
		}
		fetchAttemptsTotal.WithLabelValues(model, "retry").Inc()
		f.Logger.Warn("transient model fetch failure, retrying", "model", model, "error", attemptErr, "attempt_duration", time.Since(attemptStart))
		return attemptErr
	}

	err := backoff.Retry(op, bo)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	fetchDuration.WithLabelValues(model, outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			return domain.ModelForecast{}, &failure.CancelError{Cause: ctx.Err()}
		}
		return domain.ModelForecast{}, err
	}
	return result, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func classify(model string, err error) error {
	if err == nil {
		return nil
	}
	return err
}

func (f *Fetcher) buildURL(endpoint registry.Endpoint, coords domain.Coordinates, opts Options) string {
	scheme := "https"
	if parsed, err := url.Parse(f.BaseURL); err == nil && parsed.Host != "" && parsed.Scheme != "" {
		scheme = parsed.Scheme
	}
	u := url.URL{
		Scheme: scheme,
		Host:   hostOf(f.BaseURL),
		Path:   endpoint.PathTemplate,
	}
	q := u.Query()
	q.Set("latitude", fmt.Sprintf("%v", coords.Latitude.Raw()))
	q.Set("longitude", fmt.Sprintf("%v", coords.Longitude.Raw()))
	q.Set("hourly", registry.HourlyVariables)
	q.Set("daily", registry.DailyVariables)
	q.Set("timezone", opts.Timezone)
	q.Set("forecast_days", strconv.Itoa(opts.ForecastDays))
	if endpoint.NeedsModelsParam {
		q.Set("models", endpoint.ModelID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func hostOf(base string) string {
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" {
		return "api.open-meteo.com"
	}
	return parsed.Host
}

func (f *Fetcher) attempt(ctx context.Context, model, reqURL string, coords domain.Coordinates, opts Options) (domain.ModelForecast, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiNetworkError, Model: model, Err: err}
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		if attemptCtx.Err() != nil {
			return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiTimeout, Model: model, Err: err}
		}
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiNetworkError, Model: model, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				retryAfter = secs
			}
		}
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiRateLimited, Model: model, RetryAfter: retryAfter, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 500 {
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiServiceUnavailable, Model: model, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiRequestFailed, Model: model, Status: resp.StatusCode, Message: string(body)}
	}

	var raw openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiDecode, Model: model, Err: err}
	}
	if raw.Error {
		return domain.ModelForecast{}, &failure.ApiError{Kind: failure.ApiInvalidResponse, Model: model, Message: raw.Reason}
	}

	return parseModelForecast(model, coords, raw)
}
