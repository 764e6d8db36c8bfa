// Package aggregate aligns per-model forecasts on common timestamps and
// reduces them, metric by metric, into a single consensus
// AggregatedForecast. It is the largest single stage of the pipeline and
// builds directly on the stats and confidence packages to turn an
// arbitrary number of per-model series into one metric-generic
// reduction.
package aggregate

import (
	"sort"
	"time"

	"github.com/weather-oracle/oracle/internal/confidence"
	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/failure"
	"github.com/weather-oracle/oracle/internal/stats"
)

// Thresholds parametrize the confidence engine's spread factor per metric;
// stdDev at or below High scores 1.0, at or above Low scores 0.3.
type Thresholds struct {
	TemperatureHigh, TemperatureLow     float64 // degrees C
	PrecipitationHigh, PrecipitationLow float64 // mm
	WindSpeedHigh, WindSpeedLow         float64 // m/s
}

// DefaultThresholds reflects typical inter-model spread for a well-behaved
// ensemble; a spread above the Low bound reads as low agreement.
var DefaultThresholds = Thresholds{
	TemperatureHigh:   0.5,
	TemperatureLow:    3.0,
	PrecipitationHigh: 0.2,
	PrecipitationLow:  2.0,
	WindSpeedHigh:     0.5,
	WindSpeedLow:      4.0,
}

// Options parametrizes one aggregation run.
type Options struct {
	ZThreshold        float64
	Thresholds        Thresholds
	ConfidenceWeights confidence.Weights
}

var DefaultOptions = Options{
	ZThreshold:        2.0,
	Thresholds:        DefaultThresholds,
	ConfidenceWeights: confidence.DefaultWeights,
}

// Aggregate reduces contributing ModelForecasts into the consensus
// AggregatedForecast. SuccessRate and FailedModels are left for the
// caller (the pipeline orchestrator, which alone knows how many models
// were originally requested) to populate.
func Aggregate(forecasts []domain.ModelForecast, opts Options) (domain.AggregatedForecast, error) {
	if len(forecasts) == 0 {
		return domain.AggregatedForecast{}, &failure.AggregationError{Kind: failure.AggregationEmptyForecasts}
	}

	sorted := make([]domain.ModelForecast, len(forecasts))
	copy(sorted, forecasts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ModelID < sorted[j].ModelID })

	models := make([]string, len(sorted))
	for i, f := range sorted {
		models[i] = f.ModelID
	}

	referenceTime := sorted[0].GeneratedAt
	for _, f := range sorted[1:] {
		if f.GeneratedAt.Before(referenceTime) {
			referenceTime = f.GeneratedAt
		}
	}

	hourly := aggregateHourly(sorted, referenceTime, opts)
	daily := aggregateDaily(sorted, hourly, referenceTime, opts)

	var validFrom, validTo time.Time
	if len(hourly) > 0 {
		validFrom = hourly[0].Timestamp
		validTo = hourly[len(hourly)-1].Timestamp
	}

	weights := uniformWeights(models)

	overall := overallConfidence(hourly)

	return domain.AggregatedForecast{
		Coordinates:        sorted[0].Coordinates,
		GeneratedAt:        referenceTime,
		ValidFrom:          validFrom,
		ValidTo:            validTo,
		ContributingModels: models,
		ModelForecasts:     sorted,
		ConsensusHourly:    hourly,
		ConsensusDaily:     daily,
		ModelWeights:       weights,
		OverallConfidence:  overall,
	}, nil
}

func uniformWeights(models []string) []domain.ModelWeight {
	w := 1.0 / float64(len(models))
	out := make([]domain.ModelWeight, len(models))
	for i, m := range models {
		out[i] = domain.ModelWeight{ModelID: m, Weight: w, Reason: "uniform"}
	}
	return out
}

func overallConfidence(hourly []domain.AggregatedHourlyForecast) domain.ConfidenceLevel {
	if len(hourly) == 0 {
		return domain.ConfidenceLevel{Score: 0, Level: confidence.Level(0)}
	}
	scores := make([]float64, len(hourly))
	for i, h := range hourly {
		scores[i] = h.Confidence.Score
	}
	mean := stats.Mean(scores)
	return domain.ConfidenceLevel{
		Score: mean,
		Level: confidence.Level(mean),
		Contributors: []domain.ConfidenceFactor{
			{Name: "hourlyMean", Weight: 1, Score: mean, Contribution: mean,
				Detail: "mean of per-hour confidence scores across the forecast horizon"},
		},
	}
}

func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func buildStats(xs []float64) domain.MetricStatistics {
	if len(xs) == 0 {
		return domain.MetricStatistics{Empty: true}
	}
	lo, hi := minMax(xs)
	return domain.MetricStatistics{
		Mean:   stats.Mean(xs),
		Median: stats.Median(xs),
		Min:    lo,
		Max:    hi,
		StdDev: stats.StdDev(xs),
		Range:  hi - lo,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// epochMode returns the most frequent Unix-second value, tie-broken by
// the earliest epoch, mirroring stats.Mode's ascending tie-break for
// sunrise/sunset "majority model" consensus.
func epochMode(times []time.Time) time.Time {
	if len(times) == 0 {
		return time.Time{}
	}
	counts := make(map[int64]int, len(times))
	for _, t := range times {
		counts[t.Unix()]++
	}
	candidates := make([]int64, 0, len(counts))
	for k := range counts {
		candidates = append(candidates, k)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	best := candidates[0]
	bestCount := -1
	for _, c := range candidates {
		if counts[c] > bestCount {
			bestCount = counts[c]
			best = c
		}
	}
	return time.Unix(best, 0).UTC()
}
