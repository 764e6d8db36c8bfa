package aggregate

import (
	"sort"
	"time"

	"github.com/weather-oracle/oracle/internal/confidence"
	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/stats"
)

const dayLayout = "2006-01-02"

type dailyBucket struct {
	date    time.Time
	models  []string
	entries []domain.DailyForecast
}

// aggregateDaily buckets each model's daily series by UTC calendar date
// (the models' timezones are not consulted) and reduces them the same way aggregateHourly reduces per-hour values.
// The per-day hourly subset attached to each result is sliced straight
// out of the already-computed consensus hourly array.
func aggregateDaily(forecasts []domain.ModelForecast, hourly []domain.AggregatedHourlyForecast, referenceTime time.Time, opts Options) []domain.AggregatedDailyForecast {
	buckets := make(map[string]*dailyBucket)
	for _, f := range forecasts {
		for _, d := range f.Daily {
			key := d.Date.UTC().Format(dayLayout)
			b, ok := buckets[key]
			if !ok {
				b = &dailyBucket{date: d.Date.UTC().Truncate(24 * time.Hour)}
				buckets[key] = b
			}
			b.models = append(b.models, f.ModelID)
			b.entries = append(b.entries, d)
		}
	}

	minCoverage := (len(forecasts) + 1) / 2

	keys := make([]string, 0, len(buckets))
	for k, b := range buckets {
		if len(b.models) >= minCoverage {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]domain.AggregatedDailyForecast, 0, len(keys))
	for _, k := range keys {
		out = append(out, reduceDailyBucket(buckets[k], hourly, referenceTime, opts))
	}
	return out
}

func reduceDailyBucket(b *dailyBucket, hourly []domain.AggregatedHourlyForecast, referenceTime time.Time, opts Options) domain.AggregatedDailyForecast {
	mins := make([]float64, len(b.entries))
	maxes := make([]float64, len(b.entries))
	precipTotals := make([]float64, len(b.entries))
	windMaxes := make([]float64, len(b.entries))
	uvMaxes := make([]float64, len(b.entries))
	daylightHours := make([]float64, len(b.entries))
	codes := make([]int, len(b.entries))
	sunrises := make([]time.Time, len(b.entries))
	sunsets := make([]time.Time, len(b.entries))
	var chanceVals []float64

	for i, d := range b.entries {
		mins[i] = d.TemperatureRange.Min
		maxes[i] = d.TemperatureRange.Max
		precipTotals[i] = d.PrecipitationTotal.Raw()
		windMaxes[i] = d.WindSpeedMax
		uvMaxes[i] = d.UVIndexMax.Raw()
		daylightHours[i] = d.DaylightHours
		codes[i] = d.WeatherCode
		sunrises[i] = d.Sunrise
		sunsets[i] = d.Sunset
		chanceVals = append(chanceVals, d.PrecipitationChance.Raw())
	}

	dayStart := b.date
	dayEnd := dayStart.Add(24 * time.Hour)
	var daySubset []domain.HourlyForecast
	var humidities, pressures, clouds []float64
	for _, h := range hourly {
		if !h.Timestamp.Before(dayStart) && h.Timestamp.Before(dayEnd) {
			daySubset = append(daySubset, domain.HourlyForecast{Timestamp: h.Timestamp, Metrics: h.Metrics})
			humidities = append(humidities, float64(h.Metrics.Humidity.Raw()))
			pressures = append(pressures, h.Metrics.Pressure.Raw())
			clouds = append(clouds, float64(h.Metrics.CloudCover.Raw()))
		}
	}
	humidityLo, humidityHi := minMax(humidities)
	pressureLo, pressureHi := minMax(pressures)
	cloudLo, cloudHi := minMax(clouds)

	forecast := domain.DailyForecast{
		Date: dayStart,
		TemperatureRange: domain.Range{
			Min: stats.TrimmedMean(mins),
			Max: stats.TrimmedMean(maxes),
		},
		HumidityRange:      domain.Range{Min: humidityLo, Max: humidityHi},
		PressureRange:      domain.Range{Min: pressureLo, Max: pressureHi},
		PrecipitationTotal: domain.ClampedMillimeters(stats.TrimmedMean(precipTotals)),
		WindSpeedMax:       stats.TrimmedMean(windMaxes),
		CloudCoverRange:    domain.Range{Min: cloudLo, Max: cloudHi},
		UVIndexMax:         domain.NewUVIndex(stats.TrimmedMean(uvMaxes)),
		Sunrise:            epochMode(sunrises),
		Sunset:             epochMode(sunsets),
		DaylightHours:      stats.TrimmedMean(daylightHours),
		WeatherCode:        stats.Mode(codes),
		Hourly:             daySubset,
	}
	if pp, err := domain.NewPrecipProbability(clampFloat(stats.TrimmedMean(chanceVals), 0, 1)); err == nil {
		forecast.PrecipitationChance = pp
	}

	ranges := map[string]domain.MetricRange{
		"temperatureMax": {Min: minOf(maxes), Max: maxOf(maxes)},
		"temperatureMin": {Min: minOf(mins), Max: maxOf(mins)},
		"precipitation":  rangeOf(precipTotals),
		"windSpeedMax":   rangeOf(windMaxes),
	}

	outlierSet := make(map[int]bool)
	for _, idx := range stats.FindOutlierIndices(maxes, opts.ZThreshold) {
		outlierSet[idx] = true
	}
	var agreement, outliers []string
	for i, model := range b.models {
		if outlierSet[i] {
			outliers = append(outliers, model)
		} else {
			agreement = append(agreement, model)
		}
	}
	sort.Strings(agreement)
	sort.Strings(outliers)

	tempStats := buildStats(maxes)
	consensusInfo := domain.ModelConsensus{
		AgreementScore:     float64(len(agreement)) / float64(len(b.models)),
		ModelsInAgreement:  agreement,
		OutlierModels:      outliers,
		TemperatureStats:   tempStats,
		PrecipitationStats: buildStats(precipTotals),
		WindStats:          buildStats(windMaxes),
	}

	daysAhead := dayStart.Sub(referenceTime.UTC().Truncate(24*time.Hour)).Hours() / 24
	level := confidence.Score(confidence.Inputs{
		SpreadStdDev:      tempStats.StdDev,
		SpreadHighThr:     opts.Thresholds.TemperatureHigh,
		SpreadLowThr:      opts.Thresholds.TemperatureLow,
		ModelsInAgreement: len(agreement),
		TotalModels:       len(b.models),
		DaysAhead:         daysAhead,
		SingleModel:       len(b.models) == 1,
	}, opts.ConfidenceWeights)

	return domain.AggregatedDailyForecast{
		Date:           dayStart,
		Forecast:       forecast,
		Confidence:     level,
		ModelAgreement: consensusInfo,
		Ranges:         ranges,
	}
}

func minOf(xs []float64) float64 { lo, _ := minMax(xs); return lo }
func maxOf(xs []float64) float64 { _, hi := minMax(xs); return hi }
func rangeOf(xs []float64) domain.MetricRange {
	lo, hi := minMax(xs)
	return domain.MetricRange{Min: lo, Max: hi}
}
