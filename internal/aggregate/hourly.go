package aggregate

import (
	"sort"
	"time"

	"github.com/weather-oracle/oracle/internal/confidence"
	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/stats"
)

// metricExtractor names one scalar metric and how to read it out of a
// WeatherMetrics value, so the reduction loop below treats every scalar
// metric uniformly instead of repeating itself per field.
type metricExtractor struct {
	name string
	get  func(domain.WeatherMetrics) float64
}

var scalarMetrics = []metricExtractor{
	{"temperature", func(m domain.WeatherMetrics) float64 { return m.Temperature.Raw() }},
	{"feelsLike", func(m domain.WeatherMetrics) float64 { return m.FeelsLike.Raw() }},
	{"humidity", func(m domain.WeatherMetrics) float64 { return float64(m.Humidity.Raw()) }},
	{"pressure", func(m domain.WeatherMetrics) float64 { return m.Pressure.Raw() }},
	{"windSpeed", func(m domain.WeatherMetrics) float64 { return m.WindSpeed }},
	{"precipitation", func(m domain.WeatherMetrics) float64 { return m.Precipitation.Raw() }},
	{"precipProbability", func(m domain.WeatherMetrics) float64 { return m.PrecipProbability.Raw() }},
	{"cloudCover", func(m domain.WeatherMetrics) float64 { return float64(m.CloudCover.Raw()) }},
	{"visibility", func(m domain.WeatherMetrics) float64 { return m.Visibility.Raw() }},
	{"uvIndex", func(m domain.WeatherMetrics) float64 { return m.UVIndex.Raw() }},
}

// hourlyBucket holds every model's reading at one aligned UTC hour.
type hourlyBucket struct {
	timestamp time.Time
	models    []string
	metrics   []domain.WeatherMetrics
	windDirs  []float64
	codes     []int
}

func aggregateHourly(forecasts []domain.ModelForecast, referenceTime time.Time, opts Options) []domain.AggregatedHourlyForecast {
	buckets := make(map[time.Time]*hourlyBucket)
	for _, f := range forecasts {
		for _, h := range f.Hourly {
			ts := h.Timestamp.UTC().Truncate(time.Hour)
			b, ok := buckets[ts]
			if !ok {
				b = &hourlyBucket{timestamp: ts}
				buckets[ts] = b
			}
			b.models = append(b.models, f.ModelID)
			b.metrics = append(b.metrics, h.Metrics)
			b.windDirs = append(b.windDirs, h.Metrics.WindDirection.Raw())
			b.codes = append(b.codes, h.Metrics.WeatherCode)
		}
	}

	minCoverage := (len(forecasts) + 1) / 2 // "at least half", rounded up for odd M

	timestamps := make([]time.Time, 0, len(buckets))
	for ts, b := range buckets {
		if len(b.models) >= minCoverage {
			timestamps = append(timestamps, ts)
		}
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	out := make([]domain.AggregatedHourlyForecast, 0, len(timestamps))
	for _, ts := range timestamps {
		out = append(out, reduceHourlyBucket(buckets[ts], referenceTime, opts))
	}
	return out
}

func reduceHourlyBucket(b *hourlyBucket, referenceTime time.Time, opts Options) domain.AggregatedHourlyForecast {
	values := make(map[string][]float64, len(scalarMetrics))
	for _, me := range scalarMetrics {
		vals := make([]float64, len(b.metrics))
		for i, m := range b.metrics {
			vals[i] = me.get(m)
		}
		values[me.name] = vals
	}

	ranges := make(map[string]domain.MetricRange, len(scalarMetrics)+1)
	consensus := make(map[string]float64, len(scalarMetrics))
	for _, me := range scalarMetrics {
		vs := values[me.name]
		lo, hi := minMax(vs)
		ranges[me.name] = domain.MetricRange{Min: lo, Max: hi}
		consensus[me.name] = stats.TrimmedMean(vs)
	}
	windLo, windHi := minMax(b.windDirs)
	ranges["windDirection"] = domain.MetricRange{Min: windLo, Max: windHi}

	metrics := domain.WeatherMetrics{
		Temperature:   domain.NewCelsius(consensus["temperature"]),
		FeelsLike:     domain.NewCelsius(consensus["feelsLike"]),
		WindSpeed:     consensus["windSpeed"],
		WindDirection: domain.NewWindDirection(stats.CircularMeanDegrees(b.windDirs)),
		Precipitation: domain.ClampedMillimeters(consensus["precipitation"]),
		UVIndex:       domain.NewUVIndex(consensus["uvIndex"]),
		Visibility:    domain.NewVisibility(consensus["visibility"]),
		Pressure:      domain.NewPressure(consensus["pressure"]),
		WeatherCode:   stats.Mode(b.codes),
	}
	if h, err := domain.NewHumidity(int32(clampFloat(consensus["humidity"], 0, 100))); err == nil {
		metrics.Humidity = h
	}
	if c, err := domain.NewCloudCover(int32(clampFloat(consensus["cloudCover"], 0, 100))); err == nil {
		metrics.CloudCover = c
	}
	if pp, err := domain.NewPrecipProbability(clampFloat(consensus["precipProbability"], 0, 1)); err == nil {
		metrics.PrecipProbability = pp
	}

	tempStats := buildStats(values["temperature"])
	precipStats := buildStats(values["precipitation"])
	windStats := buildStats(values["windSpeed"])

	outlierSet := make(map[int]bool)
	for _, name := range []string{"temperature", "precipitation", "windSpeed"} {
		for _, idx := range stats.FindOutlierIndices(values[name], opts.ZThreshold) {
			outlierSet[idx] = true
		}
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

	consensusInfo := domain.ModelConsensus{
		AgreementScore:     float64(len(agreement)) / float64(len(b.models)),
		ModelsInAgreement:  agreement,
		OutlierModels:      outliers,
		TemperatureStats:   tempStats,
		PrecipitationStats: precipStats,
		WindStats:          windStats,
	}

	daysAhead := b.timestamp.Sub(referenceTime).Hours() / 24
	level := confidence.Score(confidence.Inputs{
		SpreadStdDev:      tempStats.StdDev,
		SpreadHighThr:     opts.Thresholds.TemperatureHigh,
		SpreadLowThr:      opts.Thresholds.TemperatureLow,
		ModelsInAgreement: len(agreement),
		TotalModels:       len(b.models),
		DaysAhead:         daysAhead,
		SingleModel:       len(b.models) == 1,
	}, opts.ConfidenceWeights)

	return domain.AggregatedHourlyForecast{
		Timestamp:      b.timestamp,
		Metrics:        metrics,
		Confidence:     level,
		ModelAgreement: consensusInfo,
		Ranges:         ranges,
	}
}
