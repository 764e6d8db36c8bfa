package domain

import "time"

// GeocodingResult is one candidate location returned by the geocoder.
type GeocodingResult struct {
	Name        string
	Coordinates Coordinates
	Country     string
	CountryCode string
	Region      string
	Timezone    TimezoneID
	Elevation   *float64
	Population  *int64
}

// Location echoes the user's original query alongside the resolved result.
type Location struct {
	OriginalQuery string
	Resolved      GeocodingResult
}

// WeatherMetrics is the immutable bundle of scalar readings for one
// timestep, reported by a single model or aggregated across models.
type WeatherMetrics struct {
	Temperature       Celsius
	FeelsLike         Celsius
	Humidity          Humidity
	Pressure          Pressure
	WindSpeed         float64 // m/s
	WindDirection     WindDirection
	Precipitation     Millimeters
	PrecipProbability PrecipProbability
	CloudCover        CloudCover
	Visibility        Visibility
	UVIndex           UVIndex
	WeatherCode       int
}

// HourlyForecast is one model's (or the consensus') reading for a single
// UTC hour.
type HourlyForecast struct {
	Timestamp time.Time
	Metrics   WeatherMetrics
}

// Range bounds a scalar metric's observed extrema.
type Range struct {
	Min float64
	Max float64
}

// DailyForecast summarizes one calendar day; Date is that day's UTC
// midnight, not a midnight in the forecast's own timezone.
type DailyForecast struct {
	Date                time.Time
	TemperatureRange    Range
	HumidityRange       Range
	PressureRange       Range
	PrecipitationTotal  Millimeters
	PrecipitationChance PrecipProbability
	WindSpeedMax        float64
	CloudCoverRange     Range
	UVIndexMax          UVIndex
	Sunrise             time.Time
	Sunset              time.Time
	DaylightHours       float64
	WeatherCode         int
	Hourly              []HourlyForecast
}

// ModelForecast is the full output of a single model's fetch: ordered
// hourly and daily series plus provenance.
type ModelForecast struct {
	ModelID     string
	Coordinates Coordinates
	GeneratedAt time.Time
	ValidFrom   time.Time
	ValidTo     time.Time
	Timezone    TimezoneID
	Hourly      []HourlyForecast
	Daily       []DailyForecast
}

// MetricStatistics bundles the descriptive statistics computed over one
// metric's per-model values at a timestep.
type MetricStatistics struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	StdDev float64
	Range  float64
	Empty  bool
}

// ModelConsensus records per-timestep agreement diagnostics.
type ModelConsensus struct {
	AgreementScore     float64
	ModelsInAgreement  []string
	OutlierModels      []string
	TemperatureStats   MetricStatistics
	PrecipitationStats MetricStatistics
	WindStats          MetricStatistics
}

// MetricRange is the raw observed extrema across contributing models at a
// timestep, distinct from the trimmed-mean point estimate.
type MetricRange struct {
	Min float64
	Max float64
}

// AggregatedHourlyForecast is one consensus hour with its confidence and
// uncertainty bands.
type AggregatedHourlyForecast struct {
	Timestamp      time.Time
	Metrics        WeatherMetrics
	Confidence     ConfidenceLevel
	ModelAgreement ModelConsensus
	Ranges         map[string]MetricRange
}

// AggregatedDailyForecast is one consensus day with its confidence and
// uncertainty bands.
type AggregatedDailyForecast struct {
	Date           time.Time
	Forecast       DailyForecast
	Confidence     ConfidenceLevel
	ModelAgreement ModelConsensus
	Ranges         map[string]MetricRange
}

// ModelWeight records the contribution weight assigned to one model.
type ModelWeight struct {
	ModelID string
	Weight  float64
	Reason  string
}

// ConfidenceLevel is a score in [0,1] plus its derived three-level bucket.
type ConfidenceLevel struct {
	Score        float64
	Level        string // "high" | "medium" | "low"
	Contributors []ConfidenceFactor
}

// ConfidenceFactor explains one term of the confidence composition.
type ConfidenceFactor struct {
	Name         string
	Weight       float64
	Score        float64
	Contribution float64
	Detail       string
}

// AggregatedForecast is the pipeline's root result.
type AggregatedForecast struct {
	Coordinates         Coordinates
	GeneratedAt         time.Time
	ValidFrom           time.Time
	ValidTo             time.Time
	ContributingModels  []string
	FailedModels        []ModelFailure
	ModelForecasts      []ModelForecast // optional diagnostics
	ConsensusHourly     []AggregatedHourlyForecast
	ConsensusDaily      []AggregatedDailyForecast
	ModelWeights        []ModelWeight
	OverallConfidence   ConfidenceLevel
	SuccessRate         float64
}

// ModelFailure records one model's fan-out failure for diagnostics.
type ModelFailure struct {
	Model      string
	Reason     string
	Transient  bool
	DurationMs int64
}
