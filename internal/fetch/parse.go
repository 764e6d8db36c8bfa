package fetch

import (
	"math"
	"time"

	"github.com/weather-oracle/oracle/internal/domain"
)

// openMeteoResponse mirrors the Open-Meteo /v1/forecast JSON shape for
// the variables Weather Oracle requests.
type openMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`

	Hourly hourlyBlock `json:"hourly"`
	Daily  dailyBlock  `json:"daily"`
}

type hourlyBlock struct {
	Time                     []int64   `json:"time"`
	Temperature2m            []float64 `json:"temperature_2m"`
	RelativeHumidity2m       []int     `json:"relative_humidity_2m"`
	ApparentTemperature      []float64 `json:"apparent_temperature"`
	PrecipitationProbability []int     `json:"precipitation_probability"`
	Precipitation            []float64 `json:"precipitation"`
	WeatherCode              []int     `json:"weather_code"`
	PressureMsl              []float64 `json:"pressure_msl"`
	CloudCover               []int     `json:"cloud_cover"`
	Visibility               []float64 `json:"visibility"`
	WindSpeed10m             []float64 `json:"wind_speed_10m"`
	WindDirection10m         []int     `json:"wind_direction_10m"`
	UvIndex                  []float64 `json:"uv_index"`
}

type dailyBlock struct {
	Time                        []int64   `json:"time"`
	WeatherCode                 []int     `json:"weather_code"`
	Temperature2mMax            []float64 `json:"temperature_2m_max"`
	Temperature2mMin            []float64 `json:"temperature_2m_min"`
	ApparentTemperatureMax      []float64 `json:"apparent_temperature_max"`
	ApparentTemperatureMin      []float64 `json:"apparent_temperature_min"`
	Sunrise                     []int64   `json:"sunrise"`
	Sunset                      []int64   `json:"sunset"`
	DaylightDuration            []float64 `json:"daylight_duration"`
	PrecipitationSum            []float64 `json:"precipitation_sum"`
	PrecipitationProbabilityMax []int     `json:"precipitation_probability_max"`
	WindSpeed10mMax             []float64 `json:"wind_speed_10m_max"`
	WindDirection10mDominant    []int     `json:"wind_direction_10m_dominant"`
	UvIndexMax                  []float64 `json:"uv_index_max"`
}

// round keeps converted units from accumulating float noise.
func round(val float64, precision int) float64 {
	p := math.Pow10(precision)
	return math.Round(val*p) / p
}

func kmhToMs(kmh float64) float64 { return round(kmh/3.6, 2) }

func parseModelForecast(model string, coords domain.Coordinates, raw openMeteoResponse) (domain.ModelForecast, error) {
	tz := raw.Timezone
	if tz == "" {
		tz = "UTC"
	}

	hourly := make([]domain.HourlyForecast, 0, len(raw.Hourly.Time))
	for i, epoch := range raw.Hourly.Time {
		metrics := domain.WeatherMetrics{
			Temperature:   domain.NewCelsius(valueAt(raw.Hourly.Temperature2m, i, 0)),
			FeelsLike:     domain.NewCelsius(valueAt(raw.Hourly.ApparentTemperature, i, 0)),
			WindSpeed:     kmhToMs(valueAt(raw.Hourly.WindSpeed10m, i, 0)),
			WindDirection: domain.NewWindDirection(float64(intAt(raw.Hourly.WindDirection10m, i, 0))),
			Precipitation: domain.ClampedMillimeters(valueAt(raw.Hourly.Precipitation, i, 0)),
			UVIndex:       domain.NewUVIndex(valueAt(raw.Hourly.UvIndex, i, 0)),
			Visibility:    domain.NewVisibility(valueAt(raw.Hourly.Visibility, i, 0)),
			Pressure:      domain.NewPressure(valueAt(raw.Hourly.PressureMsl, i, 1013)),
			WeatherCode:   intAt(raw.Hourly.WeatherCode, i, 0),
		}
		if h, err := domain.NewHumidity(int32(intAt(raw.Hourly.RelativeHumidity2m, i, 0))); err == nil {
			metrics.Humidity = h
		}
		if c, err := domain.NewCloudCover(int32(intAt(raw.Hourly.CloudCover, i, 0))); err == nil {
			metrics.CloudCover = c
		}
		if pp, err := domain.NewPrecipProbability(float64(intAt(raw.Hourly.PrecipitationProbability, i, 0)) / 100); err == nil {
			metrics.PrecipProbability = pp
		}

		hourly = append(hourly, domain.HourlyForecast{
			Timestamp: time.Unix(epoch, 0).UTC().Truncate(time.Hour),
			Metrics:   metrics,
		})
	}

	daily := make([]domain.DailyForecast, 0, len(raw.Daily.Time))
	for i, epoch := range raw.Daily.Time {
		daily = append(daily, domain.DailyForecast{
			Date: time.Unix(epoch, 0).UTC().Truncate(24 * time.Hour),
			TemperatureRange: domain.Range{
				Min: valueAt(raw.Daily.Temperature2mMin, i, 0),
				Max: valueAt(raw.Daily.Temperature2mMax, i, 0),
			},
			PrecipitationTotal: domain.ClampedMillimeters(valueAt(raw.Daily.PrecipitationSum, i, 0)),
			WindSpeedMax:       kmhToMs(valueAt(raw.Daily.WindSpeed10mMax, i, 0)),
			UVIndexMax:         domain.NewUVIndex(valueAt(raw.Daily.UvIndexMax, i, 0)),
			Sunrise:            time.Unix(int64At(raw.Daily.Sunrise, i, epoch), 0).UTC(),
			Sunset:             time.Unix(int64At(raw.Daily.Sunset, i, epoch), 0).UTC(),
			DaylightHours:      round(valueAt(raw.Daily.DaylightDuration, i, 0)/3600, 2),
			WeatherCode:        intAt(raw.Daily.WeatherCode, i, 0),
		})
		if pp, err := domain.NewPrecipProbability(float64(intAt(raw.Daily.PrecipitationProbabilityMax, i, 0)) / 100); err == nil {
			daily[i].PrecipitationChance = pp
		}
	}

	var validFrom, validTo time.Time
	if len(hourly) > 0 {
		validFrom = hourly[0].Timestamp
		validTo = hourly[len(hourly)-1].Timestamp
	}

	return domain.ModelForecast{
		ModelID:     model,
		Coordinates: coords,
		GeneratedAt: time.Now().UTC(),
		ValidFrom:   validFrom,
		ValidTo:     validTo,
		Timezone:    domain.NewTimezoneID(tz),
		Hourly:      hourly,
		Daily:       daily,
	}, nil
}

func valueAt(xs []float64, i int, fallback float64) float64 {
	if i < 0 || i >= len(xs) {
		return fallback
	}
	return xs[i]
}

func intAt(xs []int, i int, fallback int) int {
	if i < 0 || i >= len(xs) {
		return fallback
	}
	return xs[i]
}

func int64At(xs []int64, i int, fallback int64) int64 {
	if i < 0 || i >= len(xs) {
		return fallback
	}
	return xs[i]
}
