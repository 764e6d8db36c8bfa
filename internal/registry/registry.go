// Package registry holds the static mapping from model identifier to its
// Open-Meteo endpoint shape: every model in Weather Oracle is served
// through Open-Meteo's "models=" parameter rather than through distinct
// vendor APIs, so the table varies only the model identifier per entry.
package registry

// Endpoint describes how to reach one registered NWP model.
type Endpoint struct {
	// ModelID is the Open-Meteo model variant name sent as models=.
	ModelID string
	// PathTemplate is the forecast path on the Open-Meteo host.
	PathTemplate string
	// NeedsModelsParam is true for every entry here: all registered
	// models are routed through the generic forecast endpoint with an
	// explicit models= variant.
	NeedsModelsParam bool
	// Units documents the upstream unit conventions, which the fetcher
	// normalizes away.
	Units UpstreamUnits
}

// UpstreamUnits documents Open-Meteo's default response units, which the
// fetcher converts to the pipeline's internal units.
type UpstreamUnits struct {
	Temperature      string
	WindSpeed        string
	Precipitation    string
	DaylightDuration string
	Pressure         string
	Humidity         string
}

var defaultUnits = UpstreamUnits{
	Temperature:      "celsius",
	WindSpeed:        "kmh",
	Precipitation:    "mm",
	DaylightDuration: "seconds",
	Pressure:         "hPa",
	Humidity:         "percent",
}

// registered is the static table of NWP models Weather Oracle fans out
// to by default. forecast_days/timezone/variable lists are applied
// uniformly by the fetcher; only the model identifier varies here.
var registered = map[string]Endpoint{
	"ecmwf":  {ModelID: "ecmwf_ifs04", PathTemplate: "/v1/forecast", NeedsModelsParam: true, Units: defaultUnits},
	"gfs":    {ModelID: "gfs_seamless", PathTemplate: "/v1/forecast", NeedsModelsParam: true, Units: defaultUnits},
	"icon":   {ModelID: "icon_seamless", PathTemplate: "/v1/forecast", NeedsModelsParam: true, Units: defaultUnits},
	"gem":    {ModelID: "gem_seamless", PathTemplate: "/v1/forecast", NeedsModelsParam: true, Units: defaultUnits},
	"jma":    {ModelID: "jma_seamless", PathTemplate: "/v1/forecast", NeedsModelsParam: true, Units: defaultUnits},
	"ukmo":   {ModelID: "ukmo_seamless", PathTemplate: "/v1/forecast", NeedsModelsParam: true, Units: defaultUnits},
	"arpege": {ModelID: "meteofrance_arpege_seamless", PathTemplate: "/v1/forecast", NeedsModelsParam: true, Units: defaultUnits},
}

// Lookup returns the Endpoint registered for a model identifier.
func Lookup(model string) (Endpoint, bool) {
	e, ok := registered[model]
	return e, ok
}

// All returns every registered model identifier, sorted is left to the
// caller (callers needing determinism, like the Fan-out Coordinator,
// sort independently so this stays a cheap unordered snapshot).
func All() []string {
	out := make([]string, 0, len(registered))
	for k := range registered {
		out = append(out, k)
	}
	return out
}

// HourlyVariables is the fixed CSV of hourly fields requested from
// Open-Meteo.
const HourlyVariables = "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation_probability,precipitation,weather_code,pressure_msl,cloud_cover,visibility,wind_speed_10m,wind_direction_10m,uv_index"

// DailyVariables is the fixed CSV of daily fields requested from
// Open-Meteo. Open-Meteo's daily block has no humidity/pressure
// aggregate, so DailyForecast.HumidityRange and PressureRange are
// derived by the aggregator from that day's hourly subset instead.
const DailyVariables = "weather_code,temperature_2m_max,temperature_2m_min,apparent_temperature_max,apparent_temperature_min,sunrise,sunset,daylight_duration,precipitation_sum,precipitation_probability_max,wind_speed_10m_max,wind_direction_10m_dominant,uv_index_max"
