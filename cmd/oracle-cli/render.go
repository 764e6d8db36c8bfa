package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/weather-oracle/oracle/internal/domain"
)

// render dispatches to one of the four output formats named in the CLI
// surface. "rich" borrows the boxed layout of
// jinterlante1206-AleutianLocal's cmd_health.go output formatter, drawn
// with plain ASCII border characters and no color codes; table and json
// are the plainer formats a scripting caller wants.
func render(w io.Writer, format string, forecast domain.AggregatedForecast) error {
	switch format {
	case "json":
		return renderJSON(w, forecast)
	case "narrative":
		return renderNarrative(w, forecast)
	case "rich":
		return renderRich(w, forecast)
	default:
		return renderTable(w, forecast)
	}
}

func renderJSON(w io.Writer, forecast domain.AggregatedForecast) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(forecast)
}

func renderTable(w io.Writer, forecast domain.AggregatedForecast) error {
	fmt.Fprintf(w, "%-20s %-8s %-8s %-6s %-10s %-10s\n", "TIME", "TEMP(C)", "FEELS", "WIND", "PRECIP", "CONF")
	for _, h := range forecast.ConsensusHourly {
		fmt.Fprintf(w, "%-20s %-8.1f %-8.1f %-6.1f %-10.1f %-10s\n",
			h.Timestamp.Format("2006-01-02 15:04"),
			h.Metrics.Temperature.Raw(),
			h.Metrics.FeelsLike.Raw(),
			h.Metrics.WindSpeed,
			h.Metrics.Precipitation.Raw(),
			h.Confidence.Level,
		)
	}
	fmt.Fprintf(w, "\nmodels: %s | success rate: %.0f%% | overall confidence: %s (%.2f)\n",
		strings.Join(forecast.ContributingModels, ","),
		forecast.SuccessRate*100,
		forecast.OverallConfidence.Level,
		forecast.OverallConfidence.Score,
	)
	return nil
}

func renderNarrative(w io.Writer, forecast domain.AggregatedForecast) error {
	if len(forecast.ConsensusHourly) == 0 {
		fmt.Fprintln(w, "No consensus could be formed for this location.")
		return nil
	}
	first := forecast.ConsensusHourly[0]
	fmt.Fprintf(w, "Right now, expect around %.0f°C (feels like %.0f°C), wind from the %s at %.0f m/s. ",
		first.Metrics.Temperature.Raw(), first.Metrics.FeelsLike.Raw(), first.Metrics.WindDirection.Cardinal(), first.Metrics.WindSpeed)
	fmt.Fprintf(w, "Confidence in this forecast is %s, based on %d of %d contributing models agreeing.\n",
		first.Confidence.Level, len(first.ModelAgreement.ModelsInAgreement), len(forecast.ContributingModels))

	if len(forecast.ConsensusDaily) > 0 {
		today := forecast.ConsensusDaily[0]
		fmt.Fprintf(w, "Today's high is %.0f°C, low %.0f°C, with %.1fmm of precipitation expected.\n",
			today.Forecast.TemperatureRange.Max, today.Forecast.TemperatureRange.Min, today.Forecast.PrecipitationTotal.Raw())
	}
	return nil
}

func renderRich(w io.Writer, forecast domain.AggregatedForecast) error {
	const width = 60
	boxTop(w, width)
	boxCenter(w, "WEATHER ORACLE FORECAST", width)
	boxSeparator(w, width)
	for _, h := range forecast.ConsensusHourly {
		line := fmt.Sprintf("%s  %5.1f°C  %s  %s",
			h.Timestamp.Format("Jan 2 15:04"), h.Metrics.Temperature.Raw(), h.Metrics.WindDirection.Cardinal(), confidenceBadge(h.Confidence.Level))
		boxLine(w, line, width)
	}
	boxSeparator(w, width)
	boxLine(w, fmt.Sprintf("overall confidence: %s", confidenceBadge(forecast.OverallConfidence.Level)), width)
	boxLine(w, fmt.Sprintf("models: %s", strings.Join(forecast.ContributingModels, ", ")), width)
	boxBottom(w, width)
	return nil
}

func confidenceBadge(level string) string {
	switch level {
	case "high":
		return "[HIGH]"
	case "medium":
		return "[MED]"
	default:
		return "[LOW]"
	}
}

func renderComparison(w io.Writer, forecast domain.AggregatedForecast) error {
	if len(forecast.ConsensusHourly) == 0 {
		fmt.Fprintln(w, "No consensus could be formed for this location.")
		return nil
	}
	first := forecast.ConsensusHourly[0]
	fmt.Fprintf(w, "%-20s %-8s %-8s %-6s\n", "MODEL", "TEMP(C)", "FEELS", "WIND")
	for _, mf := range forecast.ModelForecasts {
		if len(mf.Hourly) == 0 {
			continue
		}
		m := mf.Hourly[0].Metrics
		fmt.Fprintf(w, "%-20s %-8.1f %-8.1f %-6.1f\n", mf.ModelID, m.Temperature.Raw(), m.FeelsLike.Raw(), m.WindSpeed)
	}
	fmt.Fprintf(w, "%-20s %-8.1f %-8.1f %-6.1f  (consensus)\n",
		"CONSENSUS", first.Metrics.Temperature.Raw(), first.Metrics.FeelsLike.Raw(), first.Metrics.WindSpeed)
	fmt.Fprintf(w, "\nagreement: %d/%d models, outliers: %s\n",
		len(first.ModelAgreement.ModelsInAgreement), len(forecast.ContributingModels),
		strings.Join(first.ModelAgreement.OutlierModels, ", "))
	return nil
}

func boxTop(w io.Writer, width int)    { fmt.Fprintln(w, "+"+strings.Repeat("-", width-2)+"+") }
func boxBottom(w io.Writer, width int) { fmt.Fprintln(w, "+"+strings.Repeat("-", width-2)+"+") }
func boxSeparator(w io.Writer, width int) {
	fmt.Fprintln(w, "+"+strings.Repeat("-", width-2)+"+")
}

func boxLine(w io.Writer, content string, width int) {
	padding := width - 4 - len(content)
	if padding < 0 {
		padding = 0
	}
	fmt.Fprintf(w, "| %s%s |\n", content, strings.Repeat(" ", padding))
}

func boxCenter(w io.Writer, content string, width int) {
	totalPadding := width - 4 - len(content)
	if totalPadding < 0 {
		totalPadding = 0
	}
	left := totalPadding / 2
	right := totalPadding - left
	fmt.Fprintf(w, "| %s%s%s |\n", strings.Repeat(" ", left), content, strings.Repeat(" ", right))
}
