// Command oracle-cli is the CLI adapter for Weather Oracle's forecast
// pipeline: a small main wiring a dependency set and handing control to
// cobra, with two subcommands: forecast <location> and
// compare <location>.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weather-oracle/oracle/internal/cache"
	"github.com/weather-oracle/oracle/internal/config"
	"github.com/weather-oracle/oracle/internal/fanout"
	"github.com/weather-oracle/oracle/internal/fetch"
	"github.com/weather-oracle/oracle/internal/geocode"
	"github.com/weather-oracle/oracle/internal/pipeline"
)

func main() {
	cfg := config.Load()

	var (
		days      int
		modelsCSV string
		format    string
		noCache   bool
	)

	buildOrchestrator := func() *pipeline.Orchestrator {
		httpClient := &http.Client{Timeout: cfg.PipelineOptions.FetchOptions.Timeout}
		geocoder := geocode.New(httpClient, cfg.GeocodingBaseURL)
		fetcher := fetch.NewFetcher(httpClient, cfg.OpenMeteoBaseURL, cfg.Logger)
		coordinator := &fanout.Coordinator{RequestDelay: cfg.RequestDelay}
		// A single CLI invocation gets no benefit from a shared cache; cmd/oracle
		// is where a live *redis.Client is wired for the long-running server.
		cacheMgr := cache.New(nil, cfg.Logger)
		return pipeline.New(geocoder, fetcher, coordinator, cacheMgr, cfg.Logger)
	}

	resolveOptions := func() pipeline.Options {
		opts := cfg.PipelineOptions
		if days > 0 {
			opts.FetchOptions.ForecastDays = days
		}
		if modelsCSV != "" {
			opts.Models = splitCSV(modelsCSV)
		}
		if noCache {
			opts.UseCache = false
		}
		return opts
	}

	rootCmd := &cobra.Command{
		Use:   "oracle-cli",
		Short: "Query the Weather Oracle multi-model forecast pipeline",
	}

	forecastCmd := &cobra.Command{
		Use:   "forecast <location>",
		Short: "Fetch a consensus forecast for a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch := buildOrchestrator()
			result, err := orch.Forecast(cmd.Context(), args[0], resolveOptions())
			if err != nil {
				return err
			}
			return render(os.Stdout, format, result)
		},
	}
	forecastCmd.Flags().IntVar(&days, "days", 0, "forecast horizon in days (1-16)")
	forecastCmd.Flags().StringVar(&modelsCSV, "models", "", "comma-separated model identifiers")
	forecastCmd.Flags().StringVar(&format, "format", "table", "output format: table|narrative|json|rich")
	forecastCmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the cache for this request")

	compareCmd := &cobra.Command{
		Use:   "compare <location>",
		Short: "Show each contributing model's forecast alongside the consensus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch := buildOrchestrator()
			opts := resolveOptions()
			opts.AggregateOpts.ConfidenceWeights = cfg.PipelineOptions.AggregateOpts.ConfidenceWeights
			result, err := orch.Forecast(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return renderComparison(os.Stdout, result)
		},
	}
	compareCmd.Flags().IntVar(&days, "days", 0, "forecast horizon in days (1-16)")
	compareCmd.Flags().StringVar(&modelsCSV, "models", "", "comma-separated model identifiers")

	rootCmd.AddCommand(forecastCmd, compareCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
