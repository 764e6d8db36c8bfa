// Package httpapi exposes the forecast pipeline over HTTP:
// query-parameter-driven request parsing, a respondWithJSON/
// respondWithError pair for consistent response shaping, and
// corsMiddleware/metricsMiddleware wrapping every route. A single
// /forecast handler covers every forecast shape, parametrized entirely
// by query string rather than split across one endpoint per shape.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weather-oracle/oracle/internal/failure"
	"github.com/weather-oracle/oracle/internal/geocode"
	"github.com/weather-oracle/oracle/internal/pipeline"
)

// Server wires the pipeline Orchestrator into an http.Handler.
type Server struct {
	Orchestrator *pipeline.Orchestrator
	Geocoder     *geocode.Geocoder
	Logger       *slog.Logger
	DevMode      bool

	// DefaultOptions seeds each /forecast request before query-string
	// overrides (?models=, ?noCache=) are applied. Zero value falls
	// back to pipeline.DefaultOptions.
	DefaultOptions pipeline.Options
}

func (s *Server) baseOptions() pipeline.Options {
	if s.DefaultOptions.FetchOptions.ForecastDays == 0 {
		return pipeline.DefaultOptions
	}
	return s.DefaultOptions
}

// Router builds the full mux, wrapping every route in the request-ID,
// CORS, and metrics middleware.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/forecast", s.handleForecast)
	mux.HandleFunc("/geocode", s.handleGeocode)
	mux.Handle("/metrics", promhttp.Handler())
	return requestIDMiddleware(corsMiddleware(metricsMiddleware(mux)))
}

// handleForecast resolves ?location=, fans out to the requested models
// (?models=ecmwf,gfs, default: every registered model), and returns the
// AggregatedForecast as JSON.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		s.respondWithError(w, http.StatusBadRequest, "location query parameter is required", nil)
		return
	}
	s.Logger.Debug("forecast request", "location", location)

	opts := s.baseOptions()
	if models := r.URL.Query().Get("models"); models != "" {
		opts.Models = splitCSV(models)
	}
	if r.URL.Query().Get("noCache") == "true" {
		opts.UseCache = false
	}

	forecast, err := s.Orchestrator.Forecast(r.Context(), location, opts)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, forecast)
}

// handleGeocode resolves ?q= to every matching location, for clients
// that want to disambiguate before calling /forecast.
func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondWithError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.respondWithError(w, http.StatusBadRequest, "q query parameter is required", nil)
		return
	}

	limit := 5
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := s.Geocoder.Search(r.Context(), query, limit)
	if err != nil {
		s.respondWithError(w, http.StatusBadGateway, "geocoding failed", err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, results)
}

// statusClientClosedRequest mirrors nginx's 499: the client's own context
// was cancelled before a response was ready, not a server-side failure.
const statusClientClosedRequest = 499

func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	if failure.IsCancelled(err) {
		s.respondWithError(w, statusClientClosedRequest, "request cancelled", err)
		return
	}
	pipeErr, ok := err.(*failure.PipelineError)
	if !ok {
		s.respondWithError(w, http.StatusInternalServerError, "internal error", err)
		return
	}
	switch pipeErr.Kind {
	case failure.PipelineGeocodingFailed:
		s.respondWithError(w, http.StatusNotFound, "could not resolve location", err)
	case failure.PipelineAllModelsFailed:
		s.respondWithError(w, http.StatusBadGateway, "all weather models failed", err)
	case failure.PipelineTimeout:
		s.respondWithError(w, http.StatusGatewayTimeout, "forecast timed out", err)
	case failure.PipelineAggregationFailed:
		s.respondWithError(w, http.StatusInternalServerError, "could not aggregate forecasts", err)
	default:
		s.respondWithError(w, http.StatusInternalServerError, "internal error", err)
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

// Serve starts an http.Server on addr and blocks until it returns.
func (s *Server) Serve(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Logger.Info("serving", "addr", addr)
	return srv.ListenAndServe()
}
