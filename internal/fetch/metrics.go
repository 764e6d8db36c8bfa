package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// fetchDuration instruments one model fetch's end-to-end latency
// (including retries), partitioned by model and outcome.
var fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "weather_oracle_model_fetch_duration_seconds",
	Help: "Duration of one model fetch, including retries.",
}, []string{"model", "outcome"})

// fetchAttemptsTotal counts attempts per model, partitioned by whether the
// attempt succeeded, so operators can see retry pressure per model.
var fetchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "weather_oracle_model_fetch_attempts_total",
	Help: "Total fetch attempts per model.",
}, []string{"model", "result"})
