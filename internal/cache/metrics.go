package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_oracle_cache_hits_total",
		Help: "Forecast cache lookups served from a fresh cached value.",
	})
	missesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_oracle_cache_misses_total",
		Help: "Forecast cache lookups that found nothing or an expired entry.",
	})
	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "weather_oracle_cache_evictions_total",
		Help: "Expired cache entries discarded at read time.",
	})
)
