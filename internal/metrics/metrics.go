// Package metrics provides Prometheus instrumentation for the matchmaker. It
// exposes a gauge for the waiting pool, counters for joins and matches, and
// histograms for wait and tick latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PoolSize tracks the current number of participants waiting for a match.
	PoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "matchmaker_pool_size",
		Help: "Current number of participants in the waiting pool",
	})

	// JoinsTotal counts join attempts, labeled by result: "ok", "unknown",
	// "duplicate", "error" or "rate_limited".
	JoinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matchmaker_joins_total",
		Help: "Total number of join attempts",
	}, []string{"result"})

	// MatchesTotal counts matches created.
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matchmaker_matches_total",
		Help: "Total number of matches created",
	})

	// MatchWait records how long each matched participant waited.
	MatchWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matchmaker_match_wait_seconds",
		Help:    "Time from join to match for each matched participant",
		Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
	})

	// TickDuration records how long one tune-and-match pass takes.
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matchmaker_tick_duration_seconds",
		Help:    "Duration of one matching tick",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	// TickPanics counts ticks or observers that panicked and were recovered.
	TickPanics = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "matchmaker_tick_panics_total",
		Help: "Total number of recovered panics during ticks and match delivery",
	})
)

func init() {
	prometheus.MustRegister(
		PoolSize,
		JoinsTotal,
		MatchesTotal,
		MatchWait,
		TickDuration,
		TickPanics,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
