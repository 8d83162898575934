package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		matchRunsTotal,
		matchResultsTotal,
		matchDurationSeconds,
		recommendationsGeneratedTotal,
	)
}

var (
	matchRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bundle_match_runs_total",
			Help: "Number of bundle matching runs.",
		},
	)

	matchResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bundle_match_results_total",
			Help: "Number of bundle matches returned to users.",
		},
	)

	matchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bundle_match_duration_seconds",
			Help:    "Time spent computing bundle matches, excluding storage reads.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
	)

	recommendationsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_generated_total",
			Help: "Recommendations produced, labeled by kind.",
		},
		[]string{"kind"}, // cancel | downgrade | overlap | bundle
	)
)

func ObserveMatchRun(results int, took time.Duration) {
	matchRunsTotal.Inc()
	matchResultsTotal.Add(float64(results))
	matchDurationSeconds.Observe(took.Seconds())
}

func IncRecommendation(kind string) {
	recommendationsGeneratedTotal.WithLabelValues(norm(kind)).Inc()
}
