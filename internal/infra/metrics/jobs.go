package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobsQueueDepth) }

var (
	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Background jobs processed, labeled by kind and status.",
		},
		[]string{"kind", "status"}, // status: ok, error, panic, dropped
	)

	jobsQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobs_queue_depth",
			Help: "Jobs waiting in the worker pool queue.",
		},
	)
)

func IncJob(kind, status string) {
	jobsProcessedTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func SetQueueDepth(n int) {
	jobsQueueDepth.Set(float64(n))
}
