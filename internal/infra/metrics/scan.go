package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(scansTotal, signalsDetectedTotal, usageSyncsTotal) }

var (
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailbox_scans_total",
			Help: "Mailbox scans by outcome.",
		},
		[]string{"status"}, // ok | busy | not_connected | failed
	)

	signalsDetectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signals_detected_total",
			Help: "New recurring-payment signals stored after a scan.",
		},
	)

	usageSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_syncs_total",
			Help: "Usage syncs by provider and outcome.",
		},
		[]string{"provider", "status"},
	)
)

func IncScan(status string) {
	scansTotal.WithLabelValues(norm(status)).Inc()
}

func AddSignalsDetected(n int) {
	signalsDetectedTotal.Add(float64(n))
}

func IncUsageSync(provider, status string) {
	usageSyncsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}
