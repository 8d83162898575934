package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(remindersSentTotal) }

var remindersSentTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "renewal_reminders_total",
		Help: "Renewal reminders by outcome.",
	},
	[]string{"status"}, // sent | failed | skipped
)

func IncReminder(status string) {
	remindersSentTotal.WithLabelValues(norm(status)).Inc()
}
