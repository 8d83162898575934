package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheRequestsTotal) }

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by cache name and result.",
	},
	[]string{"cache", "result"}, // cache: bundles | guides, result: hit | miss | error
)

func ObserveCache(cacheName string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequestsTotal.WithLabelValues(norm(cacheName), result).Inc()
}

func IncCacheError(cacheName string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), "error").Inc()
}
