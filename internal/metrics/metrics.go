package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonaguard_requests_total",
		Help: "Detection requests by terminal status and classification.",
	}, []string{"status", "classification"})

	RequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sonaguard_request_latency_seconds",
		Help:    "End to end detection request latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
	})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonaguard_errors_total",
		Help: "Failed detection requests by error kind.",
	}, []string{"type"})

	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sonaguard_rate_limit_hits_total",
		Help: "Requests rejected by the admission controller.",
	})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonaguard_cache_lookups_total",
		Help: "Result cache lookups by outcome (hit_local, hit_store, miss).",
	}, []string{"outcome"})

	StoreFailOpen = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sonaguard_store_fail_open_total",
		Help: "Operations degraded locally because the backing store was unreachable.",
	}, []string{"component"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
