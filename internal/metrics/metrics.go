// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every filmoteca collector is registered on.
var Registry = prometheus.NewRegistry()

var (
	HTTPRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "filmoteca_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})

	HTTPDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "filmoteca_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	CacheRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "filmoteca_cache_requests_total",
		Help: "TTL cache lookups by namespace and result (hit, miss).",
	}, []string{"namespace", "result"})

	RateLimitRejections = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "filmoteca_ratelimit_rejections_total",
		Help: "API requests rejected by the rate limiter.",
	})

	TMDBRequests = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "filmoteca_tmdb_requests_total",
		Help: "TMDb lookups by result (cached, ok, error, skipped).",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
