package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "echelon_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "echelon_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "echelon_chat_requests_total",
		Help: "Chat proxy requests by resolved mode and outcome.",
	}, []string{"mode", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "echelon_chat_upstream_duration_seconds",
		Help:    "Latency of completion API calls.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider"})
)

// Chat outcomes.
const (
	OutcomeSuccess       = "success"
	OutcomeInvalid       = "invalid"
	OutcomeUnconfigured  = "unconfigured"
	OutcomeUpstreamError = "upstream_error"
	OutcomeInternalError = "internal_error"
	OutcomeRateLimited   = "rate_limited"
)

func RecordChat(mode, outcome string) {
	chatRequests.WithLabelValues(mode, outcome).Inc()
}

func ObserveUpstream(provider string, d time.Duration) {
	upstreamDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. The route label is the
// matched chi pattern so ids do not explode cardinality.
func Middleware(route func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			pattern := route(r)
			httpRequests.WithLabelValues(r.Method, pattern, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		})
	}
}
