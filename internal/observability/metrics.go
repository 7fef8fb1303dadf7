// Package observability registers the server's Prometheus metrics and the
// instrumentation hooks the HTTP layer uses to feed them.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiff_http_requests_total",
			Help: "Total number of HTTP requests processed by the server.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skiff_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	streamActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "skiff_streams_active",
			Help: "Number of generation streams currently attached to a client.",
		},
		[]string{"kind"},
	)
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skiff_turns_total",
			Help: "Total number of chat turns started, by model.",
		},
		[]string{"model"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		streamActive,
		turnsTotal,
	)
}

// statusRecorder captures the response status while passing flushes through,
// which SSE handlers depend on.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// InstrumentHandler wraps a route handler with request count and duration
// metrics. The route label is the registration pattern, not the raw path,
// to keep label cardinality bounded.
func InstrumentHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// IncStreamActive marks one more client attached to a generation stream.
func IncStreamActive(kind string) {
	streamActive.WithLabelValues(kind).Inc()
}

// DecStreamActive marks one client detached from a generation stream.
func DecStreamActive(kind string) {
	streamActive.WithLabelValues(kind).Dec()
}

// IncTurn counts a started chat turn.
func IncTurn(model string) {
	turnsTotal.WithLabelValues(model).Inc()
}
