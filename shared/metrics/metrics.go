// Package metrics provides Prometheus metrics for the frontend process:
// HTTP middleware for its own routes and counters for calls it makes to the forum API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontend_http_requests_total",
			Help: "Total number of HTTP requests served by the frontend",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "frontend_http_request_duration_seconds",
			Help:    "Frontend HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	apiCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forum_api_calls_total",
			Help: "Calls made to the forum API, by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	apiCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forum_api_call_duration_seconds",
			Help:    "Forum API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	estimatesDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "token_estimates_discarded_total",
			Help: "Token estimate responses dropped because a newer request was issued",
		},
	)

	personaCacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persona_cache_refreshes_total",
			Help: "Persona list refetches, by result",
		},
		[]string{"result"},
	)

	attachmentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_uploads_total",
			Help: "Staged attachment uploads, by result",
		},
		[]string{"result"},
	)
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns HTTP middleware that records Prometheus metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := newResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		// Use chi's route pattern if available to avoid high cardinality
		path := r.URL.Path
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveAPICall records one forum API call. status 0 means no response.
func ObserveAPICall(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	apiCallsTotal.WithLabelValues(endpoint, label).Inc()
	apiCallDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func EstimateDiscarded() {
	estimatesDiscarded.Inc()
}

func PersonaCacheRefreshed(ok bool) {
	personaCacheRefreshes.WithLabelValues(result(ok)).Inc()
}

func AttachmentUploaded(ok bool) {
	attachmentUploads.WithLabelValues(result(ok)).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
