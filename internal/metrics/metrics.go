// Package metrics provides Prometheus instrumentation for facturo.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route pattern, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturo",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route pattern.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facturo",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// LimitDenialsTotal counts creations refused by a plan limit.
	LimitDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturo",
			Name:      "limit_denials_total",
			Help:      "Creations refused because the tenant reached a plan limit.",
		},
		[]string{"resource", "plan"},
	)

	// FeatureDenialsTotal counts requests refused because the plan lacks a feature.
	FeatureDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturo",
			Name:      "feature_denials_total",
			Help:      "Requests refused because the tenant plan lacks a feature.",
		},
		[]string{"feature", "plan"},
	)

	// InvoicesCreatedTotal counts invoices created by plan.
	InvoicesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturo",
			Name:      "invoices_created_total",
			Help:      "Invoices created, by tenant plan.",
		},
		[]string{"plan"},
	)

	// InvoiceNumberFallbacksTotal counts numbering restarts caused by a stored
	// number that could not be parsed.
	InvoiceNumberFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturo",
			Name:      "invoice_number_fallbacks_total",
			Help:      "Invoice numbering sequences restarted at 1 because of inconsistent stored data.",
		},
		[]string{"reason"},
	)

	// InvoiceNumberConflictsTotal counts duplicate-number collisions that were retried.
	InvoiceNumberConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "facturo",
			Name:      "invoice_number_conflicts_total",
			Help:      "Invoice number collisions retried with a fresh lookup.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		LimitDenialsTotal,
		FeatureDenialsTotal,
		InvoicesCreatedTotal,
		InvoiceNumberFallbacksTotal,
		InvoiceNumberConflictsTotal,
	)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency. The route pattern is used as
// the path label to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
