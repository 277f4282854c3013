package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	requestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Business metrics, exported for use by handlers and the catalog service
	DealRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_deal_rejections_total",
			Help: "Deals rejected at validation by reason",
		},
		[]string{"reason"},
	)

	CategoryCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_category_cache_total",
			Help: "Category forest cache lookups by result",
		},
		[]string{"result"},
	)

	ConsistencyErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_consistency_errors_total",
			Help: "Stored rows that failed assembly, by source",
		},
		[]string{"source"},
	)

	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_quotes_total",
			Help: "Price quotes by kind and whether a deal applied",
		},
		[]string{"kind", "discounted"},
	)

	PanicsRecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_panics_recovered_total",
			Help: "Total number of recovered panics",
		},
	)
)

// Metrics returns a middleware that collects Prometheus metrics
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		status := strconv.Itoa(wrapped.statusCode)

		// Route pattern, not path, to keep label cardinality bounded
		endpoint := routeLabel(r)

		// Record metrics
		requestDuration.WithLabelValues(r.Method, endpoint, status).Observe(duration.Seconds())
		requestCount.WithLabelValues(r.Method, endpoint, status).Inc()
	})
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
