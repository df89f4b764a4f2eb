package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"static-file-filter/lib/log"
)

const namespace = "static_file_filter"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.1, 0.3, 1.2, 5, 10},
		},
		[]string{"method"},
	)

	rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_total",
			Help:      "Total number of requests forbidden by extension",
		},
		[]string{"scope", "extension"},
	)

	scopeEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scope_entries",
			Help:      "Number of resolved denylist entries per scope",
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(rejectedTotal)
	prometheus.MustRegister(scopeEntries)
	log.Debug("Metrics collectors registered")
}

// IncRejected counts one forbidden request.
func IncRejected(scope, extension string) {
	rejectedTotal.WithLabelValues(scope, extension).Inc()
}

func SetScopeEntries(scope string, count int) {
	scopeEntries.WithLabelValues(scope).Set(float64(count))
}

// MetricsMiddleware returns a Fiber middleware for metrics
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(c.Method()))
		defer timer.ObserveDuration()

		err := c.Next()

		status := c.Response().StatusCode()
		httpRequestsTotal.WithLabelValues(c.Method(), strconv.Itoa(status)).Inc()

		return err
	}
}

// GinMetricsMiddleware is MetricsMiddleware for gin engines.
func GinMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(c.Request.Method))
		defer timer.ObserveDuration()

		c.Next()

		httpRequestsTotal.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// MetricsHandler returns a handler for the metrics endpoint
func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func GinMetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
