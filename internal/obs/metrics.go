// Package obs holds the Prometheus collectors exported on /metrics.
package obs

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// LifecycleTransitions counts lead classification changes made by the synchronizer, by rule.
	LifecycleTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_lifecycle_transitions_total",
			Help: "Lead classification changes applied by lifecycle rules.",
		},
		[]string{"rule"},
	)

	// IngestionRows counts import rows by outcome: created, updated, duplicated, errored.
	IngestionRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_ingestion_rows_total",
			Help: "Bulk import rows by outcome.",
		},
		[]string{"outcome"},
	)

	// VisitDispatches counts visit notification attempts by trigger and result.
	VisitDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crm_visit_dispatch_total",
			Help: "Visit notifications sent to the sales system.",
		},
		[]string{"trigger", "result"},
	)
)

var registerOnce sync.Once

// Init registers all collectors in the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight,
			httpRequestsTotal,
			httpRequestDuration,
			LifecycleTransitions,
			IngestionRows,
			VisitDispatches,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request count, latency and in-flight gauge per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpInFlight.Dec()
	}
}
