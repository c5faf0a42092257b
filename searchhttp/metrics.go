package searchhttp

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var metricsNamespace = "searchspec"

// Metrics collects per-route request counters and latencies.
type Metrics struct {
	RequestsCounter *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers the collectors on reg, which also serves them.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Number of handled HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of handled HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
