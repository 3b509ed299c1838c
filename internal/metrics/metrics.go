// Package metrics exposes planner activity to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry and the planner's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	plansTotal      *prometheus.CounterVec
	sweepsTotal     *prometheus.CounterVec
	sweepCells      prometheus.Histogram
	sweepDuration   prometheus.Histogram
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry, plus the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		plansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gopower_plans_total",
			Help: "Sample size calculations by design, outcome and result",
		}, []string{"design", "outcome", "result"}),
		sweepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gopower_sweeps_total",
			Help: "Sensitivity sweeps by result",
		}, []string{"result"}),
		sweepCells: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gopower_sweep_cells",
			Help:    "Grid cells evaluated per sweep",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
		}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gopower_sweep_duration_seconds",
			Help:    "Sweep wall time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gopower_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gopower_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObservePlan counts one calculation
func (m *Metrics) ObservePlan(design, outcome string, err error) {
	if m == nil {
		return
	}
	m.plansTotal.WithLabelValues(design, outcome, result(err)).Inc()
}

// ObserveSweep records one sweep
func (m *Metrics) ObserveSweep(cells int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.sweepsTotal.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.sweepCells.Observe(float64(cells))
		m.sweepDuration.Observe(elapsed.Seconds())
	}
}

// GinMiddleware records request counts and latency by route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
