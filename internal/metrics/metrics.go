// Package metrics defines Prometheus metrics for weatherlog.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/simp-lee/weatherlog/internal/domain"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	UpdatesTotal    *prometheus.CounterVec
	FieldChanges    *prometheus.CounterVec
	RecordsSaved    prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weatherlog_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weatherlog_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		UpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weatherlog_weather_updates_total",
				Help: "Weather update calls by outcome",
			},
			[]string{"outcome"},
		),
		FieldChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weatherlog_weather_field_changes_total",
				Help: "Persisted field changes by field",
			},
			[]string{"field"},
		),
		RecordsSaved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "weatherlog_weather_records_saved_total",
				Help: "Weather searches saved",
			},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RequestDuration, m.RequestsTotal,
		m.UpdatesTotal, m.FieldChanges, m.RecordsSaved,
	)
	return m
}

// RecordSaved counts one saved record.
func (m *Metrics) RecordSaved() {
	m.RecordsSaved.Inc()
}

// UpdateOutcome counts one update call.
func (m *Metrics) UpdateOutcome(outcome string) {
	m.UpdatesTotal.WithLabelValues(outcome).Inc()
}

// FieldChanged counts one persisted field change.
func (m *Metrics) FieldChanged(field domain.FieldName) {
	m.FieldChanges.WithLabelValues(string(field)).Inc()
}

// Middleware returns a gin middleware observing request count and latency.
// Requests matching no route are labelled "unmatched".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
