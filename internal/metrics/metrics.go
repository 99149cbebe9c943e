package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for StudentWrites.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidEmail  = "invalid_email"
	OutcomeDuplicate     = "duplicate_email"
	OutcomeNotFound      = "not_found"
	OutcomeInternalError = "error"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	StudentWrites   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on a fresh registry, so
// tests can build as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		StudentWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "student_records_writes_total",
			Help: "Student write operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "student_records_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// ObserveWrite counts one write operation.
func (m *Metrics) ObserveWrite(operation, outcome string) {
	if m == nil {
		return
	}
	m.StudentWrites.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
