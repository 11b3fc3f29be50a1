package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shortener"

// Metrics holds the collectors of the validation pipeline and the admission gate.
type Metrics struct {
	registry    *prometheus.Registry
	admissions  *prometheus.CounterVec
	validations *prometheus.CounterVec
	checks      *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry, together with the
// process and Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Redirect decisions by outcome.",
		}, []string{"outcome"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Completed validation tasks by resulting state or failure.",
		}, []string{"outcome"}),
		checks: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_check_duration_seconds",
			Help:      "Latency of trust checks, including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"check", "result"}),
	}

	m.registry.MustRegister(
		m.admissions,
		m.validations,
		m.checks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveAdmission counts a gate outcome.
func (m *Metrics) ObserveAdmission(outcome string) {
	m.admissions.WithLabelValues(outcome).Inc()
}

// ObserveValidation counts a validation task outcome.
func (m *Metrics) ObserveValidation(outcome string) {
	m.validations.WithLabelValues(outcome).Inc()
}

// ObserveCheck records the latency of a trust check.
func (m *Metrics) ObserveCheck(check string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.checks.WithLabelValues(check, result).Observe(elapsed.Seconds())
}

// QueueDepth exposes the number of pending validation tasks.
func (m *Metrics) QueueDepth(depth func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "validation_queue_depth",
		Help:      "Validation tasks waiting for a worker.",
	}, func() float64 {
		return float64(depth())
	}))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
