// Package metrics exposes workflow execution counters on a dedicated
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sweepgridgo"

// Metrics holds the collectors recorded by the workflow driver.
type Metrics struct {
	registry *prometheus.Registry

	Submitted *prometheus.CounterVec
	Finished  *prometheus.CounterVec
	InFlight  prometheus.Gauge
	Duration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Tasks handed to an execution backend.",
		}, []string{"backend", "kind"}),
		Finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Tasks that reached a terminal status.",
		}, []string{"kind", "status"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_in_flight",
			Help:      "Tasks submitted and not yet settled.",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Time from submission to settlement.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.Submitted, m.Finished, m.InFlight, m.Duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TaskSubmitted records a submission.
func (m *Metrics) TaskSubmitted(backendName, kind string) {
	if m == nil {
		return
	}
	m.Submitted.WithLabelValues(backendName, kind).Inc()
	m.InFlight.Inc()
}

// TaskSettled records a submitted task reaching a terminal status.
func (m *Metrics) TaskSettled(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.InFlight.Dec()
	m.Finished.WithLabelValues(kind, status).Inc()
	m.Duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// TaskSkipped records a node that never ran.
func (m *Metrics) TaskSkipped(kind string) {
	if m == nil {
		return
	}
	m.Finished.WithLabelValues(kind, "skipped").Inc()
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
