// Package observability collects Prometheus metrics for check runs and the
// mock bank server.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contractcheck"

// Metrics holds the run metrics on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	scenarios    *prometheus.CounterVec
	steps        *prometheus.HistogramVec
	violations   *prometheus.CounterVec
	lastRun      prometheus.Gauge
	lastDuration prometheus.Gauge
}

// NewMetrics registers the run metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_total",
			Help:      "Scenarios run, by outcome (passed, failed, broken).",
		}, []string{"outcome"}),
		steps: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of scenario steps, by outcome.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contract_violations_total",
			Help:      "Response payloads that violated a contract, by contract name.",
		}, []string{"contract"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall-clock duration of the last run.",
		}),
	}
}

// ObserveScenario counts a finished scenario.
func (m *Metrics) ObserveScenario(outcome string) {
	m.scenarios.WithLabelValues(outcome).Inc()
}

// ObserveStep records a step duration.
func (m *Metrics) ObserveStep(outcome string, d time.Duration) {
	m.steps.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveViolation counts a contract violation.
func (m *Metrics) ObserveViolation(contract string) {
	m.violations.WithLabelValues(contract).Inc()
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(finished time.Time, d time.Duration) {
	m.lastRun.Set(float64(finished.Unix()))
	m.lastDuration.Set(d.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the registry in text exposition format, suitable for
// the node exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ServerMetrics instruments the mock bank HTTP server.
type ServerMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewServerMetrics registers HTTP server metrics plus the Go and process
// collectors on a fresh registry.
func NewServerMetrics() *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &ServerMetrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockbank",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"method", "route", "code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mockbank",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveRequest records one served request.
func (s *ServerMetrics) ObserveRequest(method, route string, code int, d time.Duration) {
	s.requests.WithLabelValues(method, route, fmt.Sprint(code)).Inc()
	s.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (s *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
