// Package metrics exposes Prometheus instrumentation for the booking
// pipeline. All observer methods are nil-safe so callers can run
// uninstrumented in tests and one-shot CLI invocations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Plan metrics
	PlanRunsTotal    *prometheus.CounterVec
	PlanRunDuration  prometheus.Histogram
	SuspensionsTotal prometheus.Counter

	// Step metrics
	StepExecutionsTotal *prometheus.CounterVec
	StepDuration        *prometheus.HistogramVec

	// Scheduling metrics
	FreeSlotsFound prometheus.Histogram

	// Session metrics
	SessionsActive prometheus.Gauge

	// Gateway metrics
	PromptsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		PlanRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plan_runs_total",
				Help: "Total number of plan runs by terminal state",
			},
			[]string{"state"},
		),
		PlanRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "plan_run_duration_seconds",
				Help:    "Duration of complete plan runs",
				Buckets: prometheus.DefBuckets,
			},
		),
		SuspensionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "plan_suspensions_total",
				Help: "Total number of plan runs suspended on a pending action",
			},
		),
		StepExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "step_executions_total",
				Help: "Total number of step executions",
			},
			[]string{"api", "action", "status"},
		),
		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "step_duration_seconds",
				Help:    "Duration of step executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api", "action"},
		),
		FreeSlotsFound: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "free_slots_found",
				Help:    "Number of free slots returned per query",
				Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sessions_active",
				Help: "Number of known conversation sessions",
			},
		),
		PromptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prompts_total",
				Help: "Total number of processed prompts by response status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.PlanRunsTotal,
		m.PlanRunDuration,
		m.SuspensionsTotal,
		m.StepExecutionsTotal,
		m.StepDuration,
		m.FreeSlotsFound,
		m.SessionsActive,
		m.PromptsTotal,
	)

	return m
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStep records one step execution.
func (m *Metrics) ObserveStep(api, action string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.StepExecutionsTotal.WithLabelValues(api, action, status).Inc()
	m.StepDuration.WithLabelValues(api, action).Observe(d.Seconds())
}

// ObservePlanRun records one completed plan run.
func (m *Metrics) ObservePlanRun(state string, d time.Duration) {
	if m == nil {
		return
	}
	m.PlanRunsTotal.WithLabelValues(state).Inc()
	m.PlanRunDuration.Observe(d.Seconds())
}

// ObserveSuspension records a run suspended on a pending action.
func (m *Metrics) ObserveSuspension() {
	if m == nil {
		return
	}
	m.SuspensionsTotal.Inc()
}

// ObserveFreeSlots records the size of one free-slot query result.
func (m *Metrics) ObserveFreeSlots(n int) {
	if m == nil {
		return
	}
	m.FreeSlotsFound.Observe(float64(n))
}

// ObservePrompt records one processed prompt.
func (m *Metrics) ObservePrompt(status string) {
	if m == nil {
		return
	}
	m.PromptsTotal.WithLabelValues(status).Inc()
}

// SetActiveSessions updates the active session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}
