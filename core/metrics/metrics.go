package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics collects summary run metrics in its own registry.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	registry *prometheus.Registry

	runTotal      *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runInFlight   prometheus.Gauge
	stageDuration *prometheus.HistogramVec
	solverStatus  *prometheus.CounterVec
	lookupTotal   *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers every collector.
func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "summer",
			Subsystem: "pipeline",
			Name:      "run_total",
			Help:      "Total summary runs by status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "summer",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Summary run duration in seconds by status.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	runInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "summer",
			Subsystem: "pipeline",
			Name:      "run_in_flight",
			Help:      "Number of summary runs in progress.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "summer",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of one pipeline stage in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
	solverStatus := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "summer",
			Subsystem: "solver",
			Name:      "status_total",
			Help:      "Selection results by solver status.",
		},
		[]string{"status"},
	)
	lookupTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "summer",
			Subsystem: "oracle",
			Name:      "lookup_total",
			Help:      "Knowledge graph lookups by backend and result.",
		},
		[]string{"backend", "result"},
	)

	registry.MustRegister(runTotal, runDuration, runInFlight, stageDuration, solverStatus, lookupTotal)

	return &PipelineMetrics{
		registry:      registry,
		runTotal:      runTotal,
		runDuration:   runDuration,
		runInFlight:   runInFlight,
		stageDuration: stageDuration,
		solverStatus:  solverStatus,
		lookupTotal:   lookupTotal,
	}
}

// Registry returns the registry holding the collectors.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartRun() {
	if m == nil {
		return
	}
	m.runInFlight.Inc()
}

func (m *PipelineMetrics) FinishRun(service string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.runInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.runTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveStage(stage string, duration time.Duration) {
	if m == nil || duration < 0 {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) ObserveSolverStatus(status string) {
	if m == nil {
		return
	}
	m.solverStatus.WithLabelValues(status).Inc()
}

func (m *PipelineMetrics) ObserveLookup(backend string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.lookupTotal.WithLabelValues(backend, result).Inc()
}
