// Package telemetry exposes tracker metrics in the Prometheus text format.
package telemetry

import (
	"net/http"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "buildtrace"

// Exporter owns a private registry. Snapshot-derived gauges are computed at
// scrape time, so the tracker stays the single source of truth.
type Exporter struct {
	reg     *prometheus.Registry
	latency prometheus.Histogram
	jobs    *prometheus.CounterVec
}

// NewExporter registers gauges reading from reader.
func NewExporter(reader domain.MetricsReader) *Exporter {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	snapshotGauge := func(name, help string, value func(domain.MetricsSnapshot) float64) {
		f.NewGaugeFunc(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help},
			func() float64 { return value(reader.Snapshot()) })
	}
	snapshotGauge("latency_p50_seconds", "Median job latency over the latency window.",
		func(s domain.MetricsSnapshot) float64 { return s.P50 })
	snapshotGauge("latency_p95_seconds", "95th percentile job latency over the latency window.",
		func(s domain.MetricsSnapshot) float64 { return s.P95 })
	snapshotGauge("latency_p99_seconds", "99th percentile job latency over the latency window.",
		func(s domain.MetricsSnapshot) float64 { return s.P99 })
	snapshotGauge("success_ratio", "Share of successful jobs since start, 0 to 1.",
		func(s domain.MetricsSnapshot) float64 { return s.SuccessRate / 100 })
	snapshotGauge("tracked_jobs", "Jobs recorded by the tracker since start or reset.",
		func(s domain.MetricsSnapshot) float64 { return float64(s.TotalJobs) })
	snapshotGauge("missing_input_failures", "Jobs that failed because both snapshots were unavailable.",
		func(s domain.MetricsSnapshot) float64 { return float64(s.MissingInputFailures) })
	snapshotGauge("data_quality_events", "Outcomes with clamped latency or unknown status.",
		func(s domain.MetricsSnapshot) float64 { return float64(s.DataQualityEvents) })

	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthy",
		Help:      "1 when no anomaly rule is triggered, 0 otherwise.",
	}, func() float64 {
		if reader.Health().Status == domain.HealthHealthy {
			return 1
		}
		return 0
	})

	return &Exporter{
		reg: reg,
		latency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_latency_seconds",
			Help:      "Latency of successful comparison jobs.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Completed comparison jobs by status and error kind.",
		}, []string{"status", "error_kind"}),
	}
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}

// Recorder returns an OutcomeRecorder that updates the exporter's counters
// before delegating to next.
func (e *Exporter) Recorder(next domain.OutcomeRecorder) *InstrumentedRecorder {
	return &InstrumentedRecorder{exp: e, next: next}
}

// InstrumentedRecorder decorates an OutcomeRecorder with Prometheus counters.
type InstrumentedRecorder struct {
	exp  *Exporter
	next domain.OutcomeRecorder
}

// Record implements domain.OutcomeRecorder.
func (r *InstrumentedRecorder) Record(o domain.JobOutcome) {
	kind := string(o.ErrorKind)
	if kind == "" {
		kind = "none"
	}
	r.exp.jobs.WithLabelValues(string(o.Status), kind).Inc()

	if o.Status == domain.JobSuccess {
		if latency := o.Latency().Seconds(); latency >= 0 {
			r.exp.latency.Observe(latency)
		}
	}
	if r.next != nil {
		r.next.Record(o)
	}
}
