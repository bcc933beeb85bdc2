// Package metrics exposes Prometheus instrumentation for the billing
// pipeline and its integrations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the service's Prometheus collectors. Construct one per
// process with a registry and pass it where instrumentation is needed.
type Metrics struct {
	PipelineRuns      *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	RegistrarFailures prometheus.Counter
}

// New registers and returns the service collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revenue_pipeline_runs_total",
			Help: "Billing pipeline runs by outcome (completed, degraded, or the stage that failed).",
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "revenue_pipeline_duration_seconds",
			Help:    "End-to-end duration of a billing pipeline run.",
			Buckets: prometheus.DefBuckets,
		}),
		RegistrarFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revenue_registrar_failures_total",
			Help: "External billing registrations that failed and fell back to a local invoice id.",
		}),
	}
	reg.MustRegister(m.PipelineRuns, m.PipelineDuration, m.RegistrarFailures)
	return m
}
