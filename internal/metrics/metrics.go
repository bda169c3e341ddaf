// Package metrics exposes Prometheus instruments for the matching pipeline
// and the surface-form build.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/lexmatch/pkg/lexmatch/match"
)

const namespace = "lexmatch"

// Build outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFallback = "fallback"
	OutcomeFailure  = "failure"
)

// Metrics groups every instrument. A nil *Metrics is a valid no-op.
type Metrics struct {
	StageCandidates  *prometheus.CounterVec
	Documents        prometheus.Counter
	AnnotateDuration prometheus.Histogram
	Builds           *prometheus.CounterVec
	Entries          prometheus.Gauge
}

// New creates the instruments and registers them with reg. A nil reg skips
// registration, which keeps tests independent of the global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StageCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_candidates_total",
			Help:      "Candidates produced by each matching stage.",
		}, []string{"kind"}),
		Documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_annotated_total",
			Help:      "Documents run through the annotator.",
		}),
		AnnotateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "annotate_duration_seconds",
			Help:      "Time spent annotating one document.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surface_builds_total",
			Help:      "Surface-form database builds by outcome.",
		}, []string{"outcome"}),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "surface_entries",
			Help:      "Entries in the most recently built surface-form database.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.StageCandidates, m.Documents, m.AnnotateDuration, m.Builds, m.Entries)
	}
	return m
}

// ObserveStage implements match.Observer.
func (m *Metrics) ObserveStage(kind match.Kind, candidates int) {
	if m == nil {
		return
	}
	m.StageCandidates.WithLabelValues(string(kind)).Add(float64(candidates))
}

// ObserveAnnotate records one annotated document.
func (m *Metrics) ObserveAnnotate(d time.Duration) {
	if m == nil {
		return
	}
	m.Documents.Inc()
	m.AnnotateDuration.Observe(d.Seconds())
}

// ObserveBuild records a build outcome and, on success, the entry count.
func (m *Metrics) ObserveBuild(outcome string, entries int) {
	if m == nil {
		return
	}
	m.Builds.WithLabelValues(outcome).Inc()
	if outcome != OutcomeFailure {
		m.Entries.Set(float64(entries))
	}
}
