package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wonny/quantum/internal/contracts"
)

const namespace = "quantum"

// Metrics exports cycle summaries to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CycleRuns         *prometheus.CounterVec
	CycleDuration     *prometheus.HistogramVec
	Discovered        *prometheus.CounterVec
	NewCandidates     prometheus.Counter
	Decisions         *prometheus.CounterVec
	AlertsSent        prometheus.Counter
	EnrichFailures    prometheus.Counter
	SourceErrors      *prometheus.CounterVec
	LastCycleSuccess  prometheus.Gauge
	LastCycleAccepted prometheus.Gauge
}

// NewMetrics registers the pipeline metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		CycleRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Scan cycles by mode and outcome",
		}, []string{"mode", "outcome"}),
		CycleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Scan cycle duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"mode"}),
		Discovered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "candidates_total",
			Help:      "Unique candidates by first source",
		}, []string{"source"}),
		NewCandidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "new_candidates_total",
			Help:      "Candidates not seen before",
		}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decision",
			Name:      "verdicts_total",
			Help:      "Decisions by verdict",
		}, []string{"verdict"}),
		AlertsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "alerts_sent_total",
			Help:      "Alerts delivered",
		}),
		EnrichFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "failures_total",
			Help:      "Candidates dropped during enrichment",
		}),
		SourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "source_errors_total",
			Help:      "Failed source fetches",
		}, []string{"source"}),
		LastCycleSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed cycle",
		}),
		LastCycleAccepted: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "last_accepted",
			Help:      "ACCEPT verdicts in the last completed cycle",
		}),
	}
}

func (m *Metrics) observeDiscovered(candidates []contracts.Candidate) {
	if m == nil {
		return
	}
	for _, c := range candidates {
		m.Discovered.WithLabelValues(c.Source).Inc()
	}
}

// observeCycle records a finished cycle; err nil means completed
func (m *Metrics) observeCycle(cm *contracts.CycleMetrics, err error) {
	if m == nil || cm == nil {
		return
	}

	outcome := "completed"
	if err != nil {
		outcome = "aborted"
	}
	m.CycleRuns.WithLabelValues(cm.Mode, outcome).Inc()
	m.CycleDuration.WithLabelValues(cm.Mode).Observe(cm.Duration)

	for _, se := range cm.SourceErrors {
		m.SourceErrors.WithLabelValues(se.Source).Inc()
	}
	m.EnrichFailures.Add(float64(cm.EnrichFailures))

	if err != nil {
		return
	}
	m.NewCandidates.Add(float64(cm.New))
	m.Decisions.WithLabelValues(string(contracts.VerdictAccept)).Add(float64(cm.Accepted))
	m.Decisions.WithLabelValues(string(contracts.VerdictReview)).Add(float64(cm.Review))
	m.Decisions.WithLabelValues(string(contracts.VerdictReject)).Add(float64(cm.Rejected))
	m.AlertsSent.Add(float64(cm.AlertsSent))
	m.LastCycleSuccess.Set(float64(cm.StartedAt.Unix()) + cm.Duration)
	m.LastCycleAccepted.Set(float64(cm.Accepted))
}
