package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	VerdictsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_verdicts_total",
			Help: "Total number of moderation verdicts by tier",
		},
		[]string{"tier", "action"},
	)

	FalsePositivesCorrected = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "roleguard_false_positives_corrected_total",
			Help: "Static matches the context arbiter downgraded to safe",
		},
	)

	JudgeCalls = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_judge_calls_total",
			Help: "LLM judge calls by outcome (ok, parse_error, call_error)",
		},
		[]string{"outcome"},
	)

	JudgeLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roleguard_judge_latency_seconds",
			Help:    "LLM judge call latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	LookupAdmissions = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_lookup_admissions_total",
			Help: "External lookup admissions by decision and deny reason",
		},
		[]string{"decision", "reason"},
	)

	TermsLearned = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_terms_learned_total",
			Help: "Terms accepted into the pattern store by category",
		},
		[]string{"category"},
	)

	PersonaLeaks = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_persona_leaks_total",
			Help: "Outbound replies flagged by the persona guard",
		},
		[]string{"severity"},
	)
)

// Registry exposes the private registry for callers that mount an exporter.
func Registry() *prometheus.Registry {
	return registry
}
