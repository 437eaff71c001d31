// Package metrics provides Prometheus metrics for the ranking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rankeval"

var (
	// LLMCallsTotal counts structured LLM invocations by provider and outcome.
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Total number of structured LLM invocations",
		},
		[]string{"provider", "outcome"},
	)

	// LLMCallDuration measures structured LLM invocation latency.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Duration of structured LLM invocations in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// JudgmentsTotal counts pointwise judgments by outcome (ok, fallback, out_of_range).
	JudgmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judgments_total",
			Help:      "Total number of pointwise relevance judgments",
		},
		[]string{"outcome"},
	)

	// ListwiseRankingsTotal counts listwise ranking passes by outcome (ok, fallback).
	ListwiseRankingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listwise_rankings_total",
			Help:      "Total number of listwise ranking passes",
		},
		[]string{"outcome"},
	)

	// ListwiseIndexAnomaliesTotal counts verdict entries dropped (out of range) or duplicated.
	ListwiseIndexAnomaliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listwise_index_anomalies_total",
			Help:      "Listwise verdict entries that were out of range or repeated",
		},
		[]string{"kind"},
	)

	// ComparisonsTotal counts orchestrated comparisons by status.
	ComparisonsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Total number of baseline/pointwise/listwise comparisons",
		},
		[]string{"status"},
	)

	// ComparisonDuration measures end-to-end comparison latency.
	ComparisonDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_duration_seconds",
			Help:      "Duration of a full comparison in seconds",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

// ObserveLLMCall records one structured LLM invocation.
func ObserveLLMCall(provider, outcome string, seconds float64) {
	LLMCallsTotal.WithLabelValues(provider, outcome).Inc()
	LLMCallDuration.WithLabelValues(provider).Observe(seconds)
}

// RecordJudgment records one pointwise judgment outcome.
func RecordJudgment(outcome string) {
	JudgmentsTotal.WithLabelValues(outcome).Inc()
}

// RecordListwise records a listwise pass and its index anomalies.
func RecordListwise(outcome string, dropped, duplicated int) {
	ListwiseRankingsTotal.WithLabelValues(outcome).Inc()
	if dropped > 0 {
		ListwiseIndexAnomaliesTotal.WithLabelValues("dropped").Add(float64(dropped))
	}
	if duplicated > 0 {
		ListwiseIndexAnomaliesTotal.WithLabelValues("duplicated").Add(float64(duplicated))
	}
}

// RecordComparison records a finished comparison.
func RecordComparison(status string, seconds float64) {
	ComparisonsTotal.WithLabelValues(status).Inc()
	ComparisonDuration.Observe(seconds)
}
