// Package report renders comparisons for people: JSON views for the API and
// terminal tables for the CLI.
package report

import (
	"github.com/knoguchi/rankeval/internal/reranker"
	"github.com/knoguchi/rankeval/internal/service"
)

// ResultView is a listing as presented to clients. Scores and reasoning a
// ranker did not attach are rendered as "N/A".
type ResultView struct {
	Rank          int    `json:"rank"`
	OriginalIndex int    `json:"original_index"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	LLMScore      any    `json:"llm_score"`
	LLMReasoning  string `json:"llm_reasoning"`
}

// ComparisonView is the presented form of a service.Comparison.
type ComparisonView struct {
	RunID          string             `json:"run_id"`
	Query          string             `json:"query"`
	QueryIntent    string             `json:"query_intent"`
	ListwiseFailed bool               `json:"listwise_failed"`
	Dropped        int                `json:"dropped"`
	Duplicated     int                `json:"duplicated"`
	Baseline       []ResultView       `json:"baseline"`
	Pointwise      []ResultView       `json:"pointwise"`
	Listwise       []ResultView       `json:"listwise"`
	Evaluation     service.Evaluation `json:"evaluation"`
	DurationMS     int64              `json:"duration_ms"`
}

// NewResultViews converts results, numbering ranks from 1.
func NewResultViews(results []reranker.SearchResult) []ResultView {
	views := make([]ResultView, len(results))
	for i, r := range results {
		var score any = reranker.NotAvailable
		if r.LLMScore != nil {
			score = *r.LLMScore
		}
		views[i] = ResultView{
			Rank:          i + 1,
			OriginalIndex: r.OriginalIndex,
			Title:         r.Title,
			Description:   r.Description,
			LLMScore:      score,
			LLMReasoning:  r.ReasoningLabel(),
		}
	}
	return views
}

// NewComparisonView converts a comparison for presentation.
func NewComparisonView(cmp *service.Comparison) ComparisonView {
	return ComparisonView{
		RunID:          cmp.RunID.String(),
		Query:          cmp.Query,
		QueryIntent:    cmp.QueryIntent,
		ListwiseFailed: cmp.ListwiseFailed,
		Dropped:        cmp.Dropped,
		Duplicated:     cmp.Duplicated,
		Baseline:       NewResultViews(cmp.Baseline),
		Pointwise:      NewResultViews(cmp.Pointwise),
		Listwise:       NewResultViews(cmp.Listwise),
		Evaluation:     cmp.Evaluation,
		DurationMS:     cmp.Duration.Milliseconds(),
	}
}
