// Package reranker re-orders marketplace search results with an LLM judge.
//
// Two independent strategies are provided:
//
//   - Pointwise: every candidate is scored on its own by a Judge and the list
//     is stable-sorted by score.
//   - Listwise: the whole candidate set goes into one prompt and the model
//     returns a full ordering, per-item reasoning and its reading of the query.
//
// Both strategies are fail-soft. A failed judgment scores FallbackScore and a
// failed listwise call returns the input order with NoInterpretation as the
// query intent. Neither returns an error to the caller.
//
// Rankers write scores onto the slice they are given. Callers that need the
// baseline intact pass a copy from CloneResults.
package reranker

import (
	"strconv"
)

const (
	// MinScore and MaxScore bound the relevance scale the prompts ask for.
	MinScore = 1.0
	MaxScore = 10.0

	// FallbackScore is assigned when a pointwise judgment fails.
	FallbackScore = 0.0

	// NoInterpretation is the query intent reported when listwise ranking fails.
	NoInterpretation = "No interpretation available."

	// NotAvailable is shown for scores or reasoning a ranker did not attach.
	NotAvailable = "N/A"

	// DefaultMaxWorkers bounds concurrent pointwise judgments.
	DefaultMaxWorkers = 5
)

// SearchResult is one marketplace listing as seen by the rankers.
// OriginalIndex is its 1-based position in the baseline and never changes.
type SearchResult struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	OriginalIndex int      `json:"original_index"`
	LLMScore      *float64 `json:"llm_score,omitempty"`
	LLMReasoning  *string  `json:"llm_reasoning,omitempty"`
}

// Document is the text a pointwise judge sees: title and description joined by a space.
func (r SearchResult) Document() string {
	return r.Title + " " + r.Description
}

// SetScore attaches an LLM score.
func (r *SearchResult) SetScore(score float64) {
	r.LLMScore = &score
}

// SetReasoning attaches the LLM's explanation.
func (r *SearchResult) SetReasoning(reasoning string) {
	r.LLMReasoning = &reasoning
}

// ScoreLabel formats the score for display, or NotAvailable when unscored.
func (r SearchResult) ScoreLabel() string {
	if r.LLMScore == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*r.LLMScore, 'f', -1, 64)
}

// ReasoningLabel returns the reasoning, or NotAvailable when none was attached.
func (r SearchResult) ReasoningLabel() string {
	if r.LLMReasoning == nil {
		return NotAvailable
	}
	return *r.LLMReasoning
}

// Clone returns a deep copy that shares no pointers with r.
func (r SearchResult) Clone() SearchResult {
	out := r
	if r.LLMScore != nil {
		s := *r.LLMScore
		out.LLMScore = &s
	}
	if r.LLMReasoning != nil {
		s := *r.LLMReasoning
		out.LLMReasoning = &s
	}
	return out
}

// CloneResults deep-copies a result list.
func CloneResults(results []SearchResult) []SearchResult {
	if results == nil {
		return nil
	}
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return out
}

// Config is the ranking configuration, passed explicitly at construction.
type Config struct {
	// PointwiseTemplate must contain {query} and {document}.
	PointwiseTemplate string

	// ListwiseTemplate must contain {query} and {results_block}.
	ListwiseTemplate string

	// MaxWorkers bounds concurrent judge calls in the pointwise ranker.
	MaxWorkers int

	// ClampScores forces judge scores into [MinScore, MaxScore]. Off by default:
	// out-of-range scores are passed through and only logged.
	ClampScores bool
}

// DefaultConfig returns the stock templates and concurrency.
func DefaultConfig() Config {
	return Config{
		PointwiseTemplate: DefaultPointwisePrompt,
		ListwiseTemplate:  DefaultListwisePrompt,
		MaxWorkers:        DefaultMaxWorkers,
	}
}

func (c Config) withDefaults() Config {
	if c.PointwiseTemplate == "" {
		c.PointwiseTemplate = DefaultPointwisePrompt
	}
	if c.ListwiseTemplate == "" {
		c.ListwiseTemplate = DefaultListwisePrompt
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	return c
}
