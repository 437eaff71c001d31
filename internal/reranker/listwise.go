package reranker

import (
	"context"
	"log/slog"

	"github.com/knoguchi/rankeval/internal/llm"
	"github.com/knoguchi/rankeval/internal/metrics"
)

// ListwiseResult is the outcome of one listwise pass.
type ListwiseResult struct {
	// Results in the model's order. May be shorter than the input (dropped
	// indices) or contain the same listing more than once (repeated indices).
	Results []SearchResult

	// QueryIntent is the model's reading of the query, or NoInterpretation.
	QueryIntent string

	// Failed is set when the model call failed and Results is the input order.
	Failed bool

	// Dropped counts verdict entries whose index was outside [1, N].
	Dropped int

	// Duplicated counts verdict entries that repeated an earlier index.
	Duplicated int
}

// Listwise ranks the whole candidate set with a single model call.
type Listwise struct {
	client   llm.StructuredInvoker
	template string
	logger   *slog.Logger
}

// NewListwise creates a listwise ranker.
func NewListwise(client llm.StructuredInvoker, cfg Config, logger *slog.Logger) *Listwise {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Listwise{
		client:   client,
		template: cfg.ListwiseTemplate,
		logger:   logger,
	}
}

// Rank asks the model to order candidates. candidates itself is not modified:
// ranked entries are copies carrying the verdict's score and reasoning.
func (l *Listwise) Rank(ctx context.Context, query string, candidates []SearchResult) ListwiseResult {
	if len(candidates) == 0 {
		return ListwiseResult{Results: candidates, QueryIntent: NoInterpretation}
	}

	prompt := RenderListwise(l.template, query, BuildResultsBlock(candidates))

	var verdict ListwiseVerdict
	if err := l.client.InvokeStructured(ctx, prompt, &verdict); err != nil {
		metrics.RecordListwise("fallback", 0, 0)
		l.logger.Warn("listwise ranking failed, keeping baseline order",
			"query", query,
			"candidates", len(candidates),
			"error", err,
		)
		return ListwiseResult{
			Results:     candidates,
			QueryIntent: NoInterpretation,
			Failed:      true,
		}
	}

	res := ListwiseResult{
		Results:     make([]SearchResult, 0, len(verdict.Ranking)),
		QueryIntent: verdict.QueryIntent,
	}

	n := len(candidates)
	seen := make(map[int]bool, n)
	for _, item := range verdict.Ranking {
		if item.Index < 1 || item.Index > n {
			res.Dropped++
			continue
		}
		if seen[item.Index] {
			res.Duplicated++
		}
		seen[item.Index] = true

		ranked := candidates[item.Index-1].Clone()
		ranked.SetScore(item.Score)
		ranked.SetReasoning(item.Reasoning)
		res.Results = append(res.Results, ranked)
	}

	metrics.RecordListwise("ok", res.Dropped, res.Duplicated)
	if res.Dropped > 0 || res.Duplicated > 0 {
		l.logger.Debug("listwise verdict was not a clean permutation",
			"query", query,
			"candidates", n,
			"ranked", len(res.Results),
			"dropped", res.Dropped,
			"duplicated", res.Duplicated,
		)
	}

	return res
}
