package reranker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/knoguchi/rankeval/internal/llm"
	"github.com/knoguchi/rankeval/internal/metrics"
)

// Judge scores a single (query, document) pair with an LLM.
type Judge struct {
	client   llm.StructuredInvoker
	template string
	clamp    bool
	logger   *slog.Logger
}

// NewJudge creates a relevance judge.
func NewJudge(client llm.StructuredInvoker, cfg Config, logger *slog.Logger) *Judge {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Judge{
		client:   client,
		template: cfg.PointwiseTemplate,
		clamp:    cfg.ClampScores,
		logger:   logger,
	}
}

// Judge returns the model's score for document, or the invocation error.
func (j *Judge) Judge(ctx context.Context, query, document string) (float64, error) {
	var verdict PointwiseVerdict
	if err := j.client.InvokeStructured(ctx, RenderPointwise(j.template, query, document), &verdict); err != nil {
		return 0, fmt.Errorf("judging document: %w", err)
	}
	if verdict.Score == nil {
		return 0, fmt.Errorf("judging document: %w: missing score", llm.ErrParse)
	}

	score := *verdict.Score
	if score < MinScore || score > MaxScore {
		metrics.RecordJudgment("out_of_range")
		j.logger.Debug("judge score outside scale",
			"query", query,
			"score", score,
			"clamped", j.clamp,
		)
		if j.clamp {
			score = min(max(score, MinScore), MaxScore)
		}
	}

	metrics.RecordJudgment("ok")
	return score, nil
}

// Score is the fail-soft form of Judge: on any failure it logs and returns FallbackScore.
func (j *Judge) Score(ctx context.Context, query, document string) float64 {
	score, err := j.Judge(ctx, query, document)
	if err != nil {
		return j.fallback(query, err)
	}
	return score
}

func (j *Judge) fallback(query string, err error) float64 {
	metrics.RecordJudgment("fallback")
	j.logger.Warn("relevance judgment failed, using fallback score",
		"query", query,
		"fallback_score", FallbackScore,
		"error", err,
	)
	return FallbackScore
}
