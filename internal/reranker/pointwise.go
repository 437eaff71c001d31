package reranker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Pointwise ranks candidates by independent per-item judgments.
type Pointwise struct {
	judge      *Judge
	maxWorkers int
	logger     *slog.Logger
}

// NewPointwise creates a pointwise ranker over judge.
func NewPointwise(judge *Judge, cfg Config, logger *slog.Logger) *Pointwise {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Pointwise{
		judge:      judge,
		maxWorkers: cfg.MaxWorkers,
		logger:     logger,
	}
}

type judgment struct {
	score float64
	err   error
}

// Rank scores every candidate, sets LLMScore on it and stable-sorts the slice
// by score descending. candidates is modified and returned; pass a copy.
//
// At most maxWorkers judgments run at once. Each task writes only its own
// slot, and failures (including panics) become FallbackScore when the
// results are joined, so completion order never affects the output.
func (p *Pointwise) Rank(ctx context.Context, query string, candidates []SearchResult) []SearchResult {
	judgments := make([]judgment, len(candidates))

	var g errgroup.Group
	g.SetLimit(p.maxWorkers)
	for i := range candidates {
		document := candidates[i].Document()
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					judgments[i].err = fmt.Errorf("judge panicked: %v", r)
				}
			}()
			judgments[i].score, judgments[i].err = p.judge.Judge(ctx, query, document)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i := range candidates {
		score := judgments[i].score
		if err := judgments[i].err; err != nil {
			score = p.judge.fallback(query, err)
			failed++
		}
		candidates[i].SetScore(score)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return *candidates[a].LLMScore > *candidates[b].LLMScore
	})

	p.logger.Debug("pointwise ranking complete",
		"query", query,
		"candidates", len(candidates),
		"failed_judgments", failed,
	)

	return candidates
}
