package service

import (
	"github.com/knoguchi/rankeval/internal/evaluation"
	"github.com/knoguchi/rankeval/internal/reranker"
)

// Evaluation scores each ordering with NDCG. Pointwise scores, keyed by
// OriginalIndex, serve as the relevance grades for every ordering except
// ListwiseSelfNDCG, which uses the listwise ranker's own scores.
type Evaluation struct {
	BaselineNDCG     float64 `json:"baseline_ndcg"`
	PointwiseNDCG    float64 `json:"pointwise_ndcg"`
	ListwiseNDCG     float64 `json:"listwise_ndcg"`
	ListwiseSelfNDCG float64 `json:"listwise_self_ndcg"`
}

// Evaluate computes NDCG for the three orderings.
func Evaluate(baseline, pointwise, listwise []reranker.SearchResult, listwiseFailed bool) Evaluation {
	grades := make(map[int]float64, len(pointwise))
	for _, r := range pointwise {
		if r.LLMScore != nil {
			grades[r.OriginalIndex] = *r.LLMScore
		}
	}

	gradesFor := func(results []reranker.SearchResult) []float64 {
		out := make([]float64, len(results))
		for i, r := range results {
			out[i] = grades[r.OriginalIndex]
		}
		return out
	}

	ev := Evaluation{
		BaselineNDCG:  evaluation.NDCG(gradesFor(baseline)),
		PointwiseNDCG: evaluation.NDCG(gradesFor(pointwise)),
		ListwiseNDCG:  evaluation.NDCG(gradesFor(listwise)),
	}

	if !listwiseFailed {
		own := make([]float64, len(listwise))
		for i, r := range listwise {
			if r.LLMScore != nil {
				own[i] = *r.LLMScore
			}
		}
		ev.ListwiseSelfNDCG = evaluation.NDCG(own)
	}

	return ev
}
