// Package evaluation computes ranking-quality metrics over relevance grades.
package evaluation

import (
	"math"
	"sort"
)

// maxExponent keeps 2^score finite; math.Pow(2, 1024) is +Inf.
const maxExponent = 1000

// DCG returns the discounted cumulative gain of scores in the given order.
// Position i (0-based) contributes (2^score - 1) / log2(i + 2).
// Grades large enough to overflow yield +Inf.
func DCG(scores []float64) float64 {
	return shiftedDCG(scores, 0)
}

// shiftedDCG is DCG scaled by 2^-shift: each gain is 2^(score-shift) - 2^-shift.
func shiftedDCG(scores []float64, shift float64) float64 {
	offset := math.Pow(2, -shift)
	var dcg float64
	for i, s := range scores {
		dcg += (math.Pow(2, s-shift) - offset) / math.Log2(float64(i)+2)
	}
	return dcg
}

// NDCG returns DCG normalized by the DCG of the ideal (descending) ordering
// of the same scores. It returns 0 when the ideal DCG is not positive, which
// covers empty and all-zero input, and when any grade is NaN or infinite.
// The input slice is not modified.
//
// When the top grade would overflow 2^score, both DCGs are scaled by the same
// power of two, which leaves the ratio unchanged.
func NDCG(scores []float64) float64 {
	ideal := make([]float64, len(scores))
	copy(ideal, scores)
	for _, s := range ideal {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return 0
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))

	var shift float64
	if len(ideal) > 0 && ideal[0] > maxExponent {
		shift = ideal[0]
	}

	idcg := shiftedDCG(ideal, shift)
	if idcg <= 0 || math.IsInf(idcg, 0) || math.IsNaN(idcg) {
		return 0
	}
	return min(shiftedDCG(scores, shift)/idcg, 1)
}
