package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knoguchi/rankeval/internal/reranker"
	"github.com/knoguchi/rankeval/internal/service"
)

func sampleComparison() *service.Comparison {
	baseline := []reranker.SearchResult{
		{Title: "Silla roble", Description: "Silla de madera maciza en buen estado", OriginalIndex: 1},
		{Title: "Mesa jardin", Description: "Mesa exterior", OriginalIndex: 2},
	}
	pointwise := reranker.CloneResults(baseline)
	pointwise[0].SetScore(9)
	pointwise[1].SetScore(2)

	listwise := reranker.CloneResults(baseline)
	listwise[0].SetScore(8)
	listwise[0].SetReasoning("wooden chair")

	return &service.Comparison{
		RunID:       uuid.New(),
		Query:       "silla de madera",
		Baseline:    baseline,
		Pointwise:   pointwise,
		Listwise:    listwise[:1],
		QueryIntent: "a wooden chair",
		Dropped:     1,
		Evaluation:  service.Evaluation{BaselineNDCG: 1, PointwiseNDCG: 1, ListwiseNDCG: 1, ListwiseSelfNDCG: 1},
		Duration:    1500 * time.Millisecond,
	}
}

func TestNewComparisonView_RendersNA(t *testing.T) {
	view := NewComparisonView(sampleComparison())

	b, err := json.Marshal(view)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))

	baseline := decoded["baseline"].([]any)
	first := baseline[0].(map[string]any)
	assert.Equal(t, "N/A", first["llm_score"])
	assert.Equal(t, "N/A", first["llm_reasoning"])
	assert.EqualValues(t, 1, first["rank"])

	listwise := decoded["listwise"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 8, listwise["llm_score"])
	assert.Equal(t, "wooden chair", listwise["llm_reasoning"])

	assert.EqualValues(t, 1500, decoded["duration_ms"])
	assert.Equal(t, "a wooden chair", decoded["query_intent"])
}

func TestPrinter_Comparison(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	require.NoError(t, p.Comparison(sampleComparison()))
	out := buf.String()

	assert.Contains(t, out, "Query: silla de madera")
	assert.Contains(t, out, "Query intent: a wooden chair")
	assert.Contains(t, out, "Silla roble")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "wooden chair")
	assert.Contains(t, out, "1.0000")
	assert.Contains(t, out, "[WARN] listwise verdict dropped 1 and repeated 0 entries")
	assert.NotContains(t, out, "\x1b[", "no escape codes without colors")
}

func TestPrinter_ListwiseFailedWarning(t *testing.T) {
	cmp := sampleComparison()
	cmp.ListwiseFailed = true
	cmp.QueryIntent = reranker.NoInterpretation

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, false).Comparison(cmp))
	assert.Contains(t, buf.String(), "listwise ranking failed")
	assert.Contains(t, buf.String(), reranker.NoInterpretation)
}

func TestPrinter_Bulk(t *testing.T) {
	var buf bytes.Buffer
	err := NewPrinter(&buf, false).Bulk([]BulkRow{
		{Keyword: "bicicleta", Results: 40, Evaluation: service.Evaluation{BaselineNDCG: 0.8123}},
		{Keyword: "sofa", Err: errors.New("upstream search error")},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "bicicleta")
	assert.Contains(t, out, "0.8123")
	assert.Contains(t, out, "error: upstream search error")
	assert.Contains(t, out, "1 of 2 keywords failed")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ñññ...", truncate("ññññññññ", 6))
}

func TestResolveColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ResolveColors(false))
	assert.True(t, ResolveColors(true))
}
