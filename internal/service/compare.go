// Package service runs ranking comparisons end to end.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knoguchi/rankeval/internal/metrics"
	"github.com/knoguchi/rankeval/internal/reranker"
	"github.com/knoguchi/rankeval/internal/search"
)

var (
	// ErrEmptyQuery is returned when the query is blank.
	ErrEmptyQuery = errors.New("query is required")

	// ErrUpstreamSearch wraps any failure to fetch the baseline.
	ErrUpstreamSearch = errors.New("upstream search error")
)

// PointwiseRanker scores candidates independently and sorts them.
type PointwiseRanker interface {
	Rank(ctx context.Context, query string, candidates []reranker.SearchResult) []reranker.SearchResult
}

// ListwiseRanker orders the whole candidate set in one pass.
type ListwiseRanker interface {
	Rank(ctx context.Context, query string, candidates []reranker.SearchResult) reranker.ListwiseResult
}

// Comparison is the outcome of one run: three views over the same listings.
type Comparison struct {
	RunID          uuid.UUID               `json:"run_id"`
	Query          string                  `json:"query"`
	Baseline       []reranker.SearchResult `json:"baseline"`
	Pointwise      []reranker.SearchResult `json:"pointwise"`
	Listwise       []reranker.SearchResult `json:"listwise"`
	QueryIntent    string                  `json:"query_intent"`
	ListwiseFailed bool                    `json:"listwise_failed"`
	Dropped        int                     `json:"dropped"`
	Duplicated     int                     `json:"duplicated"`
	Evaluation     Evaluation              `json:"evaluation"`
	Duration       time.Duration           `json:"duration"`
}

// Recorder receives every completed comparison.
type Recorder interface {
	Record(cmp *Comparison)
}

// CompareService fetches a baseline and re-ranks it both ways.
type CompareService struct {
	searcher  search.Searcher
	pointwise PointwiseRanker
	listwise  ListwiseRanker
	recorder  Recorder
	latitude  float64
	longitude float64
	logger    *slog.Logger
}

// CompareOption is a functional option for configuring CompareService.
type CompareOption func(*CompareService)

// WithLocation sets the location Run searches around.
func WithLocation(latitude, longitude float64) CompareOption {
	return func(s *CompareService) {
		s.latitude = latitude
		s.longitude = longitude
	}
}

// WithRecorder hands each completed comparison to r.
func WithRecorder(r Recorder) CompareOption {
	return func(s *CompareService) {
		s.recorder = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CompareOption {
	return func(s *CompareService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCompareService creates a CompareService.
func NewCompareService(
	searcher search.Searcher,
	pointwise PointwiseRanker,
	listwise ListwiseRanker,
	opts ...CompareOption,
) *CompareService {
	s := &CompareService{
		searcher:  searcher,
		pointwise: pointwise,
		listwise:  listwise,
		latitude:  search.DefaultLatitude,
		longitude: search.DefaultLongitude,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run compares rankings for query around the configured location.
func (s *CompareService) Run(ctx context.Context, query string) (*Comparison, error) {
	return s.RunAt(ctx, query, s.latitude, s.longitude)
}

// RunAt compares rankings for query around (latitude, longitude).
//
// Only a failed search is an error. Ranking failures degrade inside the
// rankers and show up in the result (zero scores, ListwiseFailed).
func (s *CompareService) RunAt(ctx context.Context, query string, latitude, longitude float64) (*Comparison, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	listings, err := s.searcher.Search(ctx, query, latitude, longitude)
	if err != nil {
		metrics.RecordComparison("search_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %w", ErrUpstreamSearch, err)
	}

	baseline := make([]reranker.SearchResult, len(listings))
	for i, l := range listings {
		baseline[i] = reranker.SearchResult{
			Title:         l.Title,
			Description:   l.Description,
			OriginalIndex: i + 1,
		}
	}

	cmp := &Comparison{
		RunID:    uuid.New(),
		Query:    query,
		Baseline: baseline,
	}

	lw := s.listwise.Rank(ctx, query, reranker.CloneResults(baseline))
	cmp.Listwise = lw.Results
	cmp.QueryIntent = lw.QueryIntent
	cmp.ListwiseFailed = lw.Failed
	cmp.Dropped = lw.Dropped
	cmp.Duplicated = lw.Duplicated

	cmp.Pointwise = s.pointwise.Rank(ctx, query, reranker.CloneResults(baseline))

	cmp.Evaluation = Evaluate(cmp.Baseline, cmp.Pointwise, cmp.Listwise, cmp.ListwiseFailed)
	cmp.Duration = time.Since(start)

	status := "ok"
	if lw.Failed {
		status = "listwise_failed"
	}
	metrics.RecordComparison(status, cmp.Duration.Seconds())
	if s.recorder != nil {
		s.recorder.Record(cmp)
	}

	s.logger.Info("comparison complete",
		"run_id", cmp.RunID,
		"query", query,
		"results", len(baseline),
		"listwise_failed", lw.Failed,
		"baseline_ndcg", cmp.Evaluation.BaselineNDCG,
		"listwise_ndcg", cmp.Evaluation.ListwiseNDCG,
		"duration", cmp.Duration,
	)

	return cmp, nil
}
