package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/knoguchi/rankeval/internal/evaluation"
	"github.com/knoguchi/rankeval/internal/report"
	"github.com/knoguchi/rankeval/internal/service"
)

const maxBodyBytes = 1 << 20

type compareRequest struct {
	Query     string   `json:"query" validate:"required,max=500"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

type ndcgRequest struct {
	Scores []float64 `json:"scores" validate:"required"`
}

type ndcgResponse struct {
	NDCG float64 `json:"ndcg"`
	DCG  float64 `json:"dcg"`
}

type refreshRequest struct {
	Token string `json:"token" validate:"required"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *HTTPServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *HTTPServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !s.decode(w, r, &req) {
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		writeError(w, http.StatusBadRequest, "latitude and longitude must be given together")
		return
	}

	var (
		cmp *service.Comparison
		err error
	)
	if req.Latitude != nil && req.Longitude != nil {
		cmp, err = s.comparer.RunAt(r.Context(), req.Query, *req.Latitude, *req.Longitude)
	} else {
		cmp, err = s.comparer.Run(r.Context(), req.Query)
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, report.NewComparisonView(cmp))
	case errors.Is(err, service.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUpstreamSearch):
		s.logger.Warn("comparison failed", "query", req.Query, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("comparison failed", "query", req.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) handleNDCG(w http.ResponseWriter, r *http.Request) {
	var req ndcgRequest
	if !s.decode(w, r, &req) {
		return
	}

	dcg := evaluation.DCG(req.Scores)
	if math.IsInf(dcg, 0) || math.IsNaN(dcg) {
		writeError(w, http.StatusBadRequest, "scores are too large to compute DCG")
		return
	}

	writeJSON(w, http.StatusOK, ndcgResponse{
		NDCG: evaluation.NDCG(req.Scores),
		DCG:  dcg,
	})
}

type comparisonSummary struct {
	RunID          string             `json:"run_id"`
	Query          string             `json:"query"`
	Results        int                `json:"results"`
	ListwiseFailed bool               `json:"listwise_failed"`
	Evaluation     service.Evaluation `json:"evaluation"`
	DurationMS     int64              `json:"duration_ms"`
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *HTTPServer) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	recent := s.history.Recent(limit)
	out := make([]comparisonSummary, len(recent))
	for i, cmp := range recent {
		out[i] = comparisonSummary{
			RunID:          cmp.RunID.String(),
			Query:          cmp.Query,
			Results:        len(cmp.Baseline),
			ListwiseFailed: cmp.ListwiseFailed,
			Evaluation:     cmp.Evaluation,
			DurationMS:     cmp.Duration.Milliseconds(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comparisons": out})
}

func (s *HTTPServer) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	cmp, ok := s.history.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "comparison not found")
		return
	}
	writeJSON(w, http.StatusOK, report.NewComparisonView(cmp))
}

func (s *HTTPServer) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !s.decode(w, r, &req) {
		return
	}

	token, err := s.jwt.RefreshToken(req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	expiresAt, err := s.jwt.TokenExpiry(token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}
