package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knoguchi/rankeval/internal/auth"
	"github.com/knoguchi/rankeval/internal/history"
	"github.com/knoguchi/rankeval/internal/reranker"
	"github.com/knoguchi/rankeval/internal/search"
	"github.com/knoguchi/rankeval/internal/service"
)

type fakeComparer struct {
	err      error
	gotQuery string
	gotLat   *float64
	gotLon   *float64
}

func (f *fakeComparer) Run(_ context.Context, query string) (*service.Comparison, error) {
	f.gotQuery = query
	return f.result(query)
}

func (f *fakeComparer) RunAt(_ context.Context, query string, lat, lon float64) (*service.Comparison, error) {
	f.gotQuery, f.gotLat, f.gotLon = query, &lat, &lon
	return f.result(query)
}

func (f *fakeComparer) result(query string) (*service.Comparison, error) {
	if f.err != nil {
		return nil, f.err
	}
	baseline := []reranker.SearchResult{{Title: "A", OriginalIndex: 1}}
	pointwise := reranker.CloneResults(baseline)
	pointwise[0].SetScore(7)
	return &service.Comparison{
		RunID:       uuid.New(),
		Query:       query,
		Baseline:    baseline,
		Pointwise:   pointwise,
		Listwise:    baseline,
		QueryIntent: reranker.NoInterpretation,
	}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCompare_OK(t *testing.T) {
	fc := &fakeComparer{}
	h := NewHTTPServer(HTTPServerConfig{}, fc).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/compare", `{"query":"bici"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bici", body["query"])
	assert.Equal(t, "bici", fc.gotQuery)
	assert.Nil(t, fc.gotLat)

	baseline := body["baseline"].([]any)[0].(map[string]any)
	assert.Equal(t, "N/A", baseline["llm_score"])
	pointwise := body["pointwise"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 7, pointwise["llm_score"])
}

func TestCompare_WithLocation(t *testing.T) {
	fc := &fakeComparer{}
	h := NewHTTPServer(HTTPServerConfig{}, fc).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/compare", `{"query":"bici","latitude":40.4,"longitude":-3.7}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fc.gotLat)
	assert.Equal(t, 40.4, *fc.gotLat)
	assert.Equal(t, -3.7, *fc.gotLon)
}

func TestCompare_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"missing query", `{}`, nil, http.StatusBadRequest},
		{"malformed json", `{"query":`, nil, http.StatusBadRequest},
		{"unknown field", `{"query":"x","foo":1}`, nil, http.StatusBadRequest},
		{"latitude out of range", `{"query":"x","latitude":99,"longitude":0}`, nil, http.StatusBadRequest},
		{"latitude without longitude", `{"query":"x","latitude":1}`, nil, http.StatusBadRequest},
		{"blank query", `{"query":"  "}`, service.ErrEmptyQuery, http.StatusBadRequest},
		{"upstream failure", `{"query":"x"}`, fmt.Errorf("%w: %w", service.ErrUpstreamSearch, search.ErrUpstream), http.StatusBadGateway},
		{"unexpected failure", `{"query":"x"}`, fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHTTPServer(HTTPServerConfig{}, &fakeComparer{err: tt.err}).Handler()
			rec := do(t, h, http.MethodPost, "/api/v1/compare", tt.body, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestNDCG(t *testing.T) {
	h := NewHTTPServer(HTTPServerConfig{}, &fakeComparer{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/ndcg", `{"scores":[3,2,1]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body ndcgResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1.0, body.NDCG)
	assert.Greater(t, body.DCG, 0.0)

	rec = do(t, h, http.MethodPost, "/api/v1/ndcg", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNDCG_OverflowingGrades(t *testing.T) {
	h := NewHTTPServer(HTTPServerConfig{}, &fakeComparer{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/ndcg", `{"scores":[1100,1]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"ndcg": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	authn := auth.NewAuthenticator([]string{"key"}, nil, nil)
	h := NewHTTPServer(HTTPServerConfig{Authenticator: authn}, &fakeComparer{}).Handler()

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := do(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAuthRequiredWhenConfigured(t *testing.T) {
	jwtManager := auth.NewJWTManager(auth.DefaultJWTConfig("secret"))
	authn := auth.NewAuthenticator([]string{"key"}, jwtManager, nil)
	h := NewHTTPServer(HTTPServerConfig{Authenticator: authn, JWT: jwtManager}, &fakeComparer{}).Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/compare", `{"query":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/compare", `{"query":"x"}`, map[string]string{auth.APIKeyHeader: "key"})
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := jwtManager.GenerateToken("dashboard", "")
	require.NoError(t, err)
	rec = do(t, h, http.MethodPost, "/api/v1/ndcg", `{"scores":[1]}`, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/token/refresh", `{"token":"`+token+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.Token)
	assert.False(t, refreshed.ExpiresAt.IsZero())

	rec = do(t, h, http.MethodPost, "/api/v1/token/refresh", `{"token":"garbage"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewHTTPServer(HTTPServerConfig{AllowedOrigins: []string{"https://dash.example"}}, &fakeComparer{}).Handler()

	rec := do(t, h, http.MethodOptions, "/api/v1/compare", "", map[string]string{"Origin": "https://dash.example"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestComparisonHistory(t *testing.T) {
	store := history.NewStore(10, 0)
	defer store.Close()

	fc := &fakeComparer{}
	h := NewHTTPServer(HTTPServerConfig{History: store}, fc).Handler()

	cmp, err := fc.Run(context.Background(), "silla")
	require.NoError(t, err)
	store.Record(cmp)

	rec := do(t, h, http.MethodGet, "/api/v1/comparisons/"+cmp.RunID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"query":"silla"`)

	rec = do(t, h, http.MethodGet, "/api/v1/comparisons/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/comparisons/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/comparisons?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Comparisons []comparisonSummary `json:"comparisons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Comparisons, 1)
	assert.Equal(t, cmp.RunID.String(), body.Comparisons[0].RunID)
	assert.Equal(t, 1, body.Comparisons[0].Results)

	rec = do(t, h, http.MethodGet, "/api/v1/comparisons?limit=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComparisonHistory_DisabledWithoutStore(t *testing.T) {
	h := NewHTTPServer(HTTPServerConfig{}, &fakeComparer{}).Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/comparisons", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
