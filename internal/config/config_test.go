package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knoguchi/rankeval/internal/reranker"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, 5, cfg.MaxWorkers)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 41.387917, cfg.SearchLatitude)
	assert.Equal(t, 2.1699187, cfg.SearchLongitude)
	assert.Equal(t, reranker.DefaultPointwisePrompt, cfg.PointwisePrompt)
	assert.Equal(t, reranker.DefaultListwisePrompt, cfg.ListwisePrompt)
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, 0, cfg.LLMCacheSize)
	assert.Equal(t, 100, cfg.HistorySize)
	assert.Equal(t, time.Hour, cfg.HistoryTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("MAX_WORKERS", "3")
	t.Setenv("CLAMP_SCORES", "true")
	t.Setenv("API_KEYS", "k1,k2")
	t.Setenv("POINTWISE_PROMPT", "Rate {document} for {query}")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, []string{"k1", "k2"}, cfg.APIKeys)
	assert.True(t, cfg.AuthEnabled())

	rc := cfg.RerankerConfig()
	assert.Equal(t, 3, rc.MaxWorkers)
	assert.True(t, rc.ClampScores)
	assert.Equal(t, "Rate {document} for {query}", rc.PointwiseTemplate)

	pc := cfg.ProviderConfig()
	assert.Equal(t, "ollama", pc.Provider)
	assert.Equal(t, 60*time.Second, pc.Timeout)
}

func TestLoad_PromptFileWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listwise.txt")
	require.NoError(t, os.WriteFile(path, []byte("Order for {query}, answer in JSON:\n{results_block}"), 0o600))
	t.Setenv("LISTWISE_PROMPT", "ignored {query} {results_block}")
	t.Setenv("LISTWISE_PROMPT_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Order for {query}, answer in JSON:\n{results_block}", cfg.ListwisePrompt)
}

func TestLoad_MissingPromptFile(t *testing.T) {
	t.Setenv("POINTWISE_PROMPT_FILE", filepath.Join(t.TempDir(), "missing.txt"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_TemplateMissingPlaceholder(t *testing.T) {
	t.Setenv("LISTWISE_PROMPT", "Rank results for {query}")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidTemplate)
}

func TestLoad_OpenAIPromptMustMentionJSON(t *testing.T) {
	t.Setenv("POINTWISE_PROMPT", "Rate {document} for {query} from 1 to 10.")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	t.Setenv("LLM_PROVIDER", "ollama")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Rate {document} for {query} from 1 to 10.", cfg.PointwisePrompt)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero workers", "MAX_WORKERS", "0"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"latitude out of range", "SEARCH_LATITUDE", "123"},
		{"bad search url", "SEARCH_BASE_URL", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
