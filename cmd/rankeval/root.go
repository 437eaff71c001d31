package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/knoguchi/rankeval/internal/config"
	"github.com/knoguchi/rankeval/internal/llm"
	"github.com/knoguchi/rankeval/internal/reranker"
	"github.com/knoguchi/rankeval/internal/search"
	"github.com/knoguchi/rankeval/internal/service"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "rankeval",
	Short: "Compare LLM re-rankings of marketplace search results",
	Long: `rankeval fetches search results for a query, re-ranks them with an LLM
in two ways (pointwise and listwise) and scores every ordering with NDCG.

Example usage:
  rankeval compare silla de madera     # One comparison, rendered as tables
  rankeval bulk keywords.csv           # Many keywords from a CSV export
  rankeval serve                       # HTTP API
  rankeval ndcg 3 2 3 0 1 2            # NDCG of a grade list`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads configuration; --verbose overrides LOG_LEVEL.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newCLILogger logs human-readable text to stderr so stdout stays clean.
func newCLILogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// newServerLogger logs JSON, as collected from the server's stdout.
func newServerLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

// buildCompareService wires the LLM provider, both rankers and the search client.
func buildCompareService(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...service.CompareOption) (*service.CompareService, error) {
	client, err := llm.NewDefaultRegistry().Create(ctx, cfg.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	client = llm.NewRateLimited(client, cfg.LLMRateLimit, cfg.LLMRateBurst)
	client = llm.NewCached(client, cfg.LLMCacheSize, cfg.LLMCacheTTL)
	invoker := llm.NewStructured(client, cfg.StructuredOptions())

	rcfg := cfg.RerankerConfig()
	pointwise := reranker.NewPointwise(reranker.NewJudge(invoker, rcfg, logger), rcfg, logger)
	listwise := reranker.NewListwise(invoker, rcfg, logger)

	searcher := search.NewWallapopClient(
		search.WithBaseURL(cfg.SearchBaseURL),
		search.WithHTTPClient(&http.Client{Timeout: cfg.SearchTimeout}),
	)

	logger.Debug("initialized comparison pipeline",
		"provider", client.Name(),
		"model", cfg.LLMModel,
		"max_workers", rcfg.MaxWorkers,
		"rate_limit", cfg.LLMRateLimit,
		"cache_size", cfg.LLMCacheSize,
	)

	opts = append([]service.CompareOption{
		service.WithLocation(cfg.SearchLatitude, cfg.SearchLongitude),
		service.WithLogger(logger),
	}, opts...)
	return service.NewCompareService(searcher, pointwise, listwise, opts...), nil
}
