// Package config loads configuration from environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/knoguchi/rankeval/internal/llm"
	"github.com/knoguchi/rankeval/internal/reranker"
)

// ErrInvalidTemplate is returned when a prompt template lacks a required placeholder.
var ErrInvalidTemplate = errors.New("invalid prompt template")

// Config holds all configuration for the ranking evaluation service
type Config struct {
	// Server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080" validate:"gte=1,lte=65535"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// LLM
	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"openai" validate:"required"`
	LLMModel       string        `env:"LLM_MODEL"`
	LLMBaseURL     string        `env:"LLM_BASE_URL"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	AWSRegion      string        `env:"AWS_REGION"`
	LLMTemperature float32       `env:"LLM_TEMPERATURE" envDefault:"0" validate:"gte=0,lte=2"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	LLMRateLimit   float64       `env:"LLM_RATE_LIMIT" envDefault:"0" validate:"gte=0"`
	LLMRateBurst   int           `env:"LLM_RATE_BURST" envDefault:"1" validate:"gte=1"`
	LLMCacheSize   int           `env:"LLM_CACHE_SIZE" envDefault:"0" validate:"gte=0"`
	LLMCacheTTL    time.Duration `env:"LLM_CACHE_TTL" envDefault:"1h"`

	// Ranking
	MaxWorkers          int    `env:"MAX_WORKERS" envDefault:"5" validate:"gte=1,lte=64"`
	ClampScores         bool   `env:"CLAMP_SCORES" envDefault:"false"`
	PointwisePrompt     string `env:"POINTWISE_PROMPT"`
	PointwisePromptFile string `env:"POINTWISE_PROMPT_FILE"`
	ListwisePrompt      string `env:"LISTWISE_PROMPT"`
	ListwisePromptFile  string `env:"LISTWISE_PROMPT_FILE"`

	// Search
	SearchBaseURL   string        `env:"SEARCH_BASE_URL" envDefault:"https://api.wallapop.com" validate:"url"`
	SearchLatitude  float64       `env:"SEARCH_LATITUDE" envDefault:"41.387917" validate:"gte=-90,lte=90"`
	SearchLongitude float64       `env:"SEARCH_LONGITUDE" envDefault:"2.1699187" validate:"gte=-180,lte=180"`
	SearchTimeout   time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`

	// History of recent comparisons served by the API. Zero size disables it.
	HistorySize int           `env:"HISTORY_SIZE" envDefault:"100" validate:"gte=0"`
	HistoryTTL  time.Duration `env:"HISTORY_TTL" envDefault:"1h"`

	// Auth. Leaving both unset disables authentication on the HTTP API.
	APIKeys   []string      `env:"API_KEYS" envSeparator:","`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"rankeval"`
}

// Load loads configuration from .env file (if present) and environment variables,
// resolves prompt template files and validates the result.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.resolvePrompts(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePrompts reads template files. A file takes precedence over the
// inline variable; with neither set the built-in template is used.
func (c *Config) resolvePrompts() error {
	if c.PointwisePromptFile != "" {
		b, err := os.ReadFile(c.PointwisePromptFile)
		if err != nil {
			return fmt.Errorf("reading pointwise prompt: %w", err)
		}
		c.PointwisePrompt = string(b)
	}
	if c.ListwisePromptFile != "" {
		b, err := os.ReadFile(c.ListwisePromptFile)
		if err != nil {
			return fmt.Errorf("reading listwise prompt: %w", err)
		}
		c.ListwisePrompt = string(b)
	}
	if strings.TrimSpace(c.PointwisePrompt) == "" {
		c.PointwisePrompt = reranker.DefaultPointwisePrompt
	}
	if strings.TrimSpace(c.ListwisePrompt) == "" {
		c.ListwisePrompt = reranker.DefaultListwisePrompt
	}
	return nil
}

// Validate checks field constraints and prompt placeholders.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, p := range []string{"{query}", "{document}"} {
		if !strings.Contains(c.PointwisePrompt, p) {
			return fmt.Errorf("%w: pointwise prompt is missing %s", ErrInvalidTemplate, p)
		}
	}
	for _, p := range []string{"{query}", "{results_block}"} {
		if !strings.Contains(c.ListwisePrompt, p) {
			return fmt.Errorf("%w: listwise prompt is missing %s", ErrInvalidTemplate, p)
		}
	}

	// OpenAI's JSON mode rejects prompts that never mention JSON.
	if c.LLMProvider == "openai" {
		if !mentionsJSON(c.PointwisePrompt) {
			return fmt.Errorf("%w: pointwise prompt must mention JSON for the openai provider", ErrInvalidTemplate)
		}
		if !mentionsJSON(c.ListwisePrompt) {
			return fmt.Errorf("%w: listwise prompt must mention JSON for the openai provider", ErrInvalidTemplate)
		}
	}
	return nil
}

func mentionsJSON(prompt string) bool {
	return strings.Contains(strings.ToLower(prompt), "json")
}

// AuthEnabled reports whether API keys or a JWT secret are configured.
func (c *Config) AuthEnabled() bool {
	return len(c.APIKeys) > 0 || c.JWTSecret != ""
}

// RerankerConfig returns the ranking configuration.
func (c *Config) RerankerConfig() reranker.Config {
	return reranker.Config{
		PointwiseTemplate: c.PointwisePrompt,
		ListwiseTemplate:  c.ListwisePrompt,
		MaxWorkers:        c.MaxWorkers,
		ClampScores:       c.ClampScores,
	}
}

// ProviderConfig returns the settings for building the LLM client.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider: c.LLMProvider,
		Model:    c.LLMModel,
		BaseURL:  c.LLMBaseURL,
		APIKey:   c.LLMAPIKey,
		Region:   c.AWSRegion,
		Timeout:  c.LLMTimeout,
	}
}

// StructuredOptions returns the options for structured LLM calls.
func (c *Config) StructuredOptions() llm.StructuredOptions {
	return llm.StructuredOptions{
		Generate: llm.GenerateOptions{
			Model:       c.LLMModel,
			Temperature: c.LLMTemperature,
		},
		Timeout: c.LLMTimeout,
	}
}
