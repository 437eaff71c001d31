package llm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// ProviderConfig carries everything a factory may need to build a client.
// Fields that do not apply to a provider are ignored.
type ProviderConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Region   string
	Timeout  time.Duration
}

// Factory creates an LLM client from configuration.
type Factory func(ctx context.Context, cfg ProviderConfig) (LLM, error)

// Registry holds client factories keyed by provider name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// NewDefaultRegistry returns a registry with the built-in providers:
// openai, ollama, gemini and bedrock.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("openai", func(_ context.Context, cfg ProviderConfig) (LLM, error) {
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	})

	r.Register("ollama", func(_ context.Context, cfg ProviderConfig) (LLM, error) {
		opts := []OllamaOption{WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return NewOllamaClient(opts...), nil
	})

	r.Register("gemini", func(_ context.Context, cfg ProviderConfig) (LLM, error) {
		return NewGeminiClient(GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	})

	r.Register("bedrock", func(ctx context.Context, cfg ProviderConfig) (LLM, error) {
		return NewBedrockClient(ctx, BedrockConfig{
			Region: cfg.Region,
			Model:  cfg.Model,
		})
	})

	return r
}

// Register registers a factory under name, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create builds the client registered under cfg.Provider.
func (r *Registry) Create(ctx context.Context, cfg ProviderConfig) (LLM, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownProvider, cfg.Provider, r.List())
	}
	return factory(ctx, cfg)
}

// Has reports whether a provider is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// List returns registered provider names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
