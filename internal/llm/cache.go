package llm

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cacheKey struct {
	prompt string
	opts   GenerateOptions
}

// Cached memoizes successful completions keyed by prompt and options, so a
// query repeated within the TTL does not pay for the same judgments twice.
type Cached struct {
	next  LLM
	cache *expirable.LRU[cacheKey, string]
}

// NewCached wraps next with an LRU of at most size entries that expire after
// ttl. A non-positive size returns next unchanged.
func NewCached(next LLM, size int, ttl time.Duration) LLM {
	if size <= 0 {
		return next
	}
	return &Cached{
		next:  next,
		cache: expirable.NewLRU[cacheKey, string](size, nil, ttl),
	}
}

// Name returns the wrapped provider name.
func (c *Cached) Name() string {
	return c.next.Name()
}

// Generate returns a cached completion or delegates and stores the result.
// Errors are never cached.
func (c *Cached) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	key := cacheKey{prompt: prompt, opts: opts}
	if out, ok := c.cache.Get(key); ok {
		return out, nil
	}
	out, err := c.next.Generate(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, out)
	return out, nil
}

// Len reports the number of cached completions.
func (c *Cached) Len() int {
	return c.cache.Len()
}

var _ LLM = (*Cached)(nil)
