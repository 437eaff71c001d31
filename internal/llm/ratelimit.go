package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped client with a token bucket.
type RateLimited struct {
	next    LLM
	limiter *rate.Limiter
}

// NewRateLimited wraps next so that at most rps calls per second start, with
// the given burst. A non-positive rps returns next unchanged.
func NewRateLimited(next LLM, rps float64, burst int) LLM {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the wrapped provider name.
func (l *RateLimited) Name() string {
	return l.next.Name()
}

// Generate waits for a token, then delegates.
func (l *RateLimited) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrProvider, err)
	}
	return l.next.Generate(ctx, prompt, opts)
}

var _ LLM = (*RateLimited)(nil)
