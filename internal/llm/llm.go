// Package llm provides interfaces and implementations for Large Language Model clients.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrProvider is returned when the provider call itself fails
	// (network, timeout, auth, non-2xx status, empty completion).
	ErrProvider = errors.New("llm provider error")

	// ErrParse is returned when the model output does not fit the requested schema.
	ErrParse = errors.New("llm output does not match schema")

	// ErrUnknownProvider is returned by the registry for an unregistered provider name.
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// GenerateOptions configures the LLM generation request.
type GenerateOptions struct {
	// Model overrides the client's default model when set.
	Model string

	// SystemPrompt sets the system-level instructions for the model.
	SystemPrompt string

	// Temperature controls randomness in generation (0.0 = deterministic).
	Temperature float32

	// MaxTokens limits the maximum number of tokens in the response (0 = provider default).
	MaxTokens int

	// JSON asks the provider to constrain output to a JSON object when it supports it.
	JSON bool
}

// LLM defines the interface for Large Language Model clients.
// Implementations must be safe for concurrent use.
type LLM interface {
	// Generate sends a prompt to the LLM and returns the complete response.
	// It blocks until the full response is received or an error occurs.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Name returns the provider name (e.g. "openai", "ollama").
	Name() string
}
