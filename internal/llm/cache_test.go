package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached_ReusesCompletion(t *testing.T) {
	inner := &fakeLLM{response: `{"score": 8}`}
	client := NewCached(inner, 10, time.Minute)

	for range 3 {
		out, err := client.Generate(context.Background(), "p", GenerateOptions{JSON: true})
		require.NoError(t, err)
		assert.Equal(t, `{"score": 8}`, out)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "fake", client.Name())
}

func TestCached_KeyIncludesOptions(t *testing.T) {
	inner := &fakeLLM{response: "ok"}
	client := NewCached(inner, 10, time.Minute)

	_, err := client.Generate(context.Background(), "p", GenerateOptions{Model: "a"})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "p", GenerateOptions{Model: "b"})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "q", GenerateOptions{Model: "a"})
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 3, client.(*Cached).Len())
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	inner := &fakeLLM{err: errors.New("down")}
	client := NewCached(inner, 10, time.Minute)

	_, err := client.Generate(context.Background(), "p", GenerateOptions{})
	require.Error(t, err)

	inner.err = nil
	inner.response = "up"
	out, err := client.Generate(context.Background(), "p", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "up", out)
	assert.Equal(t, 2, inner.calls)
}

func TestCached_DisabledReturnsInner(t *testing.T) {
	inner := &fakeLLM{}
	assert.Same(t, LLM(inner), NewCached(inner, 0, time.Minute))
}
