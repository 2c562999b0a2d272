package model_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/agent"
	"github.com/loomctl/loom/model"
)

type flakyEmbedder struct {
	failures int
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, model.NewTransientError("embed", errors.New("rate limited"))
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestBackoffRetriesTransientError(t *testing.T) {
	inner := &flakyEmbedder{failures: 2}
	wrapped := model.WithBackoffEmbeddingModel(inner, model.BackoffConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		MaxTries:        5,
	})

	out, err := wrapped.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, out)
	assert.Equal(t, 3, inner.calls)
}

type permanentEmbedder struct {
	calls int
}

func (p *permanentEmbedder) Embed(_ context.Context, _ []string) ([][]float32, error) {
	p.calls++
	return nil, model.NewPermanentError("embed", errors.New("bad request"))
}

func TestBackoffDoesNotRetryPermanentError(t *testing.T) {
	inner := &permanentEmbedder{}
	wrapped := model.WithBackoffEmbeddingModel(inner, model.BackoffConfig{
		InitialInterval: time.Millisecond,
		MaxTries:        5,
	})

	_, err := wrapped.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)

	var lmErr *model.LanguageModelError
	require.True(t, errors.As(err, &lmErr))
	assert.Equal(t, model.PermanentError, lmErr.Kind)
}

// flakyChatCompletion fails with a transient agent.LanguageModelError
// the first N calls, then succeeds with a plain text turn.
type flakyChatCompletion struct {
	failures int
	calls    int
}

func (f *flakyChatCompletion) Complete(_ context.Context, _ agent.Request) (agent.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return agent.Response{}, &agent.LanguageModelError{Kind: agent.TransientError, Err: errors.New("rate limited")}
	}
	msg := "done"
	return agent.Response{Message: &msg}, nil
}

func TestBackoffChatCompletionFeedsAnAgent(t *testing.T) {
	llm := &flakyChatCompletion{failures: 2}
	wrapped := model.WithBackoffChatCompletion(llm, model.BackoffConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  time.Second,
		MaxTries:        5,
	})

	a := agent.NewAgent(wrapped)
	reason, err := a.Run(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, agent.TurnComplete, reason)
	assert.Equal(t, 3, llm.calls)
}
