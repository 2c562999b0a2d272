// Package model declares the capability interfaces that concrete LLM
// and embedding clients implement: single-shot prompting, dense
// embedding, and sparse embedding. Chat completion with tool calling
// is declared in the agent package instead (agent.ChatCompletion):
// the Agent runtime is the only thing that drives a chat completion
// backend, so its own request/response shapes are the single contract
// rather than a parallel one here that nothing ever adapts into it.
// No concrete client lives in this package; wiring a specific provider
// (OpenAI, Anthropic, Bedrock, Ollama, ...) is explicitly out of scope.
package model

import (
	"context"

	"github.com/loomctl/loom/prompt"
)

// SimplePrompt performs single-shot text completion.
type SimplePrompt interface {
	Prompt(ctx context.Context, p prompt.Prompt) (string, error)
}

// EmbeddingModel computes dense embeddings for a batch of strings in
// one round trip. Dimensionality is fixed per model instance.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// SparseEmbeddingModel computes sparse embeddings for a batch of strings.
type SparseEmbeddingModel interface {
	SparseEmbed(ctx context.Context, texts []string) ([]SparseVector, error)
}

// SparseVector is a sparse embedding result: parallel index/value slices.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}
