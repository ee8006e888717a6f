// Package llm defines the model interfaces the pipeline depends on and the
// Ollama and OpenAI clients that implement them. Callers construct a client
// explicitly at startup and pass it down; there is no package-level default.
package llm

import "context"

// Model generates a single completion for a prompt. Chat history, retrieval
// context and extraction instructions are all interpolated into the prompt by
// the caller; the model itself is stateless.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder maps a text to a fixed-dimension vector. The dimension must stay
// constant for the lifetime of the graph store's vector index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
