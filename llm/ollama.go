package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaModel implements Model over a local Ollama server.
type OllamaModel struct {
	client *ollama.LLM
}

var (
	_ Model    = (*OllamaModel)(nil)
	_ Embedder = (*OllamaEmbedder)(nil)
)

// NewOllamaModel connects to an Ollama server. serverURL may be empty to use
// the client default (http://localhost:11434).
func NewOllamaModel(serverURL, model string) (*OllamaModel, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	return &OllamaModel{client: client}, nil
}

// Generate produces a completion for the prompt.
func (m *OllamaModel) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, m.client, prompt)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return completion, nil
}

// OllamaEmbedder implements Embedder over an Ollama embedding model.
type OllamaEmbedder struct {
	embedder  embeddings.Embedder
	dimension int
}

// NewOllamaEmbedder connects to an Ollama server using the given embedding
// model. dimension is fixed by configuration and must match the model's
// output; the store's vector index is created with it.
func NewOllamaEmbedder(serverURL, model string, dimension int) (*OllamaEmbedder, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &OllamaEmbedder{embedder: embedder, dimension: dimension}, nil
}

// Embed returns the embedding vector for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embedding, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	result := make([]float32, len(embedding))
	for i, val := range embedding {
		result[i] = float32(val)
	}
	return result, nil
}

// Dimension returns the configured embedding dimension.
func (e *OllamaEmbedder) Dimension() int {
	return e.dimension
}
