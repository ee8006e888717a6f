// Package main implements the graphqa CLI: ingest a folder of documents into
// the knowledge graph, then answer questions about them from an interactive
// prompt.
package main

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	// Graph store configuration
	FalkorDBAddr string
	GraphName    string

	// LLM configuration
	Provider    string // "ollama" or "openai"
	OllamaURL   string
	Model       string
	OpenAIKey   string
	OpenAIModel string

	// Embedding configuration
	EmbeddingModel string
	EmbeddingDim   int

	// Retrieval configuration
	TopK           int
	ScoreThreshold float64

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults.
func LoadConfig() Config {
	return Config{
		FalkorDBAddr:   getEnv("FALKORDB_ADDR", "localhost:6379"),
		GraphName:      getEnv("GRAPH_NAME", "graphqa"),
		Provider:       getEnv("LLM_PROVIDER", "ollama"),
		OllamaURL:      getEnv("OLLAMA_URL", ""),
		Model:          getEnv("OLLAMA_MODEL", "llama3.1"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "all-minilm"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 384),
		TopK:           getEnvInt("TOP_K", 3),
		ScoreThreshold: getEnvFloat("SCORE_THRESHOLD", 0.8),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// ValidateConfig checks that the configuration is usable.
func ValidateConfig(cfg Config) error {
	switch cfg.Provider {
	case "ollama":
	case "openai":
		if cfg.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want ollama or openai)", cfg.Provider)
	}

	if cfg.EmbeddingDim <= 0 {
		return fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}
	if cfg.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", cfg.TopK)
	}
	if cfg.ScoreThreshold < 0 || cfg.ScoreThreshold > 1 {
		return fmt.Errorf("SCORE_THRESHOLD must be in [0,1], got %v", cfg.ScoreThreshold)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
