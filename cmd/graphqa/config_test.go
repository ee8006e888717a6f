package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "localhost:6379", cfg.FalkorDBAddr)
	assert.Equal(t, "graphqa", cfg.GraphName)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, 384, cfg.EmbeddingDim)
	assert.Equal(t, 3, cfg.TopK)
	assert.InDelta(t, 0.8, cfg.ScoreThreshold, 1e-9)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FALKORDB_ADDR", "falkor:7000")
	t.Setenv("EMBEDDING_DIM", "768")
	t.Setenv("SCORE_THRESHOLD", "0.5")

	cfg := LoadConfig()
	assert.Equal(t, "falkor:7000", cfg.FalkorDBAddr)
	assert.Equal(t, 768, cfg.EmbeddingDim)
	assert.InDelta(t, 0.5, cfg.ScoreThreshold, 1e-9)
}

func TestValidateConfig(t *testing.T) {
	base := LoadConfig()

	t.Run("ollama needs no key", func(t *testing.T) {
		cfg := base
		cfg.Provider = "ollama"
		require.NoError(t, ValidateConfig(cfg))
	})

	t.Run("openai needs a key", func(t *testing.T) {
		cfg := base
		cfg.Provider = "openai"
		cfg.OpenAIKey = ""
		assert.Error(t, ValidateConfig(cfg))

		cfg.OpenAIKey = "sk-test"
		assert.NoError(t, ValidateConfig(cfg))
	})

	t.Run("bad provider", func(t *testing.T) {
		cfg := base
		cfg.Provider = "bard"
		assert.Error(t, ValidateConfig(cfg))
	})

	t.Run("bad threshold", func(t *testing.T) {
		cfg := base
		cfg.ScoreThreshold = 1.5
		assert.Error(t, ValidateConfig(cfg))
	})
}
