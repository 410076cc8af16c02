package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-enhancer/internal/backend"
	"prompt-enhancer/internal/config"
	"prompt-enhancer/internal/enhancer"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/seed"
)

func TestNewWithoutRedisUsesSessionSeeds(t *testing.T) {
	cfg := config.Config{
		Text:          backendConfig(),
		VisionEnabled: false,
	}
	a, err := New(context.Background(), cfg, NewLogger("error"))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Vision)
	assert.NotNil(t, a.Enhancer)

	req := enhancer.Request{
		Prompt:   "a lighthouse",
		Seed:     9,
		SeedMode: seed.Increment,
		Scope:    "cli",
	}
	first := a.Enhancer.Enhance(context.Background(), req)
	second := a.Enhancer.Enhance(context.Background(), req)
	assert.NotEmpty(t, first.Positive)
	assert.Equal(t, int64(9), first.SeedUsed)
	assert.Equal(t, int64(10), second.SeedUsed)
}

func TestNewRejectsMissingCatalog(t *testing.T) {
	_, err := New(context.Background(), config.Config{CatalogFile: "/does/not/exist.yaml"}, slog.Default())
	assert.Error(t, err)
}

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()
	assert.True(t, NewLogger("debug").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("info").Enabled(ctx, slog.LevelDebug))
	assert.False(t, NewLogger("error").Enabled(ctx, slog.LevelWarn))
}

// backendConfig points at a closed port so every LLM step falls back.
func backendConfig() backend.Config {
	return backend.Config{Kind: llm.Ollama, Endpoint: "http://127.0.0.1:1", Model: "llama3"}
}
