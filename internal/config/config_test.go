package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-enhancer/internal/llm"
)

var allKeys = []string{
	"LOG_LEVEL", "DEBUG", "PREFER_IPV4",
	"LLM_BACKEND", "LLM_ENDPOINT", "LLM_MODEL", "LLM_TEMPERATURE", "LLM_REQUESTS_PER_SECOND",
	"VISION_BACKEND", "VISION_ENDPOINT", "VISION_MODEL",
	"GEMINI_API_KEY", "GEMINI_TEXT_MODEL", "GEMINI_VISION_MODEL", "GEMINI_BASE_URL", "GEMINI_API_VERSION",
	"CATALOG_FILE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"TELEGRAM_BOT_TOKEN", "WEB_ADDR", "SAVE_DIR",
	"MEDIA_GROUP_DEBOUNCE_MS", "MAX_CONCURRENT", "REQUEST_TIMEOUT_SECONDS", "HTTP_TIMEOUT_SECONDS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(HostCLI)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.PreferIPv4)
	assert.Equal(t, llm.LMStudio, cfg.Text.Kind)
	assert.Equal(t, "auto", cfg.Text.Model)
	assert.InDelta(t, 0.7, cfg.Text.Temperature, 1e-9)
	assert.True(t, cfg.VisionEnabled)
	assert.Equal(t, llm.LMStudio, cfg.Vision.Kind)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, "output", cfg.SaveDir)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1200*time.Millisecond, cfg.MediaGroupDebounce)
}

func TestLoadRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		host Host
		env  map[string]string
	}{
		{"bot without token", HostBot, nil},
		{"gemini without key", HostCLI, map[string]string{"LLM_BACKEND": "gemini"}},
		{"gemini vision without key", HostWeb, map[string]string{"VISION_BACKEND": "gemini"}},
		{"unknown backend", HostCLI, map[string]string{"LLM_BACKEND": "openai"}},
		{"unknown vision backend", HostCLI, map[string]string{"VISION_BACKEND": "clip"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(tc.host)
			assert.Error(t, err)
		})
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("LLM_BACKEND", "ollama")
	t.Setenv("LLM_ENDPOINT", "http://ollama:11434")
	t.Setenv("LLM_TEMPERATURE", "9")
	t.Setenv("VISION_BACKEND", "none")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("REDIS_DB", "-3")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load(HostBot)
	require.NoError(t, err)

	assert.Equal(t, llm.Ollama, cfg.Text.Kind)
	assert.Equal(t, "http://ollama:11434", cfg.Text.Endpoint)
	assert.InDelta(t, 0.7, cfg.Text.Temperature, 1e-9)
	assert.False(t, cfg.VisionEnabled)
	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 180*time.Second, cfg.RequestTimeout)
}

func TestVisionInheritsTextEndpoint(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LLM_BACKEND", "lmstudio")
	t.Setenv("LLM_ENDPOINT", "http://studio:1234")
	t.Setenv("VISION_BACKEND", "gemini")
	t.Setenv("GEMINI_VISION_MODEL", "gemini-2.5-pro")

	cfg, err := Load(HostWeb)
	require.NoError(t, err)
	assert.Equal(t, llm.Gemini, cfg.Vision.Kind)
	assert.Equal(t, "http://studio:1234", cfg.Vision.Endpoint)
	assert.Equal(t, "gemini-2.5-pro", cfg.Vision.GeminiModel)
	assert.Equal(t, "key", cfg.Vision.GeminiAPIKey)
}
