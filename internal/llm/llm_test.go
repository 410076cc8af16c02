package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLMStudioGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  a lighthouse at dusk  "}}]}`))
	}))
	defer srv.Close()

	c, err := NewLMStudio(context.Background(), Options{
		Endpoint:    srv.URL + "/v1/",
		Model:       "qwen2.5-7b-instruct",
		Temperature: 0.7,
		HTTPClient:  srv.Client(),
	})
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), Request{System: "sys", User: "usr", MaxTokens: 300})
	require.NoError(t, err)
	assert.Equal(t, "a lighthouse at dusk", text)

	assert.Equal(t, "qwen2.5-7b-instruct", got["model"])
	assert.Equal(t, float64(300), got["max_tokens"])
	assert.Equal(t, false, got["stream"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "usr", msgs[1].(map[string]any)["content"])
}

func TestLMStudioCaptionSendsDataURL(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a grey cat"}}]}`))
	}))
	defer srv.Close()

	c, err := NewLMStudio(context.Background(), Options{Endpoint: srv.URL, Model: "llava", HTTPClient: srv.Client()})
	require.NoError(t, err)

	caption, err := c.Caption(context.Background(), Image{Data: []byte("abc"), MimeType: "image/png"}, "describe", 120)
	require.NoError(t, err)
	assert.Equal(t, "a grey cat", caption)

	parts := got["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/png;base64,YWJj", img["url"])
}

func TestLMStudioErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		msg     string
	}{
		{name: "http error", status: http.StatusInternalServerError, body: "model crashed", msg: "model crashed"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: ErrEmptyResponse},
		{name: "blank content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`, wantErr: ErrEmptyResponse},
		{name: "error payload", status: http.StatusOK, body: `{"error":{"message":"context overflow"}}`, msg: "context overflow"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c, err := NewLMStudio(context.Background(), Options{Endpoint: srv.URL, Model: "m", HTTPClient: srv.Client()})
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), Request{User: "x"})
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.msg != "" {
				assert.Contains(t, err.Error(), tc.msg)
			}
		})
	}
}

func TestLMStudioAutoDetectIsCached(t *testing.T) {
	var listed atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			listed.Add(1)
			_, _ = w.Write([]byte(`{"data":[{"id":"mistral-7b"}]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	models := NewModelCache(time.Minute)
	opts := Options{Endpoint: srv.URL, Model: "auto", HTTPClient: srv.Client(), Models: models}

	c, err := NewLMStudio(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "mistral-7b", c.Model())

	_, err = NewLMStudio(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int32(1), listed.Load())

	opts.Fresh = true
	_, err = NewLMStudio(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listed.Load())
}

func TestLMStudioFailedCallForgetsDetectedModel(t *testing.T) {
	var listed atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			listed.Add(1)
			_, _ = w.Write([]byte(`{"data":[{"id":"mistral-7b"}]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model unloaded"}}`))
	}))
	defer srv.Close()

	opts := Options{Endpoint: srv.URL, Model: "auto", HTTPClient: srv.Client(), Models: NewModelCache(time.Minute)}

	c, err := NewLMStudio(context.Background(), opts)
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), Request{User: "a fox", MaxTokens: 64})
	require.Error(t, err)

	_, err = NewLMStudio(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int32(2), listed.Load())
}

func TestLMStudioNoModelLoaded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := NewLMStudio(context.Background(), Options{Endpoint: srv.URL, HTTPClient: srv.Client()})
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestOllamaGenerateConcatenatesPrompt(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"misty harbour","done":true}`))
	}))
	defer srv.Close()

	c, err := NewOllama(context.Background(), Options{Endpoint: srv.URL, Model: "llama3.2:3b", Temperature: 0.5, HTTPClient: srv.Client()})
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), Request{System: "rules", User: "idea", MaxTokens: 256})
	require.NoError(t, err)
	assert.Equal(t, "misty harbour", text)
	assert.Equal(t, "rules\n\nidea", got.Prompt)
	assert.Equal(t, 256, got.Options.NumPredict)
	assert.InDelta(t, 0.5, got.Options.Temperature, 1e-9)
	assert.False(t, got.Stream)
}

func TestOllamaCaptionAndDetect(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"llava:13b"}]}`))
		case "/api/generate":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"response":"a red door"}`))
		}
	}))
	defer srv.Close()

	c, err := NewOllama(context.Background(), Options{Endpoint: srv.URL, Model: "auto", HTTPClient: srv.Client()})
	require.NoError(t, err)
	assert.Equal(t, "llava:13b", c.Model())
	require.NoError(t, c.Ping(context.Background()))

	caption, err := c.Caption(context.Background(), Image{Data: []byte("abc")}, "describe", 100)
	require.NoError(t, err)
	assert.Equal(t, "a red door", caption)
	assert.Equal(t, []string{"YWJj"}, got.Images)
}

func TestLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	c, err := NewOllama(context.Background(), Options{Endpoint: srv.URL, Model: "m", HTTPClient: srv.Client(), Limiter: limiter})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), Request{User: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Generate(ctx, Request{User: "x"})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{"lm_studio": LMStudio, "LMStudio": LMStudio, "lm-studio": LMStudio, "ollama": Ollama, "Gemini": Gemini}
	for in, want := range tests {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKind("openai")
	assert.False(t, ok)
}

func TestNewRequiresHTTPClient(t *testing.T) {
	_, err := NewLMStudio(context.Background(), Options{Model: "m"})
	assert.Error(t, err)
	_, err = NewOllama(context.Background(), Options{Model: "m"})
	assert.Error(t, err)
}
