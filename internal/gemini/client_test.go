package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-enhancer/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		APIVersion: "v1beta",
		TextModel:  "gemini-test",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" a lighthouse at dusk "}]}}]}`))
	})

	text, err := c.Generate(context.Background(), llm.Request{System: "rules", User: "idea", MaxTokens: 300, Temperature: 0.6})
	require.NoError(t, err)
	assert.Equal(t, "a lighthouse at dusk", text)

	assert.True(t, strings.HasSuffix(path, "/models/gemini-test:generateContent"), path)
	genCfg, ok := body["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(300), genCfg["maxOutputTokens"])
	assert.NotNil(t, body["systemInstruction"])
}

func TestGenerateEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  "}]}}]}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{User: "idea"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestGenerateHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{User: "idea"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini generate")
}

func TestCaptionSendsInlineImage(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"a grey cat on a sofa"}]}}]}`))
	})

	caption, err := c.Caption(context.Background(), llm.Image{Data: []byte("abc"), MimeType: "image/png"}, "describe", 120)
	require.NoError(t, err)
	assert.Equal(t, "a grey cat on a sofa", caption)

	contents := body["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inline["mimeType"])
	assert.Equal(t, "YWJj", inline["data"])
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}
