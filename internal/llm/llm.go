// Package llm defines the text-generation and captioning contracts used by
// the enhancer, plus clients for LM Studio and Ollama servers.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrEmptyResponse = errors.New("empty response from backend")
	ErrNoModel       = errors.New("no model loaded on backend")
)

type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a system+user prompt pair. Whether the
// backend takes role-separated messages or one prompt is its own business.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	Name() string
	Model() string
}

type Captioner interface {
	Caption(ctx context.Context, img Image, instruction string, maxTokens int) (string, error)
}

// Factory builds a backend. fresh skips cached model detection, which is
// what a re-initialisation between attempts wants.
type Factory func(ctx context.Context, fresh bool) (Generator, error)

type Image struct {
	Data     []byte
	MimeType string
}

func (i Image) MIME() string {
	if i.MimeType != "" {
		return i.MimeType
	}
	return http.DetectContentType(i.Data)
}

func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func (i Image) DataURL() string {
	return "data:" + i.MIME() + ";base64," + i.Base64()
}

type Kind int

const (
	LMStudio Kind = iota
	Ollama
	Gemini
)

var kindNames = map[Kind]string{
	LMStudio: "lm_studio",
	Ollama:   "ollama",
	Gemini:   "gemini",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func ParseKind(value string) (Kind, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "-", "_")
	if v == "lmstudio" {
		v = "lm_studio"
	}
	for k, name := range kindNames {
		if name == v {
			return k, true
		}
	}
	return LMStudio, false
}

// IsAutoModel reports whether the model name asks for detection.
func IsAutoModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return m == "" || m == "auto"
}
