package enhancer

import (
	"context"
	"errors"
	"sync"

	"prompt-enhancer/internal/llm"
)

var errRefused = errors.New("connection refused")

type stubGenerator struct {
	mu       sync.Mutex
	reply    func(req llm.Request) (string, error)
	requests []llm.Request
}

func (g *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	return g.reply(req)
}

func (g *stubGenerator) Name() string  { return "stub" }
func (g *stubGenerator) Model() string { return "stub-model" }

func (g *stubGenerator) factory() llm.Factory {
	return func(context.Context, bool) (llm.Generator, error) { return g, nil }
}

func failing() *stubGenerator {
	return &stubGenerator{reply: func(llm.Request) (string, error) { return "", errRefused }}
}

func answering(text string) *stubGenerator {
	return &stubGenerator{reply: func(llm.Request) (string, error) { return text, nil }}
}
