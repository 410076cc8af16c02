package reference

import (
	"context"
	"sync"

	"prompt-enhancer/internal/llm"
)

// stubGenerator answers with replies in order and records every request.
type stubGenerator struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests []llm.Request
}

func (g *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := len(g.requests)
	g.requests = append(g.requests, req)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", nil
}

func (g *stubGenerator) Name() string  { return "stub" }
func (g *stubGenerator) Model() string { return "stub-model" }

type stubCaptioner struct {
	caption string
	err     error
	calls   int
}

func (c *stubCaptioner) Caption(context.Context, llm.Image, string, int) (string, error) {
	c.calls++
	return c.caption, c.err
}
