package generate

import (
	"context"
	"errors"
	"sync"

	"prompt-enhancer/internal/llm"
)

var errDown = errors.New("connection refused")

// scriptedGenerator returns replies[i] / errs[i] for the i-th call.
type scriptedGenerator struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	requests []llm.Request
}

func (g *scriptedGenerator) Generate(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := len(g.requests)
	g.requests = append(g.requests, req)
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("no deadline on attempt context")
	}
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", nil
}

func (g *scriptedGenerator) Name() string  { return "scripted" }
func (g *scriptedGenerator) Model() string { return "scripted-7b" }

// countingFactory hands out the same generator and records each build.
type countingFactory struct {
	gen    llm.Generator
	err    error
	builds []bool
}

func (f *countingFactory) build(_ context.Context, fresh bool) (llm.Generator, error) {
	f.builds = append(f.builds, fresh)
	if f.err != nil {
		return nil, f.err
	}
	return f.gen, nil
}
