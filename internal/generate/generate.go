// Package generate runs the main prompt expansion against the text backend
// with a shrinking token budget.
package generate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/compiler"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/retry"
)

const (
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 400
	TokenFloor       = 256
)

var ErrNoBackend = errors.New("no text backend configured")

var creativityScale = map[string]float64{
	"subtle":   1.0,
	"balanced": 1.15,
	"bold":     1.3,
	"wild":     1.5,
}

var paramCount = regexp.MustCompile(`(?i)(?:^|[^a-z0-9.])(\d+(?:\.\d+)?)b(?:$|[^a-z0-9])`)

// Budget is the first-attempt token ceiling: the platform's max tokens,
// scaled by creativity and capped for models that look small.
func Budget(profile catalog.Profile, creativity, model string) int {
	budget := profile.MaxTokens
	if budget <= 0 {
		budget = DefaultMaxTokens
	}
	if scale, ok := creativityScale[creativity]; ok {
		budget = int(float64(budget) * scale)
	}
	if limit := modelCap(model); limit > 0 && budget > limit {
		budget = limit
	}
	return max(budget, TokenFloor)
}

func modelCap(model string) int {
	m := strings.ToLower(model)
	if sub := paramCount.FindStringSubmatch(m); sub != nil {
		if n, err := strconv.ParseFloat(sub[1], 64); err == nil {
			switch {
			case n <= 3:
				return 384
			case n <= 8:
				return 640
			case n <= 14:
				return 1024
			}
			return 0
		}
	}
	for _, hint := range []string{"mini", "tiny", "small"} {
		if strings.Contains(m, hint) {
			return 512
		}
	}
	return 0
}

type Options struct {
	Factory     llm.Factory
	Logger      *slog.Logger
	Timeout     time.Duration
	Temperature float64
}

type Orchestrator struct {
	factory     llm.Factory
	logger      *slog.Logger
	timeout     time.Duration
	temperature float64
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		factory:     opts.Factory,
		logger:      logger,
		timeout:     timeout,
		temperature: opts.Temperature,
	}
}

type Output struct {
	Text     string
	Attempts []retry.Attempt
	Planned  int
	Budget   int
	Backend  string
	Model    string
	Err      error
}

func (o Output) OK() bool {
	return o.Err == nil && strings.TrimSpace(o.Text) != ""
}

// Winner is the successful attempt, if any.
func (o Output) Winner() (retry.Attempt, bool) {
	for _, a := range o.Attempts {
		if a.OK {
			return a, true
		}
	}
	return retry.Attempt{}, false
}

// Generate never fails loudly: on total failure Text is empty and Err holds
// the last attempt's error.
func (o *Orchestrator) Generate(ctx context.Context, prompt compiler.Prompt, budget int) Output {
	out := Output{Budget: budget}
	if o == nil || o.factory == nil {
		out.Err = ErrNoBackend
		return out
	}

	specs := retry.Plan(budget, TokenFloor)
	out.Planned = len(specs)

	var gen llm.Generator
	text, attempts, err := retry.Do(ctx, specs, func(ctx context.Context, a *retry.Attempt) (string, error) {
		if gen == nil || a.Reinit {
			g, err := o.factory(ctx, a.Reinit)
			if err != nil {
				gen = nil
				return "", err
			}
			gen = g
		}
		a.Backend = gen.Name()
		out.Backend, out.Model = gen.Name(), gen.Model()

		ctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()

		o.logger.Debug("generation attempt", "attempt", a.Index, "backend", a.Backend, "max_tokens", a.MaxTokens, "reinit", a.Reinit)
		text, err := gen.Generate(ctx, llm.Request{
			System:      prompt.System,
			User:        prompt.User,
			MaxTokens:   a.MaxTokens,
			Temperature: o.temperature,
		})
		if err != nil {
			o.logger.Warn("generation attempt failed", "attempt", a.Index, "backend", a.Backend, "err", err)
		}
		return text, err
	})

	out.Attempts = attempts
	if err != nil {
		out.Err = err
		return out
	}
	out.Text = strings.TrimSpace(text)
	return out
}
