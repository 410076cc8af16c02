// Package retry drives a fixed list of attempts against an LLM backend,
// shrinking the token ceiling as it goes.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const maxAttempts = 3

var ErrEmptyText = errors.New("backend returned empty text")

// Spec is one planned attempt.
type Spec struct {
	MaxTokens int
	Reinit    bool
}

// Attempt records what happened on one try.
type Attempt struct {
	Index     int
	Backend   string
	MaxTokens int
	Reinit    bool
	OK        bool
	Err       error
}

func (a Attempt) ErrText() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}

// Plan returns three non-increasing ceilings: budget, about half of it,
// then floor. A step that would fall below floor is held at floor, so a
// budget already at the floor still gets its retries. Every attempt after
// the first re-initialises.
func Plan(budget, floor int) []Spec {
	if floor <= 0 {
		floor = 1
	}
	if budget < floor {
		budget = floor
	}

	specs := make([]Spec, 0, maxAttempts)
	specs = append(specs, Spec{MaxTokens: budget})
	for _, c := range []int{budget / 2, floor} {
		c = max(c, floor)
		specs = append(specs, Spec{MaxTokens: c, Reinit: true})
	}
	return specs
}

// Func performs one attempt. It may set a.Backend.
type Func func(ctx context.Context, a *Attempt) (string, error)

// Do runs specs in order and stops at the first attempt that succeeds with
// non-blank text. On total failure it returns the last error and no text.
func Do(ctx context.Context, specs []Spec, fn Func) (string, []Attempt, error) {
	attempts := make([]Attempt, 0, len(specs))
	var lastErr error

	for i, spec := range specs {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		a := Attempt{Index: i + 1, MaxTokens: spec.MaxTokens, Reinit: spec.Reinit}
		text, err := fn(ctx, &a)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyText
		}
		if err != nil {
			a.Err = err
			attempts = append(attempts, a)
			lastErr = err
			continue
		}

		a.OK = true
		attempts = append(attempts, a)
		return text, attempts, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no attempts planned")
	}
	return "", attempts, fmt.Errorf("all %d attempts failed: %w", len(attempts), lastErr)
}
