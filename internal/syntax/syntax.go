// Package syntax shields prompt-weighting markup from LLM rewriting and
// expands {a|b|c} alternations before anything else sees the text.
package syntax

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

const maxAlternationPasses = 10

var (
	alternationRe = regexp.MustCompile(`\{([^{}]+)\}`)
	emphasisRe    = regexp.MustCompile(`\(([^():]+):(\d+\.?\d*)\)`)
)

// Store remembers the emphasis spans replaced by Protect, in order.
type Store struct {
	spans []string
}

func placeholder(i int) string {
	return fmt.Sprintf("__EMPHASIS_%d__", i)
}

// Protect swaps every "(text:weight)" span for an opaque placeholder.
func Protect(text string) (string, *Store) {
	st := &Store{}
	out := emphasisRe.ReplaceAllStringFunc(text, func(m string) string {
		ph := placeholder(len(st.spans))
		st.spans = append(st.spans, m)
		return ph
	})
	return out, st
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.spans)
}

// Restore puts the original spans back. Placeholders the LLM dropped stay
// dropped; unknown placeholders are left as they are.
func (s *Store) Restore(text string) string {
	if s == nil {
		return text
	}
	for i := len(s.spans) - 1; i >= 0; i-- {
		text = strings.ReplaceAll(text, placeholder(i), s.spans[i])
	}
	return text
}

// Missing reports which of the stored placeholders are absent from text.
func (s *Store) Missing(text string) []string {
	if s == nil {
		return nil
	}
	var out []string
	for i, span := range s.spans {
		if !strings.Contains(text, placeholder(i)) {
			out = append(out, span)
		}
	}
	return out
}

// ResolveAlternations replaces each {a|b|c} group with one trimmed option
// drawn from rng. Nested groups resolve innermost first; groups without a
// pipe are kept literally.
func ResolveAlternations(text string, rng *rand.Rand) string {
	for pass := 0; pass < maxAlternationPasses; pass++ {
		if !strings.Contains(text, "{") || !strings.Contains(text, "|") {
			break
		}
		next := alternationRe.ReplaceAllStringFunc(text, func(m string) string {
			body := m[1 : len(m)-1]
			if !strings.Contains(body, "|") {
				return m
			}
			opts := strings.Split(body, "|")
			return strings.TrimSpace(opts[rng.IntN(len(opts))])
		})
		if next == text {
			break
		}
		text = next
	}
	return text
}
