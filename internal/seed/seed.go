// Package seed resolves the per-request seed from the requested value, the
// seed mode and the last seed used in the same scope.
package seed

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
)

// MaxSeed keeps seeds exactly representable in JSON numbers.
const MaxSeed int64 = 1<<53 - 1

var ErrNoScope = errors.New("seed scope is empty")

type Mode int

const (
	Fixed Mode = iota
	Randomize
	Increment
	Decrement
)

var modeNames = map[Mode]string{
	Fixed:     "fixed",
	Randomize: "randomize",
	Increment: "increment",
	Decrement: "decrement",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return modeNames[Fixed]
}

// ParseMode maps user input to a Mode. Anything unrecognised is Fixed.
func ParseMode(value string) Mode {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "random", "randomise":
		return Randomize
	case "inc", "+1":
		return Increment
	case "dec", "-1":
		return Decrement
	}
	for m, name := range modeNames {
		if name == v {
			return m
		}
	}
	return Fixed
}

// State is the last seed handed out in one scope.
type State struct {
	Last int64
	Mode Mode
	Set  bool
}

type Resolved struct {
	Seed int64
	Mode Mode
}

// Next computes the seed for a call. Increment and decrement step from the
// previous seed in the scope, or start at requested when there is none.
// Values wrap inside [0, MaxSeed].
func Next(prev State, requested int64, mode Mode, rng *rand.Rand) Resolved {
	requested = Clamp(requested)
	switch mode {
	case Randomize:
		return Resolved{Seed: rng.Int64N(MaxSeed + 1), Mode: mode}
	case Increment:
		if !prev.Set {
			return Resolved{Seed: requested, Mode: mode}
		}
		if prev.Last >= MaxSeed {
			return Resolved{Seed: 0, Mode: mode}
		}
		return Resolved{Seed: prev.Last + 1, Mode: mode}
	case Decrement:
		if !prev.Set {
			return Resolved{Seed: requested, Mode: mode}
		}
		if prev.Last <= 0 {
			return Resolved{Seed: MaxSeed, Mode: mode}
		}
		return Resolved{Seed: prev.Last - 1, Mode: mode}
	default:
		return Resolved{Seed: requested, Mode: Fixed}
	}
}

func Clamp(v int64) int64 {
	if v < 0 {
		v = -v
	}
	if v < 0 {
		return 0
	}
	return v % (MaxSeed + 1)
}

// Tracker keeps the last seed per scope across calls. Implementations must
// be safe for concurrent use.
type Tracker interface {
	Advance(ctx context.Context, scope string, requested int64, mode Mode) (Resolved, error)
}

// Rand returns the request-scoped generator for a resolved seed.
func Rand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}
