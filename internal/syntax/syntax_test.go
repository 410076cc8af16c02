package syntax

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectRestoreRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
	}{
		{name: "no emphasis", input: "a lighthouse at dusk", count: 0},
		{name: "single", input: "a (red coat:1.3) in snow", count: 1},
		{name: "integer weight", input: "(hair:2) flowing", count: 1},
		{name: "several", input: "(dark skin:1.5), (hair:0.8), (eyes:1.)", count: 3},
		{name: "nested parens are not emphasis", input: "(a (b:1.2) c)", count: 1},
		{name: "missing weight", input: "(just words) and (x:)", count: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			protected, st := Protect(tc.input)
			assert.Equal(t, tc.count, st.Len())
			if tc.count > 0 {
				assert.Contains(t, protected, "__EMPHASIS_0__")
				assert.NotContains(t, protected, ":")
			}
			assert.Equal(t, tc.input, st.Restore(protected))
		})
	}
}

func TestRestoreAfterRewrite(t *testing.T) {
	protected, st := Protect("portrait, (freckles:1.4), (green eyes:1.2)")
	require.Equal(t, "portrait, __EMPHASIS_0__, __EMPHASIS_1__", protected)

	rewritten := "A soft portrait with __EMPHASIS_1__ and __EMPHASIS_0__ under window light"
	assert.Equal(t,
		"A soft portrait with (green eyes:1.2) and (freckles:1.4) under window light",
		st.Restore(rewritten))
}

func TestRestoreManyPlaceholders(t *testing.T) {
	var parts []string
	for i := 0; i < 12; i++ {
		parts = append(parts, "(tag"+strings.Repeat("x", i)+":1.1)")
	}
	input := strings.Join(parts, " ")

	protected, st := Protect(input)
	require.Equal(t, 12, st.Len())
	assert.Equal(t, input, st.Restore(protected))
}

func TestMissing(t *testing.T) {
	_, st := Protect("(a:1.1) (b:1.2)")
	assert.Equal(t, []string{"(b:1.2)"}, st.Missing("kept __EMPHASIS_0__ only"))

	var nilStore *Store
	assert.Nil(t, nilStore.Missing("x"))
	assert.Equal(t, "x", nilStore.Restore("x"))
}

func TestResolveAlternationsTotality(t *testing.T) {
	inputs := []string{
		"a {red|blue|green} car",
		"{cat|dog} on a {sofa|{wooden|metal} chair}",
		"{ spaced | options }",
		"{only}",
		"no groups here",
		"{a|b",
		"}{x|y}{",
	}
	for _, in := range inputs {
		for seed := uint64(0); seed < 25; seed++ {
			out := ResolveAlternations(in, rand.New(rand.NewPCG(seed, 1)))
			for _, m := range alternationRe.FindAllString(out, -1) {
				assert.NotContains(t, m, "|", "unresolved alternation in %q from %q", out, in)
			}
		}
	}
}

func TestResolveAlternationsPicksFromOptions(t *testing.T) {
	seen := map[string]bool{}
	for seed := uint64(0); seed < 50; seed++ {
		out := ResolveAlternations("a {red|blue} car", rand.New(rand.NewPCG(seed, seed)))
		seen[out] = true
	}
	assert.Equal(t, map[string]bool{"a red car": true, "a blue car": true}, seen)
}

func TestResolveAlternationsTrimsAndNests(t *testing.T) {
	out := ResolveAlternations("{ wooden | wooden }", rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, "wooden", out)

	out = ResolveAlternations("{{a|a}|{a|a}}", rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, "a", out)
}

func TestResolveAlternationsKeepsPlainBraces(t *testing.T) {
	out := ResolveAlternations("{only} and {x|x}", rand.New(rand.NewPCG(1, 1)))
	assert.Equal(t, "{only} and x", out)
}

func TestResolveAlternationsDeterministicForSeed(t *testing.T) {
	in := "{a|b|c|d} {e|f|g|h} {i|j|k|l}"
	a := ResolveAlternations(in, rand.New(rand.NewPCG(42, 42)))
	b := ResolveAlternations(in, rand.New(rand.NewPCG(42, 42)))
	assert.Equal(t, a, b)
}
