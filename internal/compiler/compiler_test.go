package compiler

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/settings"
)

func compile(t *testing.T, platform string, raw map[string]string, mutate func(*Input)) Prompt {
	t.Helper()
	c := catalog.Default()
	profile := c.Platform(platform)
	in := Input{
		Base:     "a lighthouse at dusk",
		Profile:  profile,
		Preset:   c.Preset("custom"),
		Settings: settings.Resolve(raw, profile, c, rand.New(rand.NewPCG(1, 2))),
	}
	if mutate != nil {
		mutate(&in)
	}
	return Compile(in)
}

func TestUserPromptAnchorsBase(t *testing.T) {
	p := compile(t, "flux", nil, nil)
	assert.Contains(t, p.User, `must clearly feature "a lighthouse at dusk" without omission`)
	assert.Contains(t, p.System, "user's subject is authoritative")
	assert.Contains(t, p.System, "Write at least 105 words.")
	assert.Contains(t, p.System, "FLUX-SPECIFIC INSTRUCTIONS")
}

func TestAutoSettingsNeverBecomeInstructions(t *testing.T) {
	c := catalog.Default()
	raw := map[string]string{}
	for _, key := range catalog.ControlKeys() {
		if key == catalog.CreativeRandomness {
			continue
		}
		raw[key] = "auto"
	}
	raw[catalog.TimeOfDay] = "dusk"
	p := compile(t, "flux", raw, nil)

	for key := range raw {
		if key == catalog.TimeOfDay {
			continue
		}
		tmpl, ok := settings.ClauseTemplate(key)
		require.True(t, ok, key)
		for _, opt := range c.Pool(key) {
			clause := fmt.Sprintf(tmpl, opt)
			assert.NotContains(t, p.User, clause, key)
		}
		assert.NotContains(t, p.User, strings.ToLower(settings.Label(key))+":", key)
	}
	assert.Contains(t, p.User, "time of day: dusk")
	assert.Contains(t, p.System, "OPEN CHOICES")
	assert.Contains(t, p.System, "camera angle")
}

func TestExcludedSettingsAreOmitted(t *testing.T) {
	p := compile(t, "flux", map[string]string{catalog.Weather: "none"}, nil)
	assert.NotContains(t, p.User, "weather")
	assert.NotContains(t, p.System, "weather")
}

func TestGenreGuidanceOnlyWhenConcrete(t *testing.T) {
	p := compile(t, "flux", map[string]string{catalog.GenreStyle: "noir"}, nil)
	assert.Contains(t, p.System, "STYLE/GENRE: noir - Infuse the prompt with dark, moody")

	p = compile(t, "flux", map[string]string{catalog.GenreStyle: "auto"}, nil)
	assert.NotContains(t, p.System, "STYLE/GENRE")
}

func TestPonyRequiredTokensAndFamilyBlock(t *testing.T) {
	p := compile(t, "pony", nil, nil)
	assert.Contains(t, p.System, "REQUIRED TOKENS (must include): score_9, score_8_up, score_7_up")
	assert.Contains(t, p.System, "PONY-SPECIFIC INSTRUCTIONS")
	assert.NotContains(t, p.System, "FLUX-SPECIFIC")
}

func TestQualityTokensFollowPlatformEmphasis(t *testing.T) {
	p := compile(t, "flux", nil, nil)
	assert.Contains(t, p.System, "QUALITY TOKENS")

	p = compile(t, "flux", nil, func(in *Input) {
		in.Settings = settings.Resolve(nil, catalog.Profile{QualityTokens: []string{"x"}}, catalog.Default(), rand.New(rand.NewPCG(1, 1)))
	})
	assert.NotContains(t, p.System, "QUALITY TOKENS")
}

func TestPresetHints(t *testing.T) {
	p := compile(t, "wan22", nil, func(in *Input) {
		in.Preset = catalog.Default().Preset("noir")
	})
	assert.Contains(t, p.System, "PRESET: noir")
	assert.Contains(t, p.System, "Style keywords to incorporate: film noir, neo-noir, dark, moody")
	assert.Contains(t, p.System, "- Motion: deliberate movement")
	assert.Contains(t, p.System, "video generation")
}

func TestReferencesRestatedWithGuardrail(t *testing.T) {
	d := reference.New(reference.Options{})
	out := d.Direct(t.Context(), []reference.Input{{CaptionOverride: "a tabby cat", Directive: "style_only"}})

	p := compile(t, "flux", nil, func(in *Input) {
		in.References = out
		in.References.Captions = []string{"Reference 1 caption: a tabby cat"}
	})
	assert.Contains(t, p.System, "REFERENCE IMAGES:")
	assert.Contains(t, p.System, "Adopt the artistic style")
	assert.Contains(t, p.System, reference.Guardrail)
	assert.Contains(t, p.User, "Reference captions:\n  - Reference 1 caption: a tabby cat")
	assert.Contains(t, p.User, "Reference guidance:\nReference 1 (style only)")
}

func TestNoReferenceSectionWithoutReferences(t *testing.T) {
	p := compile(t, "flux", nil, nil)
	assert.NotContains(t, p.System, "REFERENCE IMAGES")
	assert.NotContains(t, p.User, "Reference")
}

func TestBrainstorm(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	assert.Empty(t, Brainstorm("subtle", rng))
	assert.Empty(t, Brainstorm("", rng))
	assert.Empty(t, Brainstorm("extreme", rng))

	for _, level := range []string{"balanced", "bold", "wild"} {
		t.Run(level, func(t *testing.T) {
			got := Brainstorm(level, rand.New(rand.NewPCG(9, 9)))
			assert.Contains(t, brainstorms[level], got)
			assert.Equal(t, got, Brainstorm(level, rand.New(rand.NewPCG(9, 9))))
		})
	}

	p := compile(t, "flux", nil, func(in *Input) { in.Brainstorm = "Add a fox." })
	assert.Contains(t, p.User, "Creative direction: Add a fox.")
}

func TestRandomElementsListed(t *testing.T) {
	p := compile(t, "flux", nil, func(in *Input) {
		in.RandomElements = map[string]string{"lenses": "fisheye lens", "color_tones": "warm colors"}
	})
	i := strings.Index(p.System, "Color Tones: warm colors")
	j := strings.Index(p.System, "Lenses: fisheye lens")
	require.GreaterOrEqual(t, i, 0)
	assert.Greater(t, j, i)
}
