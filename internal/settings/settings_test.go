package settings

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prompt-enhancer/internal/catalog"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestResolveProvenanceIsExhaustive(t *testing.T) {
	cat := catalog.Default()
	valid := map[string]bool{"user": true, "random": true, "auto": true, "platform": true, "none": true}

	inputs := []map[string]string{
		{},
		{catalog.TimeOfDay: "dusk", catalog.CameraAngle: "auto"},
		{catalog.Weather: "random", catalog.Composition: "none", catalog.ArtStyle: "ukiyo-e"},
		{catalog.LightingSource: "laser disco", catalog.CreativeRandomness: "auto"},
		{catalog.DetailMode: "tags", "mood_ring": "teal", catalog.CreativeRandomness: "random"},
		{catalog.SubjectPose: "", catalog.Lens: "RANDOM", catalog.ColorMood: "None"},
	}

	for _, raw := range inputs {
		res := Resolve(raw, cat.Platform("flux"), cat, newRand(1))
		prov := res.Provenance()

		for key := range raw {
			mode, ok := prov[key]
			require.True(t, ok, "missing provenance for %s", key)
			assert.True(t, valid[mode], "invalid mode %q for %s", mode, key)
		}
		for _, key := range catalog.PlatformKeys {
			assert.Equal(t, "platform", prov[key])
		}
		assert.Len(t, res.All(), len(prov))
	}
}

func TestResolveModes(t *testing.T) {
	cat := catalog.Default()
	raw := map[string]string{
		catalog.TimeOfDay:      "Dusk",
		catalog.CameraAngle:    "auto",
		catalog.Weather:        "none",
		catalog.LightingSource: "random",
	}
	res := Resolve(raw, cat.Platform("flux"), cat, newRand(3))

	tod, _ := res.Get(catalog.TimeOfDay)
	assert.Equal(t, SourceUser, tod.Source)
	assert.Equal(t, "dusk", tod.Value)

	cam, _ := res.Get(catalog.CameraAngle)
	assert.Equal(t, SourceAuto, cam.Source)
	assert.Empty(t, cam.Value)
	assert.False(t, cam.Concrete())
	assert.Equal(t, AutoDisplay, cam.Display())

	weather, _ := res.Get(catalog.Weather)
	assert.Equal(t, SourceNone, weather.Source)
	assert.False(t, weather.Concrete())

	light, _ := res.Get(catalog.LightingSource)
	assert.Equal(t, SourceRandom, light.Source)
	assert.Contains(t, cat.Pool(catalog.LightingSource), light.Value)

	again := Resolve(raw, cat.Platform("flux"), cat, newRand(3))
	assert.Equal(t, light.Value, again.Value(catalog.LightingSource))
}

func TestResolveCreativity(t *testing.T) {
	cat := catalog.Default()
	tests := []struct {
		name     string
		platform string
		raw      string
		value    string
		source   Source
	}{
		{name: "auto on verbose platform", platform: "flux", raw: "auto", value: "bold", source: SourcePlatform},
		{name: "auto on concise platform", platform: "hunyuan_image", raw: "auto", value: "subtle", source: SourcePlatform},
		{name: "missing uses default", platform: "qwen_image", raw: "", value: "balanced", source: SourcePlatform},
		{name: "explicit", platform: "flux", raw: "Wild", value: "wild", source: SourceUser},
		{name: "unknown level", platform: "sd_xl", raw: "chaotic", value: "subtle", source: SourcePlatform},
		{name: "none", platform: "flux", raw: "none", value: "", source: SourceNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolve(map[string]string{catalog.CreativeRandomness: tc.raw}, cat.Platform(tc.platform), cat, newRand(1))
			s, ok := res.Get(catalog.CreativeRandomness)
			require.True(t, ok)
			assert.Equal(t, tc.value, s.Value)
			assert.Equal(t, tc.source, s.Source)
			assert.Equal(t, tc.value, res.Creativity())
		})
	}
}

func TestPlatformKeysCannotBeOverridden(t *testing.T) {
	cat := catalog.Default()
	res := Resolve(map[string]string{catalog.LengthMode: "very_long"}, cat.Platform("sd_xl"), cat, newRand(1))

	s, _ := res.Get(catalog.LengthMode)
	assert.Equal(t, "medium", s.Value)
	assert.Equal(t, SourcePlatform, s.Source)
	assert.Equal(t, "true", res.Value(catalog.QualityEmphasis))
	require.NotEmpty(t, res.Notes)
	assert.Contains(t, res.Notes[0], "fixed by the platform")
}

func TestResolveUnknownValues(t *testing.T) {
	cat := catalog.Default()
	res := Resolve(map[string]string{
		catalog.CameraAngle: "from the moon",
		catalog.ArtStyle:    "ukiyo-e woodblock",
		catalog.Composition: "POV",
		catalog.SubjectPose: "ots",
	}, cat.Platform("flux"), cat, newRand(1))

	cam, _ := res.Get(catalog.CameraAngle)
	assert.Equal(t, SourceAuto, cam.Source)
	assert.Equal(t, "from the moon", cam.Raw)

	art, _ := res.Get(catalog.ArtStyle)
	assert.Equal(t, SourceUser, art.Source)
	assert.Equal(t, "ukiyo-e woodblock", art.Value)

	// "pov" is an alias for a camera angle, not a composition
	comp, _ := res.Get(catalog.Composition)
	assert.Equal(t, SourceAuto, comp.Source)

	assert.Len(t, res.Notes, 3)
}

func TestResolveAliases(t *testing.T) {
	cat := catalog.Default()
	res := Resolve(map[string]string{catalog.CameraAngle: "POV"}, cat.Platform("flux"), cat, newRand(1))
	assert.Equal(t, "point of view", res.Value(catalog.CameraAngle))
}

func TestSceneExcludesPlatformAndCreativity(t *testing.T) {
	cat := catalog.Default()
	res := Resolve(map[string]string{
		catalog.TimeOfDay:          "dusk",
		catalog.CameraAngle:        "auto",
		catalog.CreativeRandomness: "bold",
	}, cat.Platform("flux"), cat, newRand(1))

	scene := res.Scene()
	require.Len(t, scene, 1)
	assert.Equal(t, catalog.TimeOfDay, scene[0].Key)
	assert.Equal(t, []string{"set during dusk"}, res.Clauses())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Time Of Day", Label("time_of_day"))
	assert.Equal(t, "Lens", Label("lens"))
}

func TestUnsuppliedCreativityUsesPlatformDefault(t *testing.T) {
	cat := catalog.Default()
	res := Resolve(nil, cat.Platform("flux"), cat, newRand(1))
	s, ok := res.Get(catalog.CreativeRandomness)
	require.True(t, ok)
	assert.Equal(t, SourcePlatform, s.Source)
	assert.Equal(t, "bold", res.Creativity())
}
