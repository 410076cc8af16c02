package catalog

import (
	"math/rand/v2"
	"sort"
)

const DefaultPreset = "custom"

type Preset struct {
	Key                 string
	Description         string
	StyleHints          []string
	CameraPreferences   []string
	LightingPreferences []string
	MotionPreferences   []string
	Negatives           []string
	RandomElements      bool
}

var presetOrder = []string{"custom", "cinematic", "surreal", "action", "stylized", "noir", "random"}

var presetTable = map[string]Preset{
	"custom": {
		Description: "No preset - use control settings only",
	},
	"cinematic": {
		Description:         "Professional film quality with emphasis on cinematography",
		StyleHints:          []string{"cinematic", "film-like", "professional cinematography", "dramatic lighting"},
		CameraPreferences:   []string{"deliberate framing", "dynamic composition", "depth of field"},
		LightingPreferences: []string{"professional lighting setup", "edge lighting", "carefully controlled shadows"},
		MotionPreferences:   []string{"fluid motion", "realistic physics", "natural movement"},
		Negatives:           []string{"amateur", "low-budget", "poor cinematography", "flat lighting", "boring composition"},
	},
	"surreal": {
		Description:         "Dreamlike, otherworldly aesthetics",
		StyleHints:          []string{"surreal", "dreamlike", "ethereal", "magical realism", "fantastical"},
		CameraPreferences:   []string{"unusual angles", "disorienting perspectives"},
		LightingPreferences: []string{"unnatural lighting", "mixed light sources", "mysterious ambiance"},
		MotionPreferences:   []string{"slow motion", "floating", "gravity-defying", "ethereal movement"},
	},
	"action": {
		Description:         "High-energy, dynamic motion sequences",
		StyleHints:          []string{"dynamic", "energetic", "intense", "fast-paced"},
		CameraPreferences:   []string{"tracking shots", "handheld camera feel", "wide-angle lens"},
		LightingPreferences: []string{"high contrast", "hard lighting", "strong shadows"},
		MotionPreferences:   []string{"fast motion", "athletic movement", "kinetic energy", "impact and force"},
		Negatives:           []string{"slow", "static", "boring", "low energy", "stiff movement"},
	},
	"stylized": {
		Description:         "Artistic visual style over realism",
		StyleHints:          []string{"stylized", "artistic", "illustrative", "graphic", "design-forward"},
		CameraPreferences:   []string{"deliberate framing", "clean visual lines"},
		LightingPreferences: []string{"artistic lighting", "color-coordinated palette", "intentional color scheme"},
		MotionPreferences:   []string{"stylized movement", "choreographed motion"},
		Negatives:           []string{"realistic", "photographic", "bland style", "generic"},
	},
	"noir": {
		Description:         "Dark, moody, high-contrast aesthetic",
		StyleHints:          []string{"film noir", "neo-noir", "dark", "moody", "atmospheric"},
		CameraPreferences:   []string{"low angle shots", "dutch angles", "shadow play"},
		LightingPreferences: []string{"high contrast lighting", "venetian blind shadows", "single light source", "chiaroscuro"},
		MotionPreferences:   []string{"deliberate movement", "tension in stillness"},
		Negatives:           []string{"bright", "cheerful", "colorful", "flat lighting"},
	},
	"random": {
		Description:    "Randomize elements from the guide for creative exploration",
		StyleHints:     []string{"creative", "experimental", "unexpected"},
		RandomElements: true,
	},
}

var randomPools = map[string][]string{
	"lighting_types": {
		"sunny lighting", "artificial lighting", "moonlighting", "practical lighting",
		"firelighting", "fluorescent lighting", "overcast lighting", "mixed lighting",
	},
	"lighting_quality": {
		"soft lighting", "hard lighting", "edge lighting", "side lighting",
		"top lighting", "underlighting", "silhouette lighting", "low contrast lighting",
		"high contrast lighting",
	},
	"times_of_day": {
		"sunrise time", "night time", "dusk time", "sunset time", "dawn time",
	},
	"shot_sizes": {
		"extreme close-up shot", "close-up shot", "medium shot",
		"medium close-up shot", "medium wide shot", "wide shot", "extreme wide shot",
	},
	"compositions": {
		"center composition", "balanced composition", "left-weighted composition",
		"right-weighted composition", "symmetrical composition", "short-side composition",
	},
	"lenses": {
		"medium lens", "wide lens", "long-focus lens", "telephoto lens",
		"fisheye lens", "wide-angle lens",
	},
	"camera_angles": {
		"eye-level shot", "high angle shot", "low angle shot",
		"dutch angle shot", "aerial shot", "over-the-shoulder shot",
	},
	"color_tones": {
		"warm colors", "cool colors", "saturated colors", "desaturated colors",
	},
	"visual_styles": {
		"3D cartoon style", "2D anime style", "watercolor painting",
		"oil painting style", "pixel art style", "claymation style",
		"felt style", "puppet animation", "photorealistic",
	},
	"visual_effects": {
		"tilt-shift photography", "time-lapse", "motion blur",
		"depth of field", "bokeh", "lens flare",
	},
}

// RandomElements draws roughly half of the random-preset categories, one
// option each. Categories are visited in sorted order so a seeded rng gives
// a stable result.
func RandomElements(rng *rand.Rand) map[string]string {
	keys := make([]string, 0, len(randomPools))
	for k := range randomPools {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string)
	for _, k := range keys {
		if rng.Float64() <= 0.5 {
			continue
		}
		pool := randomPools[k]
		out[k] = pool[rng.IntN(len(pool))]
	}
	return out
}

var videoNegatives = []string{
	"blurry", "low quality", "distorted", "watermark", "text overlay",
	"subtitle", "logo", "poor lighting", "static", "frozen",
	"jittery motion", "compression artifacts", "duplicate frames",
	"morphing", "deformed", "disfigured", "unnatural movement",
}

func clonePreset(p Preset) Preset {
	p.StyleHints = append([]string(nil), p.StyleHints...)
	p.CameraPreferences = append([]string(nil), p.CameraPreferences...)
	p.LightingPreferences = append([]string(nil), p.LightingPreferences...)
	p.MotionPreferences = append([]string(nil), p.MotionPreferences...)
	p.Negatives = append([]string(nil), p.Negatives...)
	return p
}
