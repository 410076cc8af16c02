package catalog

// Control keys accepted from hosts, in report order.
const (
	CameraAngle        = "camera_angle"
	Composition        = "composition"
	LightingSource     = "lighting_source"
	LightingQuality    = "lighting_quality"
	TimeOfDay          = "time_of_day"
	Weather            = "weather"
	ArtStyle           = "art_style"
	GenreStyle         = "genre_style"
	ColorMood          = "color_mood"
	DetailLevel        = "detail_level"
	SubjectFraming     = "subject_framing"
	SubjectPose        = "subject_pose"
	CameraMovement     = "camera_movement"
	Lens               = "lens"
	CreativeRandomness = "creative_randomness"

	LengthMode      = "length_mode"
	DetailMode      = "detail_mode"
	QualityEmphasis = "quality_emphasis"
)

var controlOrder = []string{
	CameraAngle,
	Composition,
	LightingSource,
	LightingQuality,
	TimeOfDay,
	Weather,
	ArtStyle,
	GenreStyle,
	ColorMood,
	DetailLevel,
	SubjectFraming,
	SubjectPose,
	CameraMovement,
	Lens,
	CreativeRandomness,
}

// PlatformKeys are always resolved from the profile.
var PlatformKeys = []string{LengthMode, DetailMode, QualityEmphasis}

func ControlKeys() []string {
	return append([]string(nil), controlOrder...)
}

func IsPlatformKey(key string) bool {
	for _, k := range PlatformKeys {
		if k == key {
			return true
		}
	}
	return false
}

var defaultPools = map[string][]string{
	CameraAngle: {
		"eye level", "low angle", "high angle", "dutch angle", "bird's eye view",
		"worm's eye view", "over the shoulder", "point of view", "extreme close-up angle",
	},
	Composition: {
		"rule of thirds", "centered", "symmetrical", "asymmetrical",
		"golden ratio", "leading lines", "frame within frame", "negative space",
		"balanced", "dynamic diagonal",
	},
	LightingSource: {
		"natural sunlight", "studio lighting", "golden hour sun", "moonlight",
		"candlelight", "neon lights", "firelight", "spotlight", "ambient lighting",
		"backlight", "rim lighting", "window light", "street lights",
	},
	LightingQuality: {
		"soft diffused", "hard dramatic", "even balanced", "high contrast",
		"low key", "high key", "chiaroscuro", "volumetric", "atmospheric",
	},
	TimeOfDay: {
		"dawn", "early morning", "mid-morning", "noon", "afternoon",
		"golden hour", "dusk", "twilight", "night", "midnight", "blue hour",
	},
	Weather: {
		"clear sky", "partly cloudy", "overcast", "misty", "foggy",
		"rainy", "stormy", "snowy", "sunny", "hazy",
	},
	ArtStyle: {
		"photorealistic", "digital art", "oil painting", "watercolor",
		"anime", "manga", "sketch", "pencil drawing", "3D render",
		"illustration", "concept art", "impressionist", "abstract",
		"pixel art", "low poly", "papercraft", "isometric",
	},
	GenreStyle: {
		"surreal", "cinematic", "dramatic", "action", "humorous",
		"indie", "horror", "scifi", "romantic", "pg",
		"artistic", "documentary", "minimalist", "maximalist",
		"vintage", "modern", "fantasy", "noir", "cyberpunk",
	},
	ColorMood: {
		"vibrant", "muted", "monochrome", "warm tones", "cool tones",
		"pastel", "high contrast", "desaturated", "neon", "earth tones",
	},
	DetailLevel: {
		"standard", "highly detailed", "intricate details", "simplified", "minimalist",
	},
	SubjectFraming: {
		"extreme close-up", "close-up", "medium close-up",
		"medium shot", "medium wide", "wide shot",
		"full body", "cowboy shot", "bust shot",
		"head and shoulders", "three-quarter",
	},
	SubjectPose: {
		"standing", "sitting", "lying down", "kneeling", "crouching",
		"action pose", "portrait pose", "dynamic", "static",
		"asymmetric", "contrapposto", "relaxed", "tense",
		"walking", "running", "jumping", "dancing",
	},
	CameraMovement: {
		"camera pushes in", "camera pulls back", "camera pans right",
		"camera pans left", "camera tilts up", "camera tilts down",
		"tracking shot", "arc shot", "handheld camera",
	},
	Lens: {
		"medium lens", "wide lens", "long-focus lens", "telephoto lens",
		"fisheye lens", "wide-angle lens",
	},
	CreativeRandomness: {
		"subtle", "balanced", "bold", "wild",
	},
}

// Creativity tiers, lowest first.
var creativityLevels = []string{"subtle", "balanced", "bold", "wild"}

// CreativityTier returns the tier index of level, or -1 when unknown.
func CreativityTier(level string) int {
	for i, l := range creativityLevels {
		if l == level {
			return i
		}
	}
	return -1
}

var genreGuidance = map[string]string{
	"surreal":     "dreamlike, unexpected juxtapositions, reality-bending elements",
	"cinematic":   "film-like quality, dramatic lighting, professional composition",
	"dramatic":    "high contrast, emotional intensity, dynamic tension",
	"action":      "dynamic motion, energy, movement, intensity",
	"humorous":    "playful, whimsical, lighthearted, amusing elements",
	"indie":       "artistic, unconventional, creative freedom, unique perspective",
	"horror":      "dark atmosphere, ominous mood, eerie elements, tension",
	"scifi":       "futuristic, technology, otherworldly, advanced elements",
	"romantic":    "soft, intimate, emotional warmth, tender mood",
	"pg":          "family-friendly, clean, wholesome, appropriate for all ages",
	"artistic":    "creative interpretation, aesthetic focus, expressive",
	"documentary": "realistic, authentic, unposed, natural",
	"minimalist":  "simple, clean, essential elements only, negative space",
	"maximalist":  "rich details, complex, layered, ornate",
	"vintage":     "classic, retro, aged aesthetic, nostalgic feel",
	"modern":      "contemporary, current, sleek, clean lines",
	"fantasy":     "magical, mythical, imaginative, enchanted",
	"noir":        "dark, moody, high contrast shadows, mystery",
	"cyberpunk":   "neon, futuristic dystopia, tech, gritty urban",
}

func GenreGuidance(genre string) string {
	if g, ok := genreGuidance[genre]; ok {
		return g
	}
	return genre
}

// Aliases maps short forms an LLM tends to write onto pool options.
var Aliases = map[string]string{
	"pov":             "point of view",
	"first-person":    "point of view",
	"birds-eye":       "bird's eye view",
	"bird's-eye":      "bird's eye view",
	"overhead shot":   "bird's eye view",
	"worms-eye":       "worm's eye view",
	"ots":             "over the shoulder",
	"golden-hour":     "golden hour",
	"sunset":          "golden hour",
	"closeup":         "close-up",
	"close up":        "close-up",
	"full-body":       "full body",
	"3d":              "3D render",
	"sci-fi":          "scifi",
	"science fiction": "scifi",
	"photoreal":       "photorealistic",
	"dutch tilt":      "dutch angle",
	"rim light":       "rim lighting",
}
