package catalog

import "strings"

type Platform string

const (
	Flux          Platform = "flux"
	Wan22         Platform = "wan22"
	HunyuanImage  Platform = "hunyuan_image"
	QwenImage     Platform = "qwen_image"
	QwenImageEdit Platform = "qwen_image_edit"
	SDXL          Platform = "sd_xl"
	Pony          Platform = "pony"
	Illustrious   Platform = "illustrious"
	Chroma        Platform = "chroma"
	WanImage      Platform = "wan_image"

	DefaultPlatform = Flux
)

var platformOrder = []Platform{
	Flux,
	SDXL,
	Pony,
	Illustrious,
	Chroma,
	QwenImage,
	QwenImageEdit,
	HunyuanImage,
	WanImage,
	Wan22,
}

type Family string

const (
	FamilyPony        Family = "pony"
	FamilyIllustrious Family = "illustrious"
	FamilyFlux        Family = "flux"
	FamilyChroma      Family = "chroma"
	FamilyWan         Family = "wan"
	FamilySDXL        Family = "sdxl"
	FamilyNatural     Family = "natural"
	FamilyEdit        Family = "edit"
)

type Flow string

const (
	FlowImage Flow = "image"
	FlowVideo Flow = "video"
)

// Profile is the static description of one generation target.
type Profile struct {
	Key           Platform
	Name          string
	Description   string
	PromptStyle   string
	OptimalLength string
	DetailMode    string
	Family        Family
	Flow          Flow

	MaxWords  int
	MaxTokens int

	QualityEmphasis bool
	Creativity      string

	Preferences      []string
	QualityTokens    []string
	RequiredTokens   []string
	RequiredNegative []string
	Avoid            []string
	Negative         string
}

func (p Profile) TagBased() bool {
	return p.Family == FamilyPony || p.Family == FamilyIllustrious
}

// WordFloor is the density floor: 70% of the platform word target.
func (p Profile) WordFloor() int {
	if p.MaxWords <= 0 {
		return 0
	}
	return p.MaxWords * 7 / 10
}

func ParsePlatform(value string) (Platform, bool) {
	key := Platform(strings.ToLower(strings.TrimSpace(value)))
	key = Platform(strings.ReplaceAll(string(key), "-", "_"))
	switch key {
	case "sdxl":
		key = SDXL
	case "wan", "wan2.2":
		key = Wan22
	case "hunyuan":
		key = HunyuanImage
	case "qwen":
		key = QwenImage
	case "qwen_edit":
		key = QwenImageEdit
	}
	_, ok := platformTable[key]
	return key, ok
}

var platformTable = map[Platform]Profile{
	Flux: {
		Name:          "Flux (FLUX.1-dev/schnell)",
		Description:   "Black Forest Labs - Natural language, detailed, artistic",
		PromptStyle:   "natural_detailed",
		OptimalLength: "long",
		DetailMode:    "rich",
		Family:        FamilyFlux,
		Flow:          FlowImage,
		MaxWords:      150,
		MaxTokens:     400,
		Creativity:    "bold",
		Preferences: []string{
			"Natural language descriptions",
			"Artistic style references (e.g., 'in the style of...')",
			"Photography terms (e.g., 'professional photograph', 'studio lighting')",
			"Quality descriptors (e.g., 'masterpiece', 'highly detailed', '8k')",
			"Medium specifications (e.g., 'oil painting', 'digital art', 'photograph')",
		},
		QualityTokens: []string{
			"masterpiece", "best quality", "highly detailed", "8k uhd",
			"professional", "award-winning", "stunning", "exceptional quality",
		},
		Avoid: []string{
			"Too technical/robotic language",
			"Repetitive keywords",
			"Overly structured format",
		},
		Negative: "blurry, low quality, distorted, deformed, ugly, bad anatomy, watermark, signature, text",
	},
	Wan22: {
		Name:          "Wan 2.2 (Video)",
		Description:   "Tencent - Technical cinematography terms, structured",
		PromptStyle:   "technical_structured",
		OptimalLength: "long",
		DetailMode:    "cinematic",
		Family:        FamilyWan,
		Flow:          FlowVideo,
		MaxWords:      250,
		MaxTokens:     700,
		Creativity:    "bold",
		Preferences: []string{
			"Specific lighting terminology (soft lighting, edge lighting, etc.)",
			"Composition rules (rule of thirds, symmetrical, etc.)",
			"Technical quality terms",
			"Structured descriptions (subject, setting, lighting, composition)",
			"Explicit motion and camera movement",
		},
		Avoid: []string{
			"Casual language",
			"Abstract artistic terms",
			"Long flowery descriptions",
		},
		Negative: "low quality, blurry, distorted, poor composition, bad lighting, flat",
	},
	HunyuanImage: {
		Name:          "Hunyuan Image",
		Description:   "Tencent - Realistic, good with Asian subjects, simpler English",
		PromptStyle:   "clear_concise",
		OptimalLength: "medium",
		DetailMode:    "concise",
		Family:        FamilyNatural,
		Flow:          FlowImage,
		MaxWords:      80,
		MaxTokens:     256,
		Creativity:    "subtle",
		Preferences: []string{
			"Clear, direct descriptions",
			"Simpler English (avoids complex vocabulary)",
			"Photorealism focus",
			"Good with Asian aesthetics and subjects",
			"Quality over quantity of words",
		},
		QualityTokens: []string{
			"high quality", "detailed", "realistic", "clear",
			"professional", "beautiful", "sharp",
		},
		Avoid: []string{
			"Complex sentence structures",
			"Abstract artistic concepts",
			"Too many adjectives",
			"Overly technical jargon",
		},
		Negative: "low quality, blurry, distorted, unrealistic, bad details",
	},
	QwenImage: {
		Name:          "Qwen Image",
		Description:   "Alibaba - Natural language, versatile, good with diverse styles",
		PromptStyle:   "balanced_natural",
		OptimalLength: "medium",
		DetailMode:    "balanced",
		Family:        FamilyNatural,
		Flow:          FlowImage,
		MaxWords:      100,
		MaxTokens:     300,
		Creativity:    "balanced",
		Preferences: []string{
			"Natural, conversational descriptions",
			"Good with various art styles",
			"Handles both Eastern and Western aesthetics",
			"Balanced detail level",
			"Cultural elements well understood",
		},
		QualityTokens: []string{
			"high quality", "detailed", "professional", "beautiful",
			"intricate", "refined", "elegant",
		},
		Avoid: []string{
			"Overly formal language",
			"Excessive technical terms",
			"Platform-specific keywords from other models",
		},
		Negative: "low quality, blurry, distorted, artifacts, bad anatomy",
	},
	QwenImageEdit: {
		Name:          "Qwen Image Edit",
		Description:   "Alibaba - Specialized for editing, clear change instructions",
		PromptStyle:   "edit_focused",
		OptimalLength: "short",
		DetailMode:    "concise",
		Family:        FamilyEdit,
		Flow:          FlowImage,
		MaxWords:      50,
		MaxTokens:     160,
		Creativity:    "subtle",
		Preferences: []string{
			"VERY concise change instructions",
			"Focus on what changes, not what stays",
			"Clear before/after language",
			"Direct commands (e.g., 'change X to Y', 'add Z', 'remove W')",
			"Preservation hints (e.g., 'keep background', 'maintain composition')",
		},
		QualityTokens: []string{
			"seamless", "natural", "realistic", "consistent", "high quality",
		},
		Avoid: []string{
			"Long descriptions of unchanged elements",
			"Redundant information",
			"Vague change requests",
			"Overly artistic language",
		},
		Negative: "unnatural, inconsistent, artifacts, seams, low quality",
	},
	SDXL: {
		Name:          "Stable Diffusion XL",
		Description:   "Stability AI - Token-aware, quality emphasis, booru tags optional",
		PromptStyle:   "token_optimized",
		OptimalLength: "medium",
		DetailMode:    "concise",
		Family:        FamilySDXL,
		Flow:          FlowImage,
		MaxWords:      75,
		MaxTokens:     220,
		Creativity:    "subtle",
		Preferences: []string{
			"Front-load important concepts",
			"Quality/style tokens at start",
			"Can use natural language or danbooru tags",
			"Emphasis with (parentheses) or attention syntax",
			"Negative prompts very important",
		},
		QualityTokens: []string{
			"masterpiece", "best quality", "highly detailed", "professional",
			"8k", "intricate details", "sharp focus", "vibrant",
		},
		Avoid: []string{
			"Exceeding ~75 tokens (diminishing returns)",
			"Repetitive terms",
			"Too many parentheses/emphasis",
		},
		Negative: "ugly, tiling, poorly drawn, bad anatomy, deformed, disfigured, worst quality, low quality, blurry",
	},
	Pony: {
		Name:          "Pony Diffusion",
		Description:   "Anime/furry model - Booru tags, score system, specific quality tags required",
		PromptStyle:   "booru_structured",
		OptimalLength: "medium",
		DetailMode:    "tags",
		Family:        FamilyPony,
		Flow:          FlowImage,
		MaxWords:      80,
		MaxTokens:     220,
		Creativity:    "subtle",
		Preferences: []string{
			"Start with score_9, score_8_up, score_7_up",
			"Use danbooru tag format",
			"Underscores instead of spaces in tags",
			"Specific quality tags at beginning",
			"Rating at start (safe/questionable/explicit)",
			"Character descriptions in tag format",
		},
		QualityTokens: []string{
			"score_9", "score_8_up", "score_7_up", "best quality", "amazing quality",
			"very aesthetic", "absurdres", "newest",
		},
		RequiredTokens: []string{"score_9", "score_8_up", "score_7_up"},
		RequiredNegative: []string{
			"score_6", "score_5", "score_4", "worst quality", "low quality",
			"bad anatomy", "sketch", "jpeg artifacts",
		},
		Avoid: []string{
			"Natural language descriptions",
			"Spaces in multi-word concepts (use underscores)",
			"Missing score tags",
			"Long narrative descriptions",
		},
		Negative: "score_6, score_5, score_4, worst quality, low quality, bad anatomy, sketch, jpeg artifacts, blurry, simple background",
	},
	Illustrious: {
		Name:          "Illustrious XL",
		Description:   "Anime model - Booru tags, quality emphasis, detailed character descriptions",
		PromptStyle:   "booru_detailed",
		OptimalLength: "medium",
		DetailMode:    "tags",
		Family:        FamilyIllustrious,
		Flow:          FlowImage,
		MaxWords:      100,
		MaxTokens:     260,
		Creativity:    "subtle",
		Preferences: []string{
			"Start with quality tags (masterpiece, best quality)",
			"Use danbooru tag format with underscores",
			"Detailed character appearance tags",
			"Clothing and accessory tags",
			"Background and atmosphere tags",
			"Lighting and color mood tags",
		},
		QualityTokens: []string{
			"masterpiece", "best quality", "very aesthetic", "absurdres",
			"intricate details", "official art", "extremely detailed",
		},
		Avoid: []string{
			"Overly long narrative descriptions",
			"Realistic photography terms",
			"3D render terminology",
		},
		Negative: "worst quality, low quality, bad anatomy, bad hands, bad feet, deformed, disfigured, poorly drawn, blurry, jpeg artifacts",
	},
	Chroma: {
		Name:          "Chroma (Meissonic)",
		Description:   "MeissonFlow - Natural language, handles complex compositions, multiple subjects",
		PromptStyle:   "natural_compositional",
		OptimalLength: "long",
		DetailMode:    "rich",
		Family:        FamilyChroma,
		Flow:          FlowImage,
		MaxWords:      200,
		MaxTokens:     500,
		Creativity:    "bold",
		Preferences: []string{
			"Natural, detailed descriptions",
			"Can handle multiple subjects well",
			"Spatial relationships clearly described",
			"Complex compositional instructions",
			"Quality descriptors throughout",
			"Good with scene complexity",
		},
		QualityTokens: []string{
			"high quality", "detailed", "professional", "intricate",
			"masterpiece", "stunning", "exceptional composition",
		},
		Avoid: []string{
			"Too simplistic descriptions",
			"Single-word tags",
			"Overly technical jargon",
		},
		Negative: "low quality, blurry, distorted, bad composition, poor details, artifacts, inconsistent lighting, flat",
	},
	WanImage: {
		Name:          "Wan Image",
		Description:   "Tencent video model adapted for images - Technical, structured, cinematic",
		PromptStyle:   "technical_cinematic",
		OptimalLength: "medium",
		DetailMode:    "cinematic",
		Family:        FamilyWan,
		Flow:          FlowImage,
		MaxWords:      120,
		MaxTokens:     320,
		Creativity:    "balanced",
		Preferences: []string{
			"Technical cinematography terminology",
			"Structured format: subject, setting, lighting, composition",
			"Specific lighting types (soft, hard, edge, rim, etc.)",
			"Composition rules (rule of thirds, symmetrical, etc.)",
			"Professional photography terms",
			"Color grading and mood descriptors",
		},
		QualityTokens: []string{
			"high quality", "professional", "detailed", "sharp focus",
			"well composed", "balanced lighting", "cinematic quality",
		},
		Avoid: []string{
			"Casual language",
			"Abstract artistic terms without technical grounding",
			"Overly long flowery descriptions",
		},
		Negative: "low quality, blurry, poor composition, bad lighting, flat, distorted, unprofessional, amateur",
	},
}

// familyBlocks holds the fixed structural rules injected per platform family.
var familyBlocks = map[Family]string{
	FamilyPony: `PONY-SPECIFIC INSTRUCTIONS:
- START with: score_9, score_8_up, score_7_up
- Use danbooru tag format (underscores, not spaces)
- Tags should be comma-separated
- Quality tags at beginning
- Character/subject descriptions in tag format
- Example: score_9, score_8_up, score_7_up, 1girl, long_hair, blue_eyes, etc.`,
	FamilyIllustrious: `ILLUSTRIOUS-SPECIFIC INSTRUCTIONS:
- Start with quality tags: masterpiece, best quality
- Use danbooru tag format with underscores
- Detailed character appearance tags
- Clothing and accessory tags
- Background and atmosphere tags
- Example: masterpiece, best quality, 1girl, detailed_face, flowing_dress, etc.`,
	FamilyFlux: `FLUX-SPECIFIC INSTRUCTIONS:
- Natural language descriptions (75-150 tokens)
- Use artistic terminology
- Can include "in the style of [artist/style]"
- Quality modifiers important
- Photography terms work well`,
	FamilyChroma: `CHROMA-SPECIFIC INSTRUCTIONS:
- Natural, detailed language (100-200 tokens)
- Excellent with complex scenes
- Can handle multiple subjects
- Describe spatial relationships clearly
- Compositional details important`,
	FamilyWan: `WAN-SPECIFIC INSTRUCTIONS:
- Technical cinematography terms
- Structured format: subject, setting, lighting, composition
- Specific lighting types (soft lighting, edge lighting, etc.)
- Professional photography language
- For video: describe motion, pace and camera movement explicitly`,
	FamilySDXL: `SDXL-SPECIFIC INSTRUCTIONS:
- Token limit: 40-75 tokens optimal
- Front-load important concepts
- Quality tokens at start
- Can use natural language or tags
- Keep concise but descriptive`,
	FamilyNatural: `NATURAL-LANGUAGE INSTRUCTIONS:
- Clear, flowing sentences
- Subject first, then setting, lighting and mood
- Moderate detail, no tag lists`,
	FamilyEdit: `EDIT-SPECIFIC INSTRUCTIONS:
- Write direct change instructions ("change X to Y", "add Z", "remove W")
- Mention only what changes, plus short preservation hints
- Keep it very short`,
}

func FamilyBlock(f Family) string {
	return familyBlocks[f]
}

var lengthTargets = map[string]string{
	"very_short": "20-40 tokens",
	"short":      "40-80 tokens",
	"medium":     "80-150 tokens",
	"long":       "150-250 tokens",
	"very_long":  "250-400 tokens",
}

func LengthTarget(mode string) string {
	return lengthTargets[mode]
}

func cloneProfile(p Profile) Profile {
	p.Preferences = append([]string(nil), p.Preferences...)
	p.QualityTokens = append([]string(nil), p.QualityTokens...)
	p.RequiredTokens = append([]string(nil), p.RequiredTokens...)
	p.RequiredNegative = append([]string(nil), p.RequiredNegative...)
	p.Avoid = append([]string(nil), p.Avoid...)
	return p
}
