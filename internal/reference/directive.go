package reference

import "strings"

// Category is one kind of trait a reference image can contribute.
type Category string

const (
	Subject     Category = "subject"
	Style       Category = "style"
	Lighting    Category = "lighting"
	Palette     Category = "palette"
	Composition Category = "composition"
	Mood        Category = "mood"
	Texture     Category = "texture"
	Genre       Category = "genre"
)

var allCategories = []Category{Subject, Style, Lighting, Palette, Composition, Mood, Texture, Genre}

type Directive int

const (
	DirectiveNone Directive = iota
	DirectiveAuto
	Recreate
	Reinterpret
	SubjectOnly
	StyleOnly
	LightingOnly
	CompositionOnly
	GenreOnly
)

type DirectiveConfig struct {
	Key         string
	Label       string
	Include     []Category
	Exclude     []Category
	Instruction string
	Focus       string
}

var directiveTable = map[Directive]DirectiveConfig{
	DirectiveNone: {
		Key:         "none",
		Label:       "ignored",
		Instruction: "Ignore this reference entirely.",
	},
	DirectiveAuto: {
		Key:         "auto",
		Label:       "general inspiration",
		Include:     allCategories,
		Instruction: "Use this reference as general inspiration and take whichever traits best serve the base prompt.",
		Focus:       "the most distinctive visual traits",
	},
	Recreate: {
		Key:         "recreate",
		Label:       "recreate",
		Include:     allCategories,
		Instruction: "Recreate this reference closely: same subject, composition, style, lighting and palette, adapted to the base prompt.",
		Focus:       "subject, composition, style and lighting in that order",
	},
	Reinterpret: {
		Key:         "reinterpret",
		Label:       "reinterpret",
		Include:     []Category{Subject, Mood, Palette, Genre},
		Exclude:     []Category{Composition, Style},
		Instruction: "Keep the core subject and mood of this reference but reinterpret it freely with a new composition and styling.",
		Focus:       "the core subject and its emotional tone",
	},
	SubjectOnly: {
		Key:         "subject_only",
		Label:       "subject only",
		Include:     []Category{Subject},
		Exclude:     []Category{Style, Lighting, Palette, Composition, Mood, Texture, Genre},
		Instruction: "Take only the subject from this reference (identity, clothing, defining features); disregard its style, lighting, palette and composition.",
		Focus:       "the subject's identity and defining features",
	},
	StyleOnly: {
		Key:         "style_only",
		Label:       "style only",
		Include:     []Category{Style, Palette, Lighting, Texture, Mood},
		Exclude:     []Category{Subject, Composition},
		Instruction: "Adopt the artistic style of this reference (medium, rendering, palette, lighting mood) and disregard its subject and composition.",
		Focus:       "artistic style, medium and palette",
	},
	LightingOnly: {
		Key:         "lighting_only",
		Label:       "lighting only",
		Include:     []Category{Lighting, Mood},
		Exclude:     []Category{Subject, Style, Palette, Composition, Texture, Genre},
		Instruction: "Match only the lighting of this reference (direction, quality, contrast); disregard its subject, style and composition.",
		Focus:       "light direction, quality and contrast",
	},
	CompositionOnly: {
		Key:         "composition",
		Label:       "composition",
		Include:     []Category{Composition},
		Exclude:     []Category{Subject, Style, Palette, Texture},
		Instruction: "Follow the composition of this reference (layout, framing, camera placement, depth) while keeping the base prompt's own subject and style.",
		Focus:       "layout, framing and depth",
	},
	GenreOnly: {
		Key:         "genre",
		Label:       "genre",
		Include:     []Category{Genre, Mood, Palette},
		Exclude:     []Category{Subject, Composition},
		Instruction: "Carry over the genre and atmosphere of this reference without copying its subject or composition.",
		Focus:       "genre cues and atmosphere",
	},
}

var directiveSynonyms = map[string]Directive{
	"":              DirectiveAuto,
	"auto":          DirectiveAuto,
	"none":          DirectiveNone,
	"off":           DirectiveNone,
	"ignore":        DirectiveNone,
	"recreate":      Recreate,
	"copy":          Recreate,
	"replicate":     Recreate,
	"reinterpret":   Reinterpret,
	"remix":         Reinterpret,
	"inspire":       Reinterpret,
	"subject":       SubjectOnly,
	"subject only":  SubjectOnly,
	"style":         StyleOnly,
	"style only":    StyleOnly,
	"lighting":      LightingOnly,
	"light":         LightingOnly,
	"lighting only": LightingOnly,
	"composition":   CompositionOnly,
	"layout":        CompositionOnly,
	"framing":       CompositionOnly,
	"genre":         GenreOnly,
	"mood":          GenreOnly,
}

// ParseDirective maps free-form directive text to a Directive. Anything it
// does not recognise is DirectiveAuto.
func ParseDirective(value string) Directive {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("_", " ", "-", " ").Replace(v)
	v = strings.Join(strings.Fields(v), " ")
	if d, ok := directiveSynonyms[v]; ok {
		return d
	}
	return DirectiveAuto
}

func (d Directive) Config() DirectiveConfig {
	if cfg, ok := directiveTable[d]; ok {
		return cfg
	}
	return directiveTable[DirectiveAuto]
}

func (d Directive) String() string {
	return d.Config().Key
}

func (c DirectiveConfig) includes(cat Category) bool {
	for _, x := range c.Include {
		if x == cat {
			return true
		}
	}
	return false
}

// DirectiveKeys lists the canonical directive keys in menu order.
func DirectiveKeys() []string {
	order := []Directive{DirectiveAuto, Recreate, Reinterpret, SubjectOnly, StyleOnly, LightingOnly, CompositionOnly, GenreOnly, DirectiveNone}
	out := make([]string, len(order))
	for i, d := range order {
		out[i] = d.String()
	}
	return out
}
