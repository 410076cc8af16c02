// Package compiler assembles the system and user prompts sent to the text
// backend.
package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/settings"
)

type Input struct {
	Base           string
	Profile        catalog.Profile
	Preset         catalog.Preset
	Settings       settings.Resolution
	References     reference.Outcome
	Brainstorm     string
	RandomElements map[string]string
}

type Prompt struct {
	System string
	User   string
}

func Compile(in Input) Prompt {
	return Prompt{
		System: systemPrompt(in),
		User:   userPrompt(in),
	}
}

func systemPrompt(in Input) string {
	p := in.Profile

	var b strings.Builder
	b.Grow(4096)

	fmt.Fprintf(&b, "You are an expert prompt engineer for %s %s generation.\n\n", p.Name, flowNoun(p.Flow))

	b.WriteString("CRITICAL OUTPUT RULES:\n")
	b.WriteString("1. Output ONLY the final prompt text. No labels, explanations or meta-commentary.\n")
	b.WriteString("2. Do NOT start with phrases like \"Here is...\" or \"Prompt:\".\n")
	b.WriteString("3. Start directly with the description.\n")
	b.WriteString("4. Follow the platform format precisely.\n")
	b.WriteString("5. The user's subject is authoritative: keep every element of the base prompt, never replace or drop it.\n")
	if floor := p.WordFloor(); floor > 0 {
		fmt.Fprintf(&b, "6. Write at least %d words.\n", floor)
	}
	b.WriteString("\n")

	b.WriteString("TARGET PLATFORM: " + p.Name + "\n")
	b.WriteString("Description: " + p.Description + "\n")
	b.WriteString("Prompting Style: " + p.PromptStyle + "\n")
	b.WriteString("Optimal Length: " + p.OptimalLength + "\n")
	if target := catalog.LengthTarget(in.Settings.Value(catalog.LengthMode)); target != "" {
		b.WriteString("Target Length: " + target + "\n")
	}
	b.WriteString("\n")

	writeList(&b, "PLATFORM REQUIREMENTS", p.Preferences)

	if quality, _ := strconv.ParseBool(in.Settings.Value(catalog.QualityEmphasis)); quality && len(p.QualityTokens) > 0 {
		tokens := p.QualityTokens
		if len(tokens) > 8 {
			tokens = tokens[:8]
		}
		b.WriteString("QUALITY TOKENS (use appropriately): " + strings.Join(tokens, ", ") + "\n\n")
	}
	if len(p.RequiredTokens) > 0 {
		b.WriteString("REQUIRED TOKENS (must include): " + strings.Join(p.RequiredTokens, ", ") + "\n\n")
	}
	writeList(&b, "AVOID", p.Avoid)

	if genre, ok := in.Settings.Get(catalog.GenreStyle); ok && genre.Concrete() {
		fmt.Fprintf(&b, "STYLE/GENRE: %s - Infuse the prompt with %s\n\n", genre.Value, catalog.GenreGuidance(genre.Value))
	}

	if in.Preset.Key != "" && in.Preset.Key != catalog.DefaultPreset {
		fmt.Fprintf(&b, "PRESET: %s (%s)\n", in.Preset.Key, in.Preset.Description)
		if len(in.Preset.StyleHints) > 0 {
			hints := in.Preset.StyleHints
			if len(hints) > 4 {
				hints = hints[:4]
			}
			b.WriteString("Style keywords to incorporate: " + strings.Join(hints, ", ") + "\n")
		}
		writeSection(&b, "Camera", in.Preset.CameraPreferences)
		writeSection(&b, "Lighting", in.Preset.LightingPreferences)
		if p.Flow == catalog.FlowVideo {
			writeSection(&b, "Motion", in.Preset.MotionPreferences)
		}
		b.WriteString("\n")
	}

	if len(in.RandomElements) > 0 {
		b.WriteString("RANDOM ELEMENTS (work each one into the scene):\n")
		keys := make([]string, 0, len(in.RandomElements))
		for k := range in.RandomElements {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", settings.Label(k), in.RandomElements[k])
		}
		b.WriteString("\n")
	}

	if deferred := deferredLabels(in.Settings); len(deferred) > 0 {
		b.WriteString("OPEN CHOICES (pick whatever suits the scene best): " + strings.Join(deferred, ", ") + "\n\n")
	}

	if block := catalog.FamilyBlock(p.Family); block != "" {
		b.WriteString(block + "\n\n")
	}

	if refs := in.References.Instructions(); len(refs) > 0 {
		b.WriteString("REFERENCE IMAGES:\n")
		for _, line := range refs {
			b.WriteString("- " + line + "\n")
		}
		b.WriteString("- " + reference.Guardrail + "\n\n")
	}

	b.WriteString("CRITICAL OUTPUT REQUIREMENTS:\n")
	b.WriteString("- Output ONLY the final prompt text\n")
	b.WriteString("- DO NOT append \"Settings:\" or list the camera/lighting values\n")
	b.WriteString("- Incorporate settings naturally INTO the description\n")
	b.WriteString("- Start generating NOW (no preamble, no explanations)\n")

	return strings.TrimSpace(b.String())
}

func userPrompt(in Input) string {
	base := strings.TrimSpace(in.Base)
	parts := []string{
		"Base prompt: " + base,
		fmt.Sprintf("The final description must clearly feature %q without omission.", base),
	}

	var required []string
	for _, s := range in.Settings.Scene() {
		required = append(required, fmt.Sprintf("%s: %s", strings.ToLower(settings.Label(s.Key)), s.Value))
	}
	if len(required) > 0 {
		parts = append(parts, "Required settings to incorporate: "+strings.Join(required, "; "))
	}

	if target := catalog.LengthTarget(in.Settings.Value(catalog.LengthMode)); target != "" {
		line := "Target length: " + target
		if floor := in.Profile.WordFloor(); floor > 0 {
			line += fmt.Sprintf(", no fewer than %d words", floor)
		}
		parts = append(parts, line+".")
	}

	if len(in.References.Captions) > 0 {
		var b strings.Builder
		b.WriteString("Reference captions:\n")
		for _, c := range in.References.Captions {
			b.WriteString("  - " + c + "\n")
		}
		parts = append(parts, strings.TrimRight(b.String(), "\n"))
	}
	if g := strings.TrimSpace(in.References.Guidance); g != "" {
		parts = append(parts, "Reference guidance:\n"+g)
	}

	if bs := strings.TrimSpace(in.Brainstorm); bs != "" {
		parts = append(parts, "Creative direction: "+bs)
	}

	return strings.Join(parts, "\n\n")
}

func deferredLabels(res settings.Resolution) []string {
	var out []string
	for _, s := range res.Deferred() {
		out = append(out, strings.ToLower(settings.Label(s.Key)))
	}
	return out
}

func flowNoun(f catalog.Flow) string {
	if f == catalog.FlowVideo {
		return "video"
	}
	return "image"
}

func writeList(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(title + ":\n")
	for _, line := range lines {
		b.WriteString("- " + line + "\n")
	}
	b.WriteString("\n")
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("- " + title + ": " + strings.Join(lines, ", ") + "\n")
}
