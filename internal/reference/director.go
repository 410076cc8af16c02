// Package reference turns up to two reference images, each bound to a usage
// directive, into prompt guidance that does not repeat itself.
package reference

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/retry"
)

const (
	MaxReferences  = 2
	ModeSequential = "sequential_refine"

	Guardrail = "Never mention image dimensions, pixel sizes, resolution or aspect ratio."

	defaultMaxTokens = 220
	refineFloor      = 120
	captionMaxTokens = 320
)

// Input is one reference as supplied by the caller.
type Input struct {
	// Index is the 1-based slot the reference came from. Zero means its
	// position in the list.
	Index           int
	Image           *llm.Image
	Directive       string
	CaptionOverride string
}

// Analysis is everything learned about one reference.
type Analysis struct {
	Index             int
	Label             string
	Directive         Directive
	Heuristics        *Heuristics
	VisionCaption     string
	CaptionSource     string
	CategoryNotes     map[Category]string
	DirectiveAnalysis string
	Warnings          []string
	Skipped           bool
}

// Summary is the canonical description: the caption when there is one,
// otherwise the heuristic summary.
func (a Analysis) Summary() string {
	if a.VisionCaption != "" {
		return a.VisionCaption
	}
	if a.Heuristics != nil {
		return a.Heuristics.summary()
	}
	return ""
}

type Metrics struct {
	Issued          int
	Succeeded       int
	VisionIssued    int
	VisionSucceeded int
}

type Outcome struct {
	Guidance   string
	Blocks     []string
	Notes      []string
	Captions   []string
	Details    []string
	Analyses   []Analysis
	Warnings   []string
	Metrics    Metrics
	Mode       string
	LLMInvoked bool
}

// Instructions returns the directive instruction of every used reference,
// for restating in the system prompt.
func (o Outcome) Instructions() []string {
	var out []string
	for _, a := range o.Analyses {
		if a.Skipped {
			continue
		}
		out = append(out, fmt.Sprintf("%s (%s): %s", a.Label, a.Directive.Config().Label, a.Directive.Config().Instruction))
	}
	return out
}

func (o Outcome) Used() bool {
	for _, a := range o.Analyses {
		if !a.Skipped {
			return true
		}
	}
	return false
}

type Options struct {
	Text      llm.Generator
	Vision    llm.Captioner
	Logger    *slog.Logger
	MaxTokens int
}

type Director struct {
	text      llm.Generator
	vision    llm.Captioner
	logger    *slog.Logger
	maxTokens int
}

func New(opts Options) *Director {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Director{
		text:      opts.Text,
		vision:    opts.Vision,
		logger:    logger,
		maxTokens: maxTokens,
	}
}

// Direct analyses and composes guidance for refs strictly in order. No step
// failure aborts the run; each one degrades to its template and leaves a
// warning.
func (d *Director) Direct(ctx context.Context, refs []Input) Outcome {
	out := Outcome{Mode: ModeSequential}
	if len(refs) > MaxReferences {
		out.Warnings = append(out.Warnings, fmt.Sprintf("only the first %d references are used; %d ignored", MaxReferences, len(refs)-MaxReferences))
		refs = refs[:MaxReferences]
	}

	var prior []string
	for i, ref := range refs {
		index := i + 1
		if ref.Index > 0 {
			index = ref.Index
		}
		a := d.analyze(ctx, index, ref, &out.Metrics)
		if !a.Skipped {
			d.directiveAnalysis(ctx, &a, &out)

			block, viaLLM := d.compose(ctx, a, prior, &out)
			prior = append(prior, block)
			out.Blocks = append(out.Blocks, block)

			if a.VisionCaption != "" {
				out.Captions = append(out.Captions, fmt.Sprintf("%s caption: %s", a.Label, a.VisionCaption))
			}
			out.Details = append(out.Details, details(a)...)
			out.Notes = append(out.Notes, note(a, viaLLM))
		} else if ref.Image != nil || strings.TrimSpace(ref.CaptionOverride) != "" {
			out.Notes = append(out.Notes, fmt.Sprintf("%s: directive none, not used", a.Label))
		}
		out.Warnings = append(out.Warnings, a.Warnings...)
		out.Analyses = append(out.Analyses, a)
	}

	out.Guidance = strings.Join(out.Blocks, "\n\n")
	return out
}

func (d *Director) analyze(ctx context.Context, index int, ref Input, m *Metrics) Analysis {
	a := Analysis{
		Index:         index,
		Label:         fmt.Sprintf("Reference %d", index),
		Directive:     ParseDirective(ref.Directive),
		CategoryNotes: make(map[Category]string),
	}
	override := strings.TrimSpace(ref.CaptionOverride)

	if ref.Image == nil && override == "" {
		a.Skipped = true
		return a
	}
	if a.Directive == DirectiveNone {
		a.Skipped = true
		return a
	}
	if raw := strings.TrimSpace(ref.Directive); raw != "" && !knownDirective(raw) {
		a.Warnings = append(a.Warnings, fmt.Sprintf("%s: unknown directive %q, using auto", a.Label, raw))
	}

	if ref.Image == nil {
		a.VisionCaption = override
		a.CaptionSource = "override"
		a.applyCaption()
		a.Warnings = append(a.Warnings, fmt.Sprintf("%s: no image supplied, analysis based on caption override only", a.Label))
		return a
	}

	img, _, err := Decode(ref.Image.Data)
	if err != nil {
		a.Warnings = append(a.Warnings, fmt.Sprintf("%s: %v", a.Label, err))
	} else {
		h := Analyze(img)
		a.Heuristics = &h
		for cat, text := range h.notes() {
			a.CategoryNotes[cat] = text
		}
	}

	switch {
	case override != "":
		a.VisionCaption = override
		a.CaptionSource = "override"
	case d.vision != nil:
		m.VisionIssued++
		caption, err := d.vision.Caption(ctx, *ref.Image, captionInstruction(a.Directive), captionMaxTokens)
		if err != nil {
			a.Warnings = append(a.Warnings, fmt.Sprintf("%s: vision caption failed (%v), using heuristics", a.Label, err))
			d.logger.Warn("vision caption failed", "reference", index, "err", err)
			break
		}
		m.VisionSucceeded++
		a.VisionCaption = scrubMetadata(caption)
		a.CaptionSource = "vision"
	}

	if a.VisionCaption != "" {
		a.applyCaption()
	}
	if a.Heuristics == nil && a.VisionCaption == "" {
		a.Warnings = append(a.Warnings, fmt.Sprintf("%s: nothing could be learned from the image", a.Label))
		a.Skipped = true
	}
	return a
}

func captionInstruction(dir Directive) string {
	return "Describe this image for an image-generation prompt: main subject, setting, artistic style and medium, lighting, colour palette, composition and mood. " +
		"Pay particular attention to " + dir.Config().Focus + ". " +
		"Be concise and output only the description. " + Guardrail
}

func (d *Director) directiveAnalysis(ctx context.Context, a *Analysis, out *Outcome) {
	cfg := a.Directive.Config()
	fallback := fmt.Sprintf("Focus on %s: %s.", cfg.Focus, strings.TrimSuffix(a.Summary(), "."))
	if d.text == nil {
		a.DirectiveAnalysis = fallback
		return
	}

	user := fmt.Sprintf(`Reference description: %s

Directive: %s. %s

In at most two sentences, summarize how to use this reference given the directive. Do not mention pixel dimensions, aspect ratio or resolution.`,
		a.Summary(), cfg.Label, cfg.Instruction)

	text, err := d.call(ctx, "You analyze reference images for an image prompt writer. Reply with plain sentences only.", user, out)
	if err != nil {
		a.Warnings = append(a.Warnings, fmt.Sprintf("%s: directive analysis failed (%v), using template", a.Label, err))
		a.DirectiveAnalysis = fallback
		return
	}
	a.DirectiveAnalysis = firstSentences(scrubMetadata(text), 2)
	if a.DirectiveAnalysis == "" {
		a.DirectiveAnalysis = fallback
	}
}

// compose writes the guidance block for one reference. The LLM sees every
// earlier block so it can avoid reusing their wording.
func (d *Director) compose(ctx context.Context, a Analysis, prior []string, out *Outcome) (string, bool) {
	cfg := a.Directive.Config()
	head := fmt.Sprintf("%s (%s). Focus: %s.", a.Label, cfg.Label, cfg.Focus)

	if d.text != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "%s directive: %s\n", a.Label, cfg.Instruction)
		fmt.Fprintf(&b, "Analysis: %s\n", a.DirectiveAnalysis)
		if lines := includedNotes(a); len(lines) > 0 {
			fmt.Fprintf(&b, "Traits to use: %s\n", strings.Join(lines, "; "))
		}
		if len(cfg.Exclude) > 0 {
			fmt.Fprintf(&b, "Traits to ignore: %s\n", categoryList(cfg.Exclude))
		}
		if len(prior) > 0 {
			b.WriteString("\nGuidance already written for earlier references:\n")
			for _, p := range prior {
				b.WriteString(p)
				b.WriteString("\n")
			}
			b.WriteString("\nDo not repeat any wording from the guidance above.\n")
		}
		b.WriteString("\nWrite one to three sentences of guidance for this reference only.")

		text, err := d.call(ctx, "You write concise reference-usage guidance for an image prompt writer. Output only the guidance.", b.String(), out)
		if err == nil {
			text = scrubMetadata(text)
		}
		if err == nil && text != "" && !repeats(text, prior) {
			return head + " " + text + " " + Guardrail, true
		}
		if err == nil {
			err = fmt.Errorf("refinement repeated earlier guidance")
		}
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: sequential refine failed (%v), using template", a.Label, err))
	}

	return head + " " + template(a, len(prior)) + " " + Guardrail, false
}

var (
	carryLeads = []string{"Carry over", "Also borrow", "Additionally take"}
	avoidLeads = []string{"Avoid copying", "Leave out", "Do not reuse"}
)

// template is the no-LLM guidance. Later references get different lead-ins
// so two similar references never read the same.
func template(a Analysis, position int) string {
	cfg := a.Directive.Config()
	parts := []string{cfg.Instruction}

	if position > 0 {
		parts = append(parts, fmt.Sprintf("Building on the earlier reference, %s", lowerFirst(a.DirectiveAnalysis)))
	} else if a.DirectiveAnalysis != "" {
		parts = append(parts, a.DirectiveAnalysis)
	}

	if lines := includedNotes(a); len(lines) > 0 {
		lead := carryLeads[min(position, len(carryLeads)-1)]
		parts = append(parts, fmt.Sprintf("%s: %s.", lead, strings.Join(lines, "; ")))
	}
	if len(cfg.Exclude) > 0 {
		lead := avoidLeads[min(position, len(avoidLeads)-1)]
		parts = append(parts, fmt.Sprintf("%s: %s.", lead, categoryList(cfg.Exclude)))
	}
	return strings.Join(parts, " ")
}

func (d *Director) call(ctx context.Context, system, user string, out *Outcome) (string, error) {
	out.LLMInvoked = true
	text, attempts, err := retry.Do(ctx, retry.Plan(d.maxTokens, refineFloor), func(ctx context.Context, at *retry.Attempt) (string, error) {
		at.Backend = d.text.Name()
		return d.text.Generate(ctx, llm.Request{System: system, User: user, MaxTokens: at.MaxTokens})
	})
	out.Metrics.Issued += len(attempts)
	for _, at := range attempts {
		if at.OK {
			out.Metrics.Succeeded++
		}
	}
	if err != nil {
		d.logger.Warn("reference llm call failed", "attempts", len(attempts), "err", err)
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// applyCaption makes the caption the note for every category the directive
// uses. The heuristic notes it replaces survive only as details.
func (a *Analysis) applyCaption() {
	for _, cat := range a.Directive.Config().Include {
		a.CategoryNotes[cat] = a.VisionCaption
	}
	a.CategoryNotes[Subject] = a.VisionCaption
}

// includedNotes lists the notes for the categories the directive uses, in a
// fixed order. Categories sharing a note (the caption) are folded into one
// line.
func includedNotes(a Analysis) []string {
	cfg := a.Directive.Config()
	var texts []string
	cats := make(map[string][]string)
	for _, cat := range allCategories {
		if !cfg.includes(cat) {
			continue
		}
		text := a.CategoryNotes[cat]
		if text == "" {
			continue
		}
		if _, seen := cats[text]; !seen {
			texts = append(texts, text)
		}
		cats[text] = append(cats[text], string(cat))
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = strings.Join(cats[text], ", ") + ": " + text
	}
	return out
}

// details are the free-text tails the normalizer may use as padding. Where
// the caption took over a category, the heuristic note is used instead.
func details(a Analysis) []string {
	cfg := a.Directive.Config()
	var heuristic map[Category]string
	if a.Heuristics != nil {
		heuristic = a.Heuristics.notes()
	}

	var out []string
	for _, cat := range allCategories {
		if !cfg.includes(cat) || cat == Subject || cat == Composition {
			continue
		}
		text := a.CategoryNotes[cat]
		if a.VisionCaption != "" && text == a.VisionCaption {
			text = heuristic[cat]
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

func note(a Analysis, viaLLM bool) string {
	cfg := a.Directive.Config()
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", a.Label, cfg.Label)
	if a.Heuristics != nil {
		h := a.Heuristics
		fmt.Fprintf(&b, ": %s, %s", h.Brightness, h.Contrast)
		if len(h.Palette) > 0 {
			fmt.Fprintf(&b, ", palette %s", strings.Join(h.Palette, "/"))
		}
		fmt.Fprintf(&b, ", %s, suggests %s", h.Temperature, h.Genre)
	}
	switch a.CaptionSource {
	case "vision":
		b.WriteString("; vision caption used")
	case "override":
		b.WriteString("; caption override used")
	}
	if viaLLM {
		b.WriteString("; guidance refined by LLM")
	} else {
		b.WriteString("; template guidance")
	}
	return b.String()
}

func knownDirective(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("_", " ", "-", " ").Replace(v)
	_, ok := directiveSynonyms[strings.Join(strings.Fields(v), " ")]
	return ok
}

func categoryList(cats []Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return joinAnd(names)
}

var (
	dimensionRe   = regexp.MustCompile(`\b\d{2,5}\s*[x×]\s*\d{2,5}\b`)
	metadataWords = regexp.MustCompile(`(?i)\b(aspect ratio|resolution|pixels?|megapixels?)\b`)
	sentenceEnd   = regexp.MustCompile(`[.!?](\s+|$)`)
)

// scrubMetadata drops sentences that talk about image size.
func scrubMetadata(text string) string {
	var kept []string
	for _, s := range sentences(text) {
		if dimensionRe.MatchString(s) || metadataWords.MatchString(s) {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, " ")
}

func sentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, strings.TrimSpace(text[start:loc[0]+1]))
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func firstSentences(text string, n int) string {
	s := sentences(text)
	if len(s) > n {
		s = s[:n]
	}
	return strings.Join(s, " ")
}

// repeats reports whether text reuses a whole sentence of earlier guidance.
func repeats(text string, prior []string) bool {
	for _, s := range sentences(text) {
		if len(s) < 24 || s == Guardrail {
			continue
		}
		for _, p := range prior {
			if strings.Contains(p, s) {
				return true
			}
		}
	}
	return false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
