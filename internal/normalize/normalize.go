// Package normalize turns raw backend text into the final positive prompt,
// falling back to a deterministic synthesis when the text is unusable.
package normalize

import (
	"strings"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/settings"
	"prompt-enhancer/internal/syntax"
)

// Character floors below which backend text is replaced by the fallback.
const (
	VideoCharFloor = 50
	ImageCharFloor = 20
)

type Input struct {
	Raw string
	// Base is the user's text after alternation and protection, so it may
	// hold emphasis placeholders.
	Base     string
	Profile  catalog.Profile
	Settings settings.Resolution
	Details  []string
	Keywords []string
	Emphasis *syntax.Store
	Pools    settings.Pools
}

type Result struct {
	Text            string
	Cleaned         string
	FallbackUsed    bool
	Padded          bool
	Padding         []string
	Mentions        map[string]string
	DroppedEmphasis []string
	Words           int
}

func CharFloor(p catalog.Profile) int {
	if p.Flow == catalog.FlowVideo {
		return VideoCharFloor
	}
	return ImageCharFloor
}

func Normalize(in Input) Result {
	var res Result
	res.Cleaned = Clean(in.Raw)

	clauses := in.Settings.Clauses()
	details := uniq(in.Details)

	text := res.Cleaned
	if len([]rune(text)) < CharFloor(in.Profile) {
		text = Fallback(in.Base, in.Raw, in.Profile, clauses, details)
		res.FallbackUsed = true
	}

	if floor := in.Profile.WordFloor(); floor > 0 {
		var added []string
		text, added = pad(text, floor, append(append([]string(nil), clauses...), details...))
		if len(added) > 0 {
			res.Padded = true
			res.Padding = added
		}
	}

	if !res.FallbackUsed {
		res.DroppedEmphasis = in.Emphasis.Missing(text)
		if len(res.DroppedEmphasis) > 0 {
			text = joinClauses(text, res.DroppedEmphasis)
		}
	}
	text = in.Emphasis.Restore(text)

	text = InjectKeywords(text, in.Keywords, in.Profile)
	text = PrefixRequired(text, in.Profile.RequiredTokens)

	if in.Pools != nil && !res.FallbackUsed {
		res.Mentions = settings.InferMentions(text, in.Settings, in.Pools)
	}
	res.Text = strings.TrimSpace(text)
	res.Words = WordCount(res.Text)
	return res
}

// Fallback synthesises a prompt from material already on hand: required
// prefix tokens for tag platforms, the base text, setting clauses and
// reference detail tails. With nothing to add it returns the base, and with
// no base the raw backend text.
func Fallback(base, raw string, profile catalog.Profile, clauses, details []string) string {
	base = strings.TrimSpace(base)
	extra := append(append([]string(nil), clauses...), details...)

	if base == "" {
		if len(extra) > 0 {
			return joinClauses("", extra)
		}
		return strings.TrimSpace(raw)
	}
	if len(extra) == 0 {
		return base
	}

	text := joinClauses(base, extra)
	if profile.TagBased() && len(profile.RequiredTokens) > 0 {
		text = PrefixRequired(text, profile.RequiredTokens)
	}
	return text
}

// pad appends unused material until text reaches floor words or the
// material runs out. Pieces already present in text are skipped.
func pad(text string, floor int, material []string) (string, []string) {
	var added []string
	for _, m := range material {
		if WordCount(text) >= floor {
			break
		}
		if m == "" || strings.Contains(strings.ToLower(text), strings.ToLower(m)) {
			continue
		}
		text = joinClauses(text, []string{m})
		added = append(added, m)
	}
	return text, added
}

// InjectKeywords appends keywords not already present (case-insensitive),
// as underscore tags on tag platforms and plain phrases otherwise.
func InjectKeywords(text string, keywords []string, profile catalog.Profile) string {
	lower := strings.ToLower(text)
	var missing []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || strings.Contains(lower, strings.ToLower(kw)) {
			continue
		}
		if profile.TagBased() {
			tag := strings.ReplaceAll(kw, " ", "_")
			if strings.Contains(lower, strings.ToLower(tag)) {
				continue
			}
			kw = tag
		}
		missing = append(missing, kw)
	}
	if len(missing) == 0 {
		return text
	}
	return joinClauses(text, missing)
}

// PrefixRequired puts missing required tokens at the front, in order.
func PrefixRequired(text string, required []string) string {
	lower := strings.ToLower(text)
	var missing []string
	for _, tok := range required {
		if tok != "" && !strings.Contains(lower, strings.ToLower(tok)) {
			missing = append(missing, tok)
		}
	}
	if len(missing) == 0 {
		return text
	}
	if strings.TrimSpace(text) == "" {
		return strings.Join(missing, ", ")
	}
	return strings.Join(missing, ", ") + ", " + strings.TrimSpace(text)
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}

func joinClauses(text string, parts []string) string {
	text = strings.TrimRight(strings.TrimSpace(text), ",;.")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if text == "" {
			text = p
			continue
		}
		text += ", " + p
	}
	return text
}

func uniq(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
