package normalize

import (
	"regexp"
	"strings"
)

var preambles = []string{
	"here is the enhanced prompt:", "here's the enhanced prompt:",
	"here is the expanded prompt:", "here's the expanded prompt:",
	"here is the prompt:", "here's the prompt:",
	"here is:", "here's:",
	"enhanced prompt:", "expanded prompt:", "generated prompt:",
	"final prompt:", "prompt:", "output:", "result:",
}

var (
	fenceRe       = regexp.MustCompile("(?m)^\\s*```[\\w-]*\\s*$")
	settingsTail  = regexp.MustCompile(`(?i)\s*\|\s*settings:[^\n]*$`)
	settingsTail2 = regexp.MustCompile(`(?i)(?:^|([.!?])|\n)\s*settings:[^\n]*$`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

// Clean strips the wrapping an LLM tends to add around a prompt: leading
// preambles, code fences, surrounding quotes and an echoed settings list.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))

	for stripped := true; stripped; {
		stripped = false
		lower := strings.ToLower(text)
		for _, p := range preambles {
			if strings.HasPrefix(lower, p) {
				text = strings.TrimSpace(text[len(p):])
				stripped = true
				break
			}
		}
	}

	for _, q := range []string{`"`, `'`, "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(text) >= len(q)+len(closing) && strings.HasPrefix(text, q) && strings.HasSuffix(text, closing) {
			text = strings.TrimSpace(text[len(q) : len(text)-len(closing)])
		}
	}

	text = settingsTail.ReplaceAllString(text, "")
	text = settingsTail2.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "|"))
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
