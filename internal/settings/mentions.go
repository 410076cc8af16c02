package settings

import (
	"regexp"
	"sort"
	"strings"

	"prompt-enhancer/internal/catalog"
)

func containsPhrase(text, phrase string) bool {
	re, err := regexp.Compile(`(?i)(^|[^\pL\pN])` + regexp.QuoteMeta(phrase) + `($|[^\pL\pN])`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// InferMentions scans text for options of every deferred setting and returns
// key -> option for the ones the LLM appears to have picked. Longer options
// win, and aliases count for their target option.
func InferMentions(text string, res Resolution, pools Pools) map[string]string {
	out := make(map[string]string)
	if strings.TrimSpace(text) == "" {
		return out
	}

	for _, s := range res.Deferred() {
		pool := pools.Pool(s.Key)
		if len(pool) == 0 {
			continue
		}
		candidates := make(map[string]string, len(pool))
		for _, opt := range pool {
			candidates[opt] = opt
		}
		for alias, target := range catalog.Aliases {
			for _, opt := range pool {
				if strings.EqualFold(opt, target) {
					candidates[alias] = opt
				}
			}
		}

		phrases := make([]string, 0, len(candidates))
		for p := range candidates {
			phrases = append(phrases, p)
		}
		sort.Slice(phrases, func(i, j int) bool {
			if len(phrases[i]) != len(phrases[j]) {
				return len(phrases[i]) > len(phrases[j])
			}
			return phrases[i] < phrases[j]
		})

		for _, p := range phrases {
			if containsPhrase(text, p) {
				out[s.Key] = candidates[p]
				break
			}
		}
	}
	return out
}
