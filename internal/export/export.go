// Package export writes enhancement results to timestamped text files for
// hosts that want a record on disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"prompt-enhancer/internal/enhancer"
)

const maxBaseLen = 50

var (
	separator   = strings.Repeat("=", 70)
	invalidName = regexp.MustCompile(`[<>:"/\\|?*]`)
)

// metadataOrder puts the interesting keys first; anything else follows
// sorted.
var metadataOrder = []string{
	"request_id", "platform", "platform_name", "preset", "creativity",
	"backend", "model", "seed", "seed_mode", "words", "status",
}

var metadataLabels = map[string]string{
	"request_id":    "Request ID",
	"platform":      "Platform",
	"platform_name": "Platform Name",
	"preset":        "Preset",
	"creativity":    "Creativity",
	"backend":       "LLM Backend",
	"model":         "Model",
	"seed":          "Seed",
	"seed_mode":     "Seed Mode",
	"words":         "Words",
	"status":        "Status",
}

func Format(r enhancer.Result, now time.Time) string {
	var b strings.Builder
	b.WriteString(separator + "\n")
	b.WriteString("PROMPT ENHANCER - GENERATED PROMPTS\n")
	b.WriteString("Generated: " + now.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(separator + "\n\n")

	section(&b, "POSITIVE PROMPT", r.Positive)
	section(&b, "NEGATIVE PROMPT", r.Negative)
	section(&b, "BREAKDOWN", r.SettingsReport)

	b.WriteString("METADATA:\n")
	for _, k := range metadataKeys(r.Metadata) {
		label, ok := metadataLabels[k]
		if !ok {
			label = k
		}
		fmt.Fprintf(&b, "%s: %s\n", label, r.Metadata[k])
	}
	b.WriteString("\n" + separator + "\n\n")

	original := r.Original
	if original == "" {
		original = "N/A"
	}
	section(&b, "ORIGINAL INPUT", original)
	return b.String()
}

func section(b *strings.Builder, title, body string) {
	b.WriteString(title + ":\n")
	b.WriteString(body + "\n\n")
	b.WriteString(separator + "\n\n")
}

func metadataKeys(md map[string]string) []string {
	seen := make(map[string]bool, len(md))
	var out []string
	for _, k := range metadataOrder {
		if _, ok := md[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range md {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// FileName builds "<base>_YYYYmmdd_HHMMSS.txt" from a sanitised base.
func FileName(base string, now time.Time) string {
	return SanitizeName(base) + "_" + now.Format("20060102_150405") + ".txt"
}

func SanitizeName(name string) string {
	name = invalidName.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, " ", "_")
	if r := []rune(name); len(r) > maxBaseLen {
		name = string(r[:maxBaseLen])
	}
	if name == "" {
		name = "prompt"
	}
	return name
}

// Save writes the formatted result into dir and returns the file path.
func Save(dir, base string, r enhancer.Result, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create save dir: %w", err)
	}
	path := filepath.Join(dir, FileName(base, now))
	if err := os.WriteFile(path, []byte(Format(r, now)), 0o644); err != nil {
		return "", fmt.Errorf("write prompt file: %w", err)
	}
	return path, nil
}

// ParseKeywords splits a comma-separated list, dropping blanks.
func ParseKeywords(csv string) []string {
	var out []string
	for _, kw := range strings.Split(csv, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
