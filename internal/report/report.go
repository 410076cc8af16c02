// Package report renders what happened during one enhancement: the settings
// with their provenance, the backend outcome and every degraded path.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/generate"
	"prompt-enhancer/internal/normalize"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/seed"
	"prompt-enhancer/internal/settings"
)

type Setting struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Source string `json:"source"`
	Chosen string `json:"llm_chose,omitempty"`
}

// Display is the human form of the value.
func (s Setting) Display() string {
	switch {
	case s.Source == settings.SourceAuto.String() && s.Chosen != "":
		return "auto → LLM chose " + s.Chosen
	case s.Source == settings.SourceAuto.String():
		return settings.AutoDisplay
	case s.Source == settings.SourceNone.String():
		return settings.ValueNone
	}
	return s.Value
}

type Attempt struct {
	Index     int    `json:"index"`
	Backend   string `json:"backend,omitempty"`
	MaxTokens int    `json:"max_tokens"`
	Reinit    bool   `json:"reinit"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

type Main struct {
	OK       bool      `json:"ok"`
	Backend  string    `json:"backend,omitempty"`
	Model    string    `json:"model,omitempty"`
	Budget   int       `json:"budget"`
	Planned  int       `json:"planned_attempts"`
	Attempts []Attempt `json:"attempts"`
	Error    string    `json:"error,omitempty"`
}

type References struct {
	Used            bool     `json:"used"`
	Mode            string   `json:"mode"`
	Invoked         bool     `json:"llm_invoked"`
	Issued          int      `json:"queries_issued"`
	Succeeded       int      `json:"queries_succeeded"`
	VisionIssued    int      `json:"vision_issued"`
	VisionSucceeded int      `json:"vision_succeeded"`
	Notes           []string `json:"notes,omitempty"`
	Captions        []string `json:"captions,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

type Report struct {
	RequestID    string     `json:"request_id,omitempty"`
	Platform     string     `json:"platform"`
	PlatformName string     `json:"platform_name"`
	PromptStyle  string     `json:"prompt_style"`
	Length       string     `json:"optimal_length"`
	Preset       string     `json:"preset"`
	Seed         int64      `json:"seed"`
	SeedMode     string     `json:"seed_mode"`
	Settings     []Setting  `json:"settings"`
	Notes        []string   `json:"notes,omitempty"`
	Main         Main       `json:"main"`
	Fallback     bool       `json:"fallback_used"`
	Padded       bool       `json:"density_padded"`
	Words        int        `json:"words"`
	References   References `json:"references"`
}

type Input struct {
	RequestID  string
	Profile    catalog.Profile
	Preset     catalog.Preset
	Settings   settings.Resolution
	Seed       seed.Resolved
	Generation generate.Output
	Normalized normalize.Result
	References reference.Outcome
}

func Build(in Input) Report {
	r := Report{
		RequestID:    in.RequestID,
		Platform:     string(in.Profile.Key),
		PlatformName: in.Profile.Name,
		PromptStyle:  in.Profile.PromptStyle,
		Length:       in.Profile.OptimalLength,
		Preset:       in.Preset.Key,
		Seed:         in.Seed.Seed,
		SeedMode:     in.Seed.Mode.String(),
		Notes:        append([]string(nil), in.Settings.Notes...),
		Fallback:     in.Normalized.FallbackUsed,
		Padded:       in.Normalized.Padded,
		Words:        in.Normalized.Words,
	}

	for _, s := range in.Settings.All() {
		r.Settings = append(r.Settings, Setting{
			Key:    s.Key,
			Label:  settings.Label(s.Key),
			Value:  s.Value,
			Source: s.Source.String(),
			Chosen: in.Normalized.Mentions[s.Key],
		})
	}

	g := in.Generation
	r.Main = Main{
		OK:      g.OK(),
		Backend: g.Backend,
		Model:   g.Model,
		Budget:  g.Budget,
		Planned: g.Planned,
	}
	for _, a := range g.Attempts {
		r.Main.Attempts = append(r.Main.Attempts, Attempt{
			Index:     a.Index,
			Backend:   a.Backend,
			MaxTokens: a.MaxTokens,
			Reinit:    a.Reinit,
			OK:        a.OK,
			Error:     a.ErrText(),
		})
	}
	if g.Err != nil {
		r.Main.Error = g.Err.Error()
	}

	ref := in.References
	r.References = References{
		Used:            ref.Used(),
		Mode:            ref.Mode,
		Invoked:         ref.LLMInvoked,
		Issued:          ref.Metrics.Issued,
		Succeeded:       ref.Metrics.Succeeded,
		VisionIssued:    ref.Metrics.VisionIssued,
		VisionSucceeded: ref.Metrics.VisionSucceeded,
		Notes:           append([]string(nil), ref.Notes...),
		Captions:        append([]string(nil), ref.Captions...),
		Warnings:        append([]string(nil), ref.Warnings...),
	}
	if r.References.Mode == "" {
		r.References.Mode = reference.ModeSequential
	}
	return r
}

// Status is the one-line summary. Every degraded path shows up in it.
func (r Report) Status() string {
	var parts []string

	if r.Main.OK {
		n := len(r.Main.Attempts)
		for _, a := range r.Main.Attempts {
			if a.OK {
				n = a.Index
			}
		}
		parts = append(parts, fmt.Sprintf("Main LLM: ok (%s, attempt %d/%d)", r.Main.Backend, n, r.Main.Planned))
	} else {
		parts = append(parts, fmt.Sprintf("Main LLM: failed (%s)", r.Main.Error))
	}
	if r.Fallback {
		parts = append(parts, "Fallback detail applied")
	}
	if r.Padded {
		parts = append(parts, "Density padding applied")
	}

	ref := r.References
	if ref.Used || len(ref.Warnings) > 0 {
		if ref.Invoked {
			parts = append(parts, fmt.Sprintf("Reference LLM: %d/%d succeeded", ref.Succeeded, ref.Issued))
		} else {
			parts = append(parts, fmt.Sprintf("Reference LLM: not invoked (%s)", ref.Mode))
		}
		if ref.VisionIssued > 0 {
			parts = append(parts, fmt.Sprintf("Vision: %d/%d captions", ref.VisionSucceeded, ref.VisionIssued))
		}
		if len(ref.Warnings) > 0 {
			parts = append(parts, "Reference warnings: "+strings.Join(ref.Warnings, "; "))
		}
	}

	parts = append(parts, fmt.Sprintf("Seed: %d (%s)", r.Seed, r.SeedMode))
	return strings.Join(parts, " | ")
}

const rule = "============================================================"

// SettingsText is the human-readable settings report.
func (r Report) SettingsText() string {
	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("PROMPT ENHANCEMENT\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Target Platform: %s\n", r.PlatformName)
	fmt.Fprintf(&b, "Prompting Style: %s\n", r.PromptStyle)
	fmt.Fprintf(&b, "Optimal Length: %s\n", r.Length)
	fmt.Fprintf(&b, "Preset: %s\n", r.Preset)

	b.WriteString("\nSETTINGS APPLIED:\n")
	for _, s := range r.Settings {
		fmt.Fprintf(&b, "  - %s: %s [%s]\n", s.Label, s.Display(), s.Source)
	}

	if len(r.References.Notes) > 0 || len(r.References.Captions) > 0 {
		b.WriteString("\nREFERENCES:\n")
		for _, n := range r.References.Notes {
			b.WriteString("  - " + n + "\n")
		}
		for _, c := range r.References.Captions {
			b.WriteString("  - " + c + "\n")
		}
	}
	if len(r.Notes) > 0 {
		b.WriteString("\nNOTES:\n")
		for _, n := range r.Notes {
			b.WriteString("  - " + n + "\n")
		}
	}
	b.WriteString("\n" + rule)
	return b.String()
}

func (r Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return data, nil
}
