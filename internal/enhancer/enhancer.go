// Package enhancer runs one prompt enhancement end to end.
package enhancer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/compiler"
	"prompt-enhancer/internal/generate"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/normalize"
	"prompt-enhancer/internal/reference"
	"prompt-enhancer/internal/report"
	"prompt-enhancer/internal/seed"
	"prompt-enhancer/internal/settings"
	"prompt-enhancer/internal/syntax"
)

const DefaultScope = "default"

type Request struct {
	Prompt     string
	Platform   string
	Preset     string
	Controls   map[string]string
	References []reference.Input
	Keywords   []string
	Negatives  []string
	Seed       int64
	SeedMode   seed.Mode
	// Scope keys seed continuity. Empty means DefaultScope.
	Scope string
}

type Result struct {
	RequestID      string
	Positive       string
	Negative       string
	SettingsReport string
	Status         string
	VisionCaption  string
	SeedUsed       int64
	SeedMode       string
	System         string
	User           string
	Original       string
	Report         report.Report
	Metadata       map[string]string
}

type Options struct {
	Catalog *catalog.Catalog
	// Text builds the text backend; nil means every LLM step falls back.
	Text llm.Factory
	// Vision opens the captioning backend on demand. Optional.
	Vision      func(ctx context.Context) (llm.Captioner, error)
	Seeds       seed.Tracker
	Logger      *slog.Logger
	Timeout     time.Duration
	Temperature float64
}

type Enhancer struct {
	catalog *catalog.Catalog
	text    llm.Factory
	vision  func(ctx context.Context) (llm.Captioner, error)
	seeds   seed.Tracker
	logger  *slog.Logger
	orch    *generate.Orchestrator
}

func New(opts Options) (*Enhancer, error) {
	if opts.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Enhancer{
		catalog: opts.Catalog,
		text:    opts.Text,
		vision:  opts.Vision,
		seeds:   opts.Seeds,
		logger:  logger,
		orch: generate.New(generate.Options{
			Factory:     opts.Text,
			Logger:      logger,
			Timeout:     opts.Timeout,
			Temperature: opts.Temperature,
		}),
	}, nil
}

// Enhance never returns an error: every failing step degrades and shows up
// in Result.Status instead.
func (e *Enhancer) Enhance(ctx context.Context, req Request) Result {
	requestID := uuid.NewString()
	log := e.logger.With("request_id", requestID)
	started := time.Now()

	resolved := e.resolveSeed(ctx, req, log)
	rng := seed.Rand(resolved.Seed)

	original := strings.TrimSpace(req.Prompt)
	text := syntax.ResolveAlternations(original, rng)
	protected, emphasis := syntax.Protect(text)

	profile := e.catalog.Platform(req.Platform)
	preset := e.catalog.Preset(req.Preset)
	res := settings.Resolve(req.Controls, profile, e.catalog, rng)

	var randomElements map[string]string
	if preset.RandomElements {
		randomElements = catalog.RandomElements(rng)
	}

	var gen llm.Generator
	if e.text != nil {
		g, err := e.text(ctx, false)
		if err != nil {
			log.Warn("text backend unavailable", "err", err)
		} else {
			gen = g
		}
	}

	refs := e.direct(ctx, req.References, gen, log)

	prompt := compiler.Compile(compiler.Input{
		Base:           protected,
		Profile:        profile,
		Preset:         preset,
		Settings:       res,
		References:     refs,
		Brainstorm:     compiler.Brainstorm(res.Creativity(), rng),
		RandomElements: randomElements,
	})

	model := ""
	if gen != nil {
		model = gen.Model()
	}
	budget := generate.Budget(profile, res.Creativity(), model)
	out := e.orch.Generate(ctx, prompt, budget)

	norm := normalize.Normalize(normalize.Input{
		Raw:      out.Text,
		Base:     protected,
		Profile:  profile,
		Settings: res,
		Details:  refs.Details,
		Keywords: req.Keywords,
		Emphasis: emphasis,
		Pools:    e.catalog,
	})
	positive := norm.Text
	if positive == "" {
		positive = emphasis.Restore(protected)
	}

	rep := report.Build(report.Input{
		RequestID:  requestID,
		Profile:    profile,
		Preset:     preset,
		Settings:   res,
		Seed:       resolved,
		Generation: out,
		Normalized: norm,
		References: refs,
	})

	result := Result{
		RequestID:      requestID,
		Positive:       positive,
		Negative:       e.catalog.Negative(profile, preset, req.Negatives),
		SettingsReport: rep.SettingsText(),
		Status:         rep.Status(),
		VisionCaption:  strings.Join(refs.Captions, "\n"),
		SeedUsed:       resolved.Seed,
		SeedMode:       resolved.Mode.String(),
		System:         prompt.System,
		User:           prompt.User,
		Original:       original,
		Report:         rep,
	}
	result.Metadata = metadata(result, profile, preset, out, res)

	log.Info("enhancement finished",
		"platform", profile.Key,
		"main_ok", out.OK(),
		"attempts", len(out.Attempts),
		"fallback", norm.FallbackUsed,
		"padded", norm.Padded,
		"words", norm.Words,
		"duration", time.Since(started),
	)
	return result
}

func (e *Enhancer) resolveSeed(ctx context.Context, req Request, log *slog.Logger) seed.Resolved {
	scope := req.Scope
	if scope == "" {
		scope = DefaultScope
	}
	if e.seeds != nil {
		r, err := e.seeds.Advance(ctx, scope, req.Seed, req.SeedMode)
		if err == nil {
			return r
		}
		log.Warn("seed tracker failed, resolving without history", "scope", scope, "err", err)
	}
	now := uint64(time.Now().UnixNano())
	return seed.Next(seed.State{}, req.Seed, req.SeedMode, rand.New(rand.NewPCG(now, now>>7)))
}

func (e *Enhancer) direct(ctx context.Context, refs []reference.Input, gen llm.Generator, log *slog.Logger) reference.Outcome {
	if !hasReference(refs) {
		return reference.Outcome{Mode: reference.ModeSequential}
	}

	var vision llm.Captioner
	if e.vision != nil && hasImage(refs) {
		v, err := e.vision(ctx)
		if err != nil {
			log.Warn("vision backend unavailable", "err", err)
		} else {
			vision = v
		}
	}

	d := reference.New(reference.Options{Text: gen, Vision: vision, Logger: log})
	return d.Direct(ctx, refs)
}

func hasReference(refs []reference.Input) bool {
	for _, r := range refs {
		if r.Image != nil || strings.TrimSpace(r.CaptionOverride) != "" {
			return true
		}
	}
	return false
}

func hasImage(refs []reference.Input) bool {
	for _, r := range refs {
		if r.Image != nil {
			return true
		}
	}
	return false
}

func metadata(r Result, profile catalog.Profile, preset catalog.Preset, out generate.Output, res settings.Resolution) map[string]string {
	md := map[string]string{
		"request_id":    r.RequestID,
		"platform":      string(profile.Key),
		"platform_name": profile.Name,
		"preset":        preset.Key,
		"seed":          strconv.FormatInt(r.SeedUsed, 10),
		"seed_mode":     r.SeedMode,
		"status":        r.Status,
		"words":         strconv.Itoa(normalize.WordCount(r.Positive)),
	}
	if c := res.Creativity(); c != "" {
		md["creativity"] = c
	}
	if out.Backend != "" {
		md["backend"] = out.Backend
	}
	if out.Model != "" {
		md["model"] = out.Model
	}
	return md
}
