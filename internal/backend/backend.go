// Package backend assembles the configured text and vision backends.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"prompt-enhancer/internal/gemini"
	"prompt-enhancer/internal/llm"
)

type Config struct {
	Kind              llm.Kind
	Endpoint          string
	Model             string
	Temperature       float64
	RequestsPerSecond float64

	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	GeminiAPIVersion string
}

type Options struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Models     *llm.ModelCache
}

// Set is a constructed backend's shared pieces: the limiter and model cache
// survive re-initialisation.
type Set struct {
	cfg     Config
	opts    Options
	limiter *rate.Limiter
}

func New(cfg Config, opts Options) *Set {
	if opts.Models == nil {
		opts.Models = llm.NewModelCache(5 * time.Minute)
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Set{cfg: cfg, opts: opts, limiter: limiter}
}

func (s *Set) Kind() llm.Kind { return s.cfg.Kind }

// Factory returns an llm.Factory bound to this configuration.
func (s *Set) Factory() llm.Factory {
	return func(ctx context.Context, fresh bool) (llm.Generator, error) {
		b, err := s.open(ctx, fresh)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// Captioner opens the backend for vision use.
func (s *Set) Captioner(ctx context.Context) (llm.Captioner, error) {
	b, err := s.open(ctx, false)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type backend interface {
	llm.Generator
	llm.Captioner
	Ping(ctx context.Context) error
}

func (s *Set) open(ctx context.Context, fresh bool) (backend, error) {
	var (
		b   backend
		err error
	)
	switch s.cfg.Kind {
	case llm.Gemini:
		b, err = gemini.New(ctx, gemini.Options{
			APIKey:      s.cfg.GeminiAPIKey,
			BaseURL:     s.cfg.GeminiBaseURL,
			APIVersion:  s.cfg.GeminiAPIVersion,
			TextModel:   firstNonEmpty(s.cfg.Model, s.cfg.GeminiModel),
			VisionModel: firstNonEmpty(s.cfg.Model, s.cfg.GeminiModel),
			Temperature: s.cfg.Temperature,
			HTTPClient:  s.opts.HTTPClient,
			Logger:      s.opts.Logger,
		})
	case llm.Ollama:
		b, err = llm.NewOllama(ctx, s.llmOptions(fresh))
	case llm.LMStudio:
		b, err = llm.NewLMStudio(ctx, s.llmOptions(fresh))
	default:
		return nil, fmt.Errorf("unknown backend kind %d", s.cfg.Kind)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Set) llmOptions(fresh bool) llm.Options {
	return llm.Options{
		Endpoint:    s.cfg.Endpoint,
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		HTTPClient:  s.opts.HTTPClient,
		Logger:      s.opts.Logger,
		Limiter:     s.limiter,
		Models:      s.opts.Models,
		Fresh:       fresh,
	}
}

// Ping opens the backend and checks it answers.
func (s *Set) Ping(ctx context.Context) (string, error) {
	b, err := s.open(ctx, true)
	if err != nil {
		return "", err
	}
	if err := b.Ping(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s connected (model %s)", b.Name(), b.Model()), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" && !llm.IsAutoModel(v) {
			return v
		}
	}
	return ""
}
