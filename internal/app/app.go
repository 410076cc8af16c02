// Package app wires configuration into a ready enhancer for the hosts.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"prompt-enhancer/internal/backend"
	"prompt-enhancer/internal/catalog"
	"prompt-enhancer/internal/config"
	"prompt-enhancer/internal/enhancer"
	"prompt-enhancer/internal/httpclient"
	"prompt-enhancer/internal/llm"
	"prompt-enhancer/internal/seed"
	"prompt-enhancer/internal/session"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	HTTP     *http.Client
	Catalog  *catalog.Catalog
	Sessions *session.Store
	Text     *backend.Set
	Vision   *backend.Set
	Enhancer *enhancer.Enhancer

	redis *session.RedisSeeds
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})
	models := llm.NewModelCache(5 * time.Minute)
	opts := backend.Options{HTTPClient: httpClient, Logger: logger, Models: models}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		HTTP:    httpClient,
		Catalog: cat,
		Sessions: session.NewStore(session.Options{
			DefaultPlatform: string(catalog.DefaultPlatform),
			DefaultPreset:   catalog.DefaultPreset,
		}),
		Text: backend.New(cfg.Text, opts),
	}
	if cfg.VisionEnabled {
		a.Vision = backend.New(cfg.Vision, opts)
	}

	var seeds seed.Tracker = a.Sessions
	if cfg.RedisAddr != "" {
		a.redis, err = session.NewRedisSeeds(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		seeds = a.redis
		logger.Info("seed continuity shared through redis", "addr", cfg.RedisAddr)
	}

	eopts := enhancer.Options{
		Catalog:     cat,
		Text:        a.Text.Factory(),
		Seeds:       seeds,
		Logger:      logger,
		Timeout:     cfg.RequestTimeout,
		Temperature: cfg.Text.Temperature,
	}
	if a.Vision != nil {
		eopts.Vision = a.Vision.Captioner
	}
	a.Enhancer, err = enhancer.New(eopts)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build enhancer: %w", err)
	}
	return a, nil
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("close redis", "err", err)
		}
	}
}

// NewLogger builds the JSON logger every host uses.
func NewLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: l,
	}))
}
