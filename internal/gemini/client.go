package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"prompt-enhancer/internal/llm"
)

const (
	DefaultTextModel   = "gemini-2.5-flash"
	DefaultVisionModel = "gemini-2.5-flash"
)

type Options struct {
	APIKey      string
	BaseURL     string
	APIVersion  string
	TextModel   string
	VisionModel string
	Temperature float64
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client serves both llm.Generator and llm.Captioner on the Gemini API.
type Client struct {
	client      *genai.Client
	textModel   string
	visionModel string
	temperature float64
	logger      *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if baseURL := strings.TrimRight(opts.BaseURL, "/"); baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL + "/"
	}
	if v := strings.TrimSpace(opts.APIVersion); v != "" {
		cfg.HTTPOptions.APIVersion = v
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = DefaultTextModel
	}
	visionModel := strings.TrimSpace(opts.VisionModel)
	if visionModel == "" {
		visionModel = DefaultVisionModel
	}

	return &Client{
		client:      client,
		textModel:   textModel,
		visionModel: visionModel,
		temperature: opts.Temperature,
		logger:      logger,
	}, nil
}

func (c *Client) Name() string  { return llm.Gemini.String() }
func (c *Client) Model() string { return c.textModel }

func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	temp := req.Temperature
	if temp == 0 {
		temp = c.temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temp)),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if strings.TrimSpace(req.System) != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}
	return c.generate(ctx, c.textModel, contents, config)
}

func (c *Client) Caption(ctx context.Context, img llm.Image, instruction string, maxTokens int) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(instruction),
		genai.NewPartFromBytes(img.Data, img.MIME()),
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return c.generate(ctx, c.visionModel, contents, config)
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	c.logger.Debug("llm call finished",
		"backend", c.Name(),
		"model", model,
		"max_tokens", config.MaxOutputTokens,
		"duration", time.Since(start),
		"chars", len(text),
	)
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

// Ping asks the API for the configured text model.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.textModel, nil); err != nil {
		return fmt.Errorf("gemini ping: %w", err)
	}
	return nil
}
