package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultLMStudioEndpoint = "http://localhost:1234/v1"

type Options struct {
	Endpoint    string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
	Logger      *slog.Logger
	Limiter     *rate.Limiter
	Models      *ModelCache
	// Fresh bypasses Models when detecting an "auto" model.
	Fresh bool
}

// LMStudioClient talks to an OpenAI-compatible chat completions server.
type LMStudioClient struct {
	endpoint    string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	models      *ModelCache
	detected    bool
}

func NewLMStudio(ctx context.Context, opts Options) (*LMStudioClient, error) {
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("lm studio: http client is nil")
	}

	c := &LMStudioClient{
		endpoint:    endpointOr(opts.Endpoint, DefaultLMStudioEndpoint),
		model:       strings.TrimSpace(opts.Model),
		temperature: opts.Temperature,
		httpClient:  opts.HTTPClient,
		logger:      loggerOr(opts.Logger),
		limiter:     opts.Limiter,
	}

	if IsAutoModel(c.model) {
		model, err := opts.Models.Resolve(ctx, c.endpoint, opts.Fresh, c.detectModel)
		if err != nil {
			return nil, fmt.Errorf("lm studio: detect model: %w", err)
		}
		c.model = model
		c.models = opts.Models
		c.detected = true
		c.logger.Debug("detected model", "backend", c.Name(), "model", model)
	}
	return c, nil
}

func (c *LMStudioClient) Name() string  { return LMStudio.String() }
func (c *LMStudioClient) Model() string { return c.model }

func (c *LMStudioClient) Generate(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	if temp == 0 {
		temp = c.temperature
	}
	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
	})
}

func (c *LMStudioClient) Caption(ctx context.Context, img Image, instruction string, maxTokens int) (string, error) {
	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: instruction},
				{Type: "image_url", ImageURL: &imageURL{URL: img.DataURL()}},
			},
		}},
		Temperature: 0.2,
		MaxTokens:   maxTokens,
	})
}

// forgetModel drops a detected model from the cache so the next client
// asks the server again.
func (c *LMStudioClient) forgetModel() {
	if c.detected {
		c.models.Forget(c.endpoint)
	}
}

func (c *LMStudioClient) complete(ctx context.Context, payload chatRequest) (string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return "", err
	}

	start := time.Now()
	var decoded chatResponse
	if err := postJSON(ctx, c.httpClient, "LM Studio", c.endpoint+"/chat/completions", payload, &decoded); err != nil {
		c.forgetModel()
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		c.forgetModel()
		return "", fmt.Errorf("LM Studio error: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	c.logger.Debug("llm call finished",
		"backend", c.Name(),
		"model", c.model,
		"max_tokens", payload.MaxTokens,
		"duration", time.Since(start),
		"chars", len(text),
	)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Ping checks that the server answers its model listing.
func (c *LMStudioClient) Ping(ctx context.Context) error {
	var decoded modelList
	return getJSON(ctx, c.httpClient, "LM Studio", c.endpoint+"/models", &decoded)
}

func (c *LMStudioClient) detectModel(ctx context.Context) (string, error) {
	var decoded modelList
	if err := getJSON(ctx, c.httpClient, "LM Studio", c.endpoint+"/models", &decoded); err != nil {
		return "", err
	}
	for _, m := range decoded.Data {
		if id := strings.TrimSpace(m.ID); id != "" {
			return id, nil
		}
	}
	return "", ErrNoModel
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// Content is either a plain string or a list of contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func endpointOr(endpoint, fallback string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return fallback
	}
	return endpoint
}

func loggerOr(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
