package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaClient uses /api/generate, which takes one concatenated prompt.
type OllamaClient struct {
	endpoint    string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
}

func NewOllama(ctx context.Context, opts Options) (*OllamaClient, error) {
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("ollama: http client is nil")
	}

	c := &OllamaClient{
		endpoint:    endpointOr(opts.Endpoint, DefaultOllamaEndpoint),
		model:       strings.TrimSpace(opts.Model),
		temperature: opts.Temperature,
		httpClient:  opts.HTTPClient,
		logger:      loggerOr(opts.Logger),
		limiter:     opts.Limiter,
	}

	if IsAutoModel(c.model) {
		model, err := opts.Models.Resolve(ctx, c.endpoint, opts.Fresh, c.detectModel)
		if err != nil {
			return nil, fmt.Errorf("ollama: detect model: %w", err)
		}
		c.model = model
		c.logger.Debug("detected model", "backend", c.Name(), "model", model)
	}
	return c, nil
}

func (c *OllamaClient) Name() string  { return Ollama.String() }
func (c *OllamaClient) Model() string { return c.model }

func (c *OllamaClient) Generate(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	if temp == 0 {
		temp = c.temperature
	}
	prompt := req.User
	if strings.TrimSpace(req.System) != "" {
		prompt = req.System + "\n\n" + req.User
	}
	return c.generate(ctx, generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Options: generateOptions{
			Temperature: temp,
			NumPredict:  req.MaxTokens,
		},
	})
}

func (c *OllamaClient) Caption(ctx context.Context, img Image, instruction string, maxTokens int) (string, error) {
	return c.generate(ctx, generateRequest{
		Model:  c.model,
		Prompt: instruction,
		Images: []string{img.Base64()},
		Options: generateOptions{
			Temperature: 0.2,
			NumPredict:  maxTokens,
		},
	})
}

func (c *OllamaClient) generate(ctx context.Context, payload generateRequest) (string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return "", err
	}

	start := time.Now()
	var decoded generateResponse
	if err := postJSON(ctx, c.httpClient, "Ollama", c.endpoint+"/api/generate", payload, &decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", decoded.Error)
	}

	text := strings.TrimSpace(decoded.Response)
	c.logger.Debug("llm call finished",
		"backend", c.Name(),
		"model", c.model,
		"max_tokens", payload.Options.NumPredict,
		"duration", time.Since(start),
		"chars", len(text),
	)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *OllamaClient) Ping(ctx context.Context) error {
	var decoded tagList
	return getJSON(ctx, c.httpClient, "Ollama", c.endpoint+"/api/tags", &decoded)
}

func (c *OllamaClient) detectModel(ctx context.Context) (string, error) {
	var decoded tagList
	if err := getJSON(ctx, c.httpClient, "Ollama", c.endpoint+"/api/tags", &decoded); err != nil {
		return "", err
	}
	for _, m := range decoded.Models {
		if name := strings.TrimSpace(m.Name); name != "" {
			return name, nil
		}
	}
	return "", ErrNoModel
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type tagList struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}
