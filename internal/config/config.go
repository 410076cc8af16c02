package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"prompt-enhancer/internal/backend"
	"prompt-enhancer/internal/llm"
)

// Host selects which required fields Load enforces.
type Host int

const (
	HostCLI Host = iota
	HostWeb
	HostBot
)

type Config struct {
	LogLevel string
	Debug    bool

	PreferIPv4 bool

	Text   backend.Config
	Vision backend.Config
	// VisionEnabled is false when VISION_BACKEND is "none".
	VisionEnabled bool

	CatalogFile string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TelegramToken string
	WebAddr       string
	SaveDir       string

	MediaGroupDebounce time.Duration
	MaxConcurrent      int
	RequestTimeout     time.Duration
	HTTPTimeout        time.Duration
}

func Load(host Host) (Config, error) {
	cfg := Config{
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:              getEnvBool("DEBUG", false),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		CatalogFile:        getEnv("CATALOG_FILE", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		TelegramToken:      strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		WebAddr:            getEnv("WEB_ADDR", ":8080"),
		SaveDir:            getEnv("SAVE_DIR", "output"),
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 4),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
	}

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	baseURL := getEnv("GEMINI_BASE_URL", "")
	apiVersion := getEnv("GEMINI_API_VERSION", "")

	textKind, ok := llm.ParseKind(getEnv("LLM_BACKEND", "lm_studio"))
	if !ok {
		return Config{}, fmt.Errorf("unknown LLM_BACKEND %q", os.Getenv("LLM_BACKEND"))
	}
	cfg.Text = backend.Config{
		Kind:              textKind,
		Endpoint:          getEnv("LLM_ENDPOINT", ""),
		Model:             getEnv("LLM_MODEL", "auto"),
		Temperature:       getEnvFloat("LLM_TEMPERATURE", 0.7),
		RequestsPerSecond: getEnvFloat("LLM_REQUESTS_PER_SECOND", 0),
		GeminiAPIKey:      apiKey,
		GeminiModel:       getEnv("GEMINI_TEXT_MODEL", ""),
		GeminiBaseURL:     baseURL,
		GeminiAPIVersion:  apiVersion,
	}

	visionName := strings.ToLower(getEnv("VISION_BACKEND", textKind.String()))
	if visionName != "none" {
		visionKind, ok := llm.ParseKind(visionName)
		if !ok {
			return Config{}, fmt.Errorf("unknown VISION_BACKEND %q", visionName)
		}
		cfg.VisionEnabled = true
		cfg.Vision = backend.Config{
			Kind:              visionKind,
			Endpoint:          getEnv("VISION_ENDPOINT", cfg.Text.Endpoint),
			Model:             getEnv("VISION_MODEL", "auto"),
			Temperature:       cfg.Text.Temperature,
			RequestsPerSecond: cfg.Text.RequestsPerSecond,
			GeminiAPIKey:      apiKey,
			GeminiModel:       getEnv("GEMINI_VISION_MODEL", ""),
			GeminiBaseURL:     baseURL,
			GeminiAPIVersion:  apiVersion,
		}
	}

	switch {
	case host == HostBot && cfg.TelegramToken == "":
		return Config{}, errors.New("TELEGRAM_BOT_TOKEN is required")
	case cfg.Text.Kind == llm.Gemini && apiKey == "":
		return Config{}, errors.New("GEMINI_API_KEY is required for the gemini backend")
	case cfg.VisionEnabled && cfg.Vision.Kind == llm.Gemini && apiKey == "":
		return Config{}, errors.New("GEMINI_API_KEY is required for gemini vision")
	}

	if cfg.Text.Temperature < 0 || cfg.Text.Temperature > 2 {
		cfg.Text.Temperature = 0.7
		cfg.Vision.Temperature = 0.7
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RedisDB < 0 {
		cfg.RedisDB = 0
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.MediaGroupDebounce <= 0 {
		cfg.MediaGroupDebounce = 1200 * time.Millisecond
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
