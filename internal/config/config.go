package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	StockfishPath string

	MaxPlies       int
	MoveRetries    int
	Votes          int
	LLMTimeout     time.Duration
	LLMMaxRetries  int
	LLMTemperature float64
	LLMMaxTokens   int
	LLMBaseURL     string

	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string

	RedisURL    string
	PostgresDSN string

	FeedAddr    string
	PromptDir   string
	SnapshotDir string

	MetricsDepth int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		MaxPlies:       400,
		MoveRetries:    3,
		Votes:          1,
		LLMTimeout:     30 * time.Second,
		LLMMaxRetries:  3,
		LLMTemperature: 0.7,
		MetricsDepth:   10,
	}

	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_BINARY_PATH"))

	if v := strings.TrimSpace(os.Getenv("ARENA_MAX_PLIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxPlies = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_MOVE_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MoveRetries = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_VOTES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			cfg.Votes = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_LLM_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLMTimeout = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_LLM_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.LLMMaxRetries = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_LLM_TEMPERATURE")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.LLMTemperature = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_LLM_MAX_TOKENS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLMMaxTokens = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_METRICS_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MetricsDepth = n
		}
	}

	cfg.LLMBaseURL = strings.TrimSpace(os.Getenv("ARENA_LLM_BASE_URL"))

	cfg.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.AnthropicKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	cfg.GeminiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("ARENA_REDIS_URL"))
	cfg.PostgresDSN = strings.TrimSpace(os.Getenv("ARENA_POSTGRES_DSN"))

	cfg.FeedAddr = strings.TrimSpace(os.Getenv("ARENA_FEED_ADDR"))
	cfg.PromptDir = strings.TrimSpace(os.Getenv("ARENA_PROMPT_DIR"))
	cfg.SnapshotDir = strings.TrimSpace(os.Getenv("ARENA_SNAPSHOT_DIR"))

	return cfg, nil
}
