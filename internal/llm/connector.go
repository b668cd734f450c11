// Package llm connects the arena to model providers. One Connector
// interface, four transports: OpenAI, Anthropic, Gemini, and a generic
// OpenAI-compatible HTTP client for self-hosted endpoints.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrQueryTimeout means the provider did not answer within the
	// configured deadline (request-level or caller context).
	ErrQueryTimeout = errors.New("llm: query timed out")
	// ErrConnection covers every other transport or API failure: auth,
	// rate limits, 5xx, malformed replies.
	ErrConnection = errors.New("llm: connection failed")
)

// Connector is a model endpoint. Query returns n completions for the
// prompt, in provider order. Implementations send only the parameters
// their provider accepts and silently drop the rest.
type Connector interface {
	Query(ctx context.Context, prompt string, n int, system string) ([]string, error)
	Model() string
	Close() error
}

// Config holds connector construction settings. Nothing reads global
// state at query time.
type Config struct {
	// Model is the provider-prefixed identifier, e.g. "openai/gpt-4o",
	// "anthropic/claude-sonnet-4", "gemini/gemini-2.5-pro". Identifiers
	// without a known prefix go to the OpenAI-compatible connector
	// against BaseURL.
	Model string

	Temperature float64
	// MaxTokens of 0 leaves the provider default in place.
	MaxTokens int
	Timeout   time.Duration
	// MaxRetries bounds transport-level retries (compat connector only;
	// the SDK clients carry their own retry policy).
	MaxRetries int

	BaseURL string
	APIKey  string
}

func (c Config) withDefaults() Config {
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// New builds a connector for the configured model identifier.
func New(cfg Config) (Connector, error) {
	cfg = cfg.withDefaults()
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("llm: model identifier required")
	}

	switch {
	case strings.HasPrefix(model, "openai/"):
		cfg.Model = strings.TrimPrefix(model, "openai/")
		return newOpenAIConnector(cfg), nil
	case strings.HasPrefix(model, "anthropic/"):
		cfg.Model = strings.TrimPrefix(model, "anthropic/")
		return newAnthropicConnector(cfg), nil
	case strings.HasPrefix(model, "gemini/"):
		cfg.Model = strings.TrimPrefix(model, "gemini/")
		return newGeminiConnector(cfg)
	default:
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, fmt.Errorf("llm: model %q has no provider prefix and no base URL is configured", model)
		}
		return newCompatConnector(cfg), nil
	}
}

// classifyErr folds a provider error into the two transport kinds.
func classifyErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrQueryTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrConnection, op, err)
}
