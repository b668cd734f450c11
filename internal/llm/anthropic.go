package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 4096

// anthropicConnector speaks the Anthropic Messages API. The provider
// has no n parameter, so multiple completions are collected by
// sequential fan-out, preserving request order.
type anthropicConnector struct {
	client anthropic.Client
	cfg    Config
}

func newAnthropicConnector(cfg Config) *anthropicConnector {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return &anthropicConnector{client: anthropic.NewClient(opts...), cfg: cfg}
}

func (c *anthropicConnector) Model() string { return c.cfg.Model }
func (c *anthropicConnector) Close() error  { return nil }

func (c *anthropicConnector) Query(ctx context.Context, prompt string, n int, system string) ([]string, error) {
	if n < 1 {
		n = 1
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		text, err := c.queryOne(ctx, prompt, system)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

func (c *anthropicConnector) queryOne(ctx context.Context, prompt, system string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	maxTokens := int64(c.cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Type: "text", Text: system},
		}
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(c.cfg.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyErr(err, "anthropic message")
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic returned no text content", ErrConnection)
	}
	return sb.String(), nil
}
