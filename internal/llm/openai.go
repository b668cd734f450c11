package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openaiConnector speaks the OpenAI chat-completions API. The provider
// supports n natively, so one request yields all requested completions.
type openaiConnector struct {
	client openai.Client
	cfg    Config
}

func newOpenAIConnector(cfg Config) *openaiConnector {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openaiConnector{client: openai.NewClient(opts...), cfg: cfg}
}

func (c *openaiConnector) Model() string { return c.cfg.Model }
func (c *openaiConnector) Close() error  { return nil }

func (c *openaiConnector) Query(ctx context.Context, prompt string, n int, system string) ([]string, error) {
	if n < 1 {
		n = 1
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    c.cfg.Model,
		Messages: messages,
		N:        openai.Int(int64(n)),
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(c.cfg.Temperature)
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyErr(err, "openai chat completion")
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", ErrConnection)
	}

	out := make([]string, 0, len(completion.Choices))
	for _, choice := range completion.Choices {
		out = append(out, choice.Message.Content)
	}
	return out, nil
}
