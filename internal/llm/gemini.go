package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiConnector speaks the Gemini API. Multiple completions come from
// CandidateCount on a single request; the system prompt rides as a
// system instruction.
type geminiConnector struct {
	client *genai.Client
	cfg    Config
}

func newGeminiConnector(cfg Config) (*geminiConnector, error) {
	var clientCfg *genai.ClientConfig
	if cfg.APIKey != "" {
		clientCfg = &genai.ClientConfig{APIKey: cfg.APIKey}
	}
	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	return &geminiConnector{client: client, cfg: cfg}, nil
}

func (c *geminiConnector) Model() string { return c.cfg.Model }
func (c *geminiConnector) Close() error  { return nil }

func (c *geminiConnector) Query(ctx context.Context, prompt string, n int, system string) ([]string, error) {
	if n < 1 {
		n = 1
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		CandidateCount: int32(n),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if c.cfg.Temperature > 0 {
		temp := float32(c.cfg.Temperature)
		config.Temperature = &temp
	}
	if c.cfg.MaxTokens > 0 {
		config.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		return nil, classifyErr(err, "gemini generate content")
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no candidates", ErrConnection)
	}

	out := make([]string, 0, len(resp.Candidates))
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		out = append(out, sb.String())
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no text content", ErrConnection)
	}
	return out, nil
}
