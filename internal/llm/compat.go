package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// compatConnector speaks the OpenAI-compatible chat-completions JSON
// dialect against a configured base URL. This is the path for
// self-hosted gateways (vLLM, Ollama, llama.cpp servers) that expose
// /v1/chat/completions without an official SDK.
type compatConnector struct {
	cfg  Config
	http *fasthttp.Client
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatRequest struct {
	Model       string          `json:"model"`
	Messages    []compatMessage `json:"messages"`
	N           int             `json:"n,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type compatResponse struct {
	Choices []struct {
		Message compatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func newCompatConnector(cfg Config) *compatConnector {
	return &compatConnector{
		cfg: cfg,
		http: &fasthttp.Client{
			ReadTimeout:     cfg.Timeout,
			WriteTimeout:    cfg.Timeout,
			MaxConnsPerHost: 16,
		},
	}
}

func (c *compatConnector) Model() string { return c.cfg.Model }
func (c *compatConnector) Close() error  { return nil }

func (c *compatConnector) Query(ctx context.Context, prompt string, n int, system string) ([]string, error) {
	if n < 1 {
		n = 1
	}

	messages := make([]compatMessage, 0, 2)
	if system != "" {
		messages = append(messages, compatMessage{Role: "system", Content: system})
	}
	messages = append(messages, compatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(compatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		N:           n,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.SetBody(payload)

	attempts := c.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			lastErr = classifyErr(timeoutAsDeadline(err), "compat chat completion")
			if attempt == attempts {
				return nil, lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			body := string(resp.Body())
			lastErr = fmt.Errorf("%w: compat api error: status=%d body=%s", ErrConnection, status, truncate(body, 512))
			if attempt == attempts || !shouldRetryStatus(status) {
				return nil, lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return nil, lastErr
			}
			continue
		}

		var parsed compatResponse
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", ErrConnection, err)
		}
		if parsed.Error != nil {
			return nil, fmt.Errorf("%w: compat api error: %s", ErrConnection, parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return nil, fmt.Errorf("%w: compat endpoint returned no choices", ErrConnection)
		}
		out := make([]string, 0, len(parsed.Choices))
		for _, choice := range parsed.Choices {
			out = append(out, choice.Message.Content)
		}
		return out, nil
	}
	return nil, lastErr
}

func (c *compatConnector) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.cfg.Timeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.cfg.Timeout)
}

// timeoutAsDeadline maps fasthttp's timeout sentinel onto the context
// deadline error so classifyErr reports it as a query timeout.
func timeoutAsDeadline(err error) error {
	if errors.Is(err, fasthttp.ErrTimeout) {
		return fmt.Errorf("%v: %w", err, context.DeadlineExceeded)
	}
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
