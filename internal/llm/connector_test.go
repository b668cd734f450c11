package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewDispatch(t *testing.T) {
	cases := []struct {
		model   string
		baseURL string
		want    string
		wantErr bool
	}{
		{model: "openai/gpt-4o", want: "gpt-4o"},
		{model: "anthropic/claude-sonnet-4-20250514", want: "claude-sonnet-4-20250514"},
		{model: "qwen2.5-72b", baseURL: "http://localhost:8000", want: "qwen2.5-72b"},
		{model: "qwen2.5-72b", wantErr: true}, // no prefix, no base URL
		{model: "", wantErr: true},
	}
	for _, tc := range cases {
		conn, err := New(Config{Model: tc.model, BaseURL: tc.baseURL, APIKey: "test"})
		if tc.wantErr {
			if err == nil {
				t.Fatalf("New(%q) succeeded, want error", tc.model)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q): %v", tc.model, err)
		}
		if conn.Model() != tc.want {
			t.Fatalf("New(%q).Model() = %q, want %q", tc.model, conn.Model(), tc.want)
		}
		if err := conn.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Temperature != 0.7 {
		t.Fatalf("temperature = %v", cfg.Temperature)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("max retries = %v", cfg.MaxRetries)
	}
}

func TestClassifyErr(t *testing.T) {
	err := classifyErr(context.DeadlineExceeded, "op")
	if !errors.Is(err, ErrQueryTimeout) {
		t.Fatalf("deadline not classified as timeout: %v", err)
	}
	err = classifyErr(errors.New("boom"), "op")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("generic error not classified as connection: %v", err)
	}
	if errors.Is(err, ErrQueryTimeout) {
		t.Fatalf("connection error also matches timeout: %v", err)
	}
}

func TestScriptedConnector(t *testing.T) {
	s := NewScripted("scripted",
		[]string{"a", "b", "c"},
		[]string{"d"},
	)

	got, err := s.Query(context.Background(), "p1", 2, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("batch = %v", got)
	}

	got, err = s.Query(context.Background(), "p2", 3, "sys")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0] != "d" {
		t.Fatalf("batch = %v", got)
	}

	if _, err := s.Query(context.Background(), "p3", 1, ""); !errors.Is(err, ErrConnection) {
		t.Fatalf("exhausted connector error = %v", err)
	}

	if s.CallCount != 3 || len(s.Prompts) != 3 || s.Prompts[1] != "p2" {
		t.Fatalf("bookkeeping: calls=%d prompts=%v", s.CallCount, s.Prompts)
	}

	s.Err = ErrQueryTimeout
	if _, err := s.Query(context.Background(), "p4", 1, ""); !errors.Is(err, ErrQueryTimeout) {
		t.Fatalf("injected error = %v", err)
	}
}

func TestBackoffDuration(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{6, 3200 * time.Millisecond},
		{9, 3200 * time.Millisecond}, // capped
	}
	for _, tc := range cases {
		if got := backoffDuration(tc.attempt); got != tc.want {
			t.Fatalf("backoffDuration(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
