package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedConnector is an in-memory Connector for tests. Each Query
// call pops the next scripted batch of completions; Err, when set, is
// returned instead. It records every prompt it was asked.
type ScriptedConnector struct {
	mu        sync.Mutex
	model     string
	batches   [][]string
	next      int
	Err       error
	CallCount int
	Prompts   []string
	Closed    bool
}

// NewScripted builds a scripted connector that answers with the given
// batches in order. A batch is the full slice returned by one Query.
func NewScripted(model string, batches ...[]string) *ScriptedConnector {
	return &ScriptedConnector{model: model, batches: batches}
}

func (s *ScriptedConnector) Model() string { return s.model }

func (s *ScriptedConnector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

func (s *ScriptedConnector) Query(_ context.Context, prompt string, n int, _ string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CallCount++
	s.Prompts = append(s.Prompts, prompt)

	if s.Err != nil {
		return nil, s.Err
	}
	if s.next >= len(s.batches) {
		return nil, fmt.Errorf("%w: scripted connector exhausted after %d calls", ErrConnection, s.CallCount)
	}
	batch := s.batches[s.next]
	s.next++

	out := append([]string(nil), batch...)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
