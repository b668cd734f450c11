package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/park285/llm-chess-arena/internal/engine/uci"
)

// DefaultDepth bounds searches when the caller gives no limits,
// preventing an unbounded go command.
const DefaultDepth = 10

// Score is a position evaluation from the side to move's point of view.
type Score struct {
	CP     int
	IsMate bool
}

// Engine is a lazily-started UCI engine. The subprocess launches on the
// first search so that a configured-but-unused engine never spawns.
// Close is idempotent.
type Engine struct {
	binary  string
	options uci.Options

	mu      sync.Mutex
	session *uci.Session
	closed  bool
}

// New prepares an engine around the given binary without starting it.
func New(binary string, options uci.Options) *Engine {
	return &Engine{binary: binary, options: options}
}

func (e *Engine) ensureSession(ctx context.Context) (*uci.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("engine: already closed")
	}
	if e.session != nil {
		return e.session, nil
	}
	s, err := uci.NewSession(ctx, e.binary, e.options)
	if err != nil {
		return nil, fmt.Errorf("engine: start session: %w", err)
	}
	if err := s.NewGame(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("engine: new game: %w", err)
	}
	e.session = s
	return s, nil
}

// BestMove searches the position (FEN plus moves played on top of it)
// and returns the engine's move in coordinate notation.
func (e *Engine) BestMove(ctx context.Context, fen string, moves []string, limits uci.Limits) (string, error) {
	resp, err := e.searchPosition(ctx, fen, moves, limits)
	if err != nil {
		return "", err
	}
	if resp.BestMove == "" || resp.BestMove == "(none)" {
		return "", fmt.Errorf("engine: no best move for position %q", fen)
	}
	return resp.BestMove, nil
}

// Analyze evaluates the position to the given depth and returns the
// principal score for the side to move.
func (e *Engine) Analyze(ctx context.Context, fen string, moves []string, depth int) (Score, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	resp, err := e.searchPosition(ctx, fen, moves, uci.Limits{Depth: depth})
	if err != nil {
		return Score{}, err
	}
	if len(resp.Candidates) == 0 {
		return Score{}, fmt.Errorf("engine: no evaluation for position %q", fen)
	}
	cp := resp.Candidates[0].EvalCP
	return Score{CP: cp, IsMate: cp >= uci.MateScoreCP || cp <= -uci.MateScoreCP}, nil
}

// Candidates searches the position and returns all multipv lines.
func (e *Engine) Candidates(ctx context.Context, fen string, moves []string, limits uci.Limits) ([]uci.Candidate, error) {
	resp, err := e.searchPosition(ctx, fen, moves, limits)
	if err != nil {
		return nil, err
	}
	return resp.Candidates, nil
}

func (e *Engine) searchPosition(ctx context.Context, fen string, moves []string, limits uci.Limits) (uci.SearchResponse, error) {
	if limits.Depth <= 0 && limits.MoveTimeMillis <= 0 && limits.NodeCap <= 0 {
		limits.Depth = DefaultDepth
	}
	s, err := e.ensureSession(ctx)
	if err != nil {
		return uci.SearchResponse{}, err
	}
	resp, err := s.Search(ctx, uci.SearchRequest{FEN: fen, Moves: moves, Limits: limits})
	if err != nil {
		return uci.SearchResponse{}, fmt.Errorf("engine: search: %w", err)
	}
	return resp, nil
}

// Close shuts the subprocess down. Safe to call repeatedly.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}
