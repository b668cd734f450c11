package metrics

import (
	"context"
	"fmt"

	"github.com/park285/llm-chess-arena/internal/engine"
	"github.com/park285/llm-chess-arena/internal/engine/uci"
)

// Evaluation compares a played move to the engine's choice in the same
// position. Scores are centipawns from the mover's point of view.
type Evaluation struct {
	BestMove   string
	BestCP     float64
	PlayedCP   float64
	BestMate   bool
	PlayedMate bool
	CPLoss     float64
	// WinProbDelta is the expected-score drop from playing the move
	// instead of the engine line, in [0, 1].
	WinProbDelta float64
}

// Evaluator judges a single move in a given position.
type Evaluator interface {
	Evaluate(ctx context.Context, fenBefore, playedUCI string) (Evaluation, error)
	Close() error
}

// EngineEvaluator scores moves with a UCI engine: one search for the
// best move, then one evaluation after each of the two candidate moves.
type EngineEvaluator struct {
	engine *engine.Engine
	depth  int
}

// NewEngineEvaluator wraps an engine. Depth <= 0 falls back to the
// engine's default search depth.
func NewEngineEvaluator(eng *engine.Engine, depth int) (*EngineEvaluator, error) {
	if eng == nil {
		return nil, fmt.Errorf("metrics: evaluator needs an engine")
	}
	if depth <= 0 {
		depth = engine.DefaultDepth
	}
	return &EngineEvaluator{engine: eng, depth: depth}, nil
}

func (e *EngineEvaluator) Evaluate(ctx context.Context, fenBefore, playedUCI string) (Evaluation, error) {
	best, err := e.engine.BestMove(ctx, fenBefore, nil, uci.Limits{Depth: e.depth})
	if err != nil {
		return Evaluation{}, fmt.Errorf("metrics: best move: %w", err)
	}

	bestCP, bestMate, err := e.scoreAfter(ctx, fenBefore, best)
	if err != nil {
		return Evaluation{}, fmt.Errorf("metrics: score best line: %w", err)
	}
	playedCP, playedMate := bestCP, bestMate
	if playedUCI != best {
		playedCP, playedMate, err = e.scoreAfter(ctx, fenBefore, playedUCI)
		if err != nil {
			return Evaluation{}, fmt.Errorf("metrics: score played move: %w", err)
		}
	}

	loss := bestCP - playedCP
	if loss < 0 {
		loss = 0
	}
	delta := WinProbability(bestCP) - WinProbability(playedCP)
	if delta < 0 {
		delta = 0
	}
	return Evaluation{
		BestMove:     best,
		BestCP:       bestCP,
		PlayedCP:     playedCP,
		BestMate:     bestMate,
		PlayedMate:   playedMate,
		CPLoss:       loss,
		WinProbDelta: delta,
	}, nil
}

// scoreAfter evaluates the position after the move and negates the
// result, since the engine reports scores for the side then to move.
func (e *EngineEvaluator) scoreAfter(ctx context.Context, fenBefore, moveUCI string) (float64, bool, error) {
	score, err := e.engine.Analyze(ctx, fenBefore, []string{moveUCI}, e.depth)
	if err != nil {
		return 0, false, err
	}
	cp := float64(-score.CP)
	return cp, cp >= uci.MateScoreCP, nil
}

func (e *EngineEvaluator) Close() error { return e.engine.Close() }
