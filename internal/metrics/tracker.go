package metrics

import (
	"context"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/llm-chess-arena/internal/arena"
	"github.com/park285/llm-chess-arena/internal/engine"
	"github.com/park285/llm-chess-arena/internal/engine/uci"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/park285/llm-chess-arena/pkg/arenadto"
)

type colorStats struct {
	moves    int
	cpLoss   float64
	bestHits int
	counts   map[string]int
}

// Tracker grades every observed move with an evaluator and aggregates
// per-color summaries. An evaluator failure disables grading for the
// rest of the game; games never abort over metrics.
type Tracker struct {
	mu       sync.Mutex
	eval     Evaluator
	disabled bool
	closed   bool
	stats    map[string]*colorStats
}

var _ arena.Tracker = (*Tracker)(nil)

// NewTracker builds a tracker around an evaluator.
func NewTracker(eval Evaluator) *Tracker {
	return &Tracker{eval: eval, stats: make(map[string]*colorStats)}
}

// NewDisabledTracker builds a tracker that grades nothing and reports
// empty summaries.
func NewDisabledTracker() *Tracker {
	return &Tracker{disabled: true, stats: make(map[string]*colorStats)}
}

// FromEngineBinary resolves an engine binary and builds an
// engine-backed tracker. When no binary can be found the tracker comes
// up disabled instead of failing the match.
func FromEngineBinary(explicit string, depth int) *Tracker {
	binary, err := engine.FindBinary(explicit)
	if err != nil {
		obslog.L().Warn("metrics_disabled_no_engine", zap.Error(err))
		return NewDisabledTracker()
	}
	eval, err := NewEngineEvaluator(engine.New(binary, uci.DefaultOptions()), depth)
	if err != nil {
		obslog.L().Warn("metrics_disabled", zap.Error(err))
		return NewDisabledTracker()
	}
	return NewTracker(eval)
}

// Observe grades one move and returns its quality label, or "" when
// grading is off.
func (t *Tracker) Observe(ctx context.Context, fenBefore, moveUCI string, color nchess.Color) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disabled || t.closed {
		return ""
	}

	ev, err := t.eval.Evaluate(ctx, fenBefore, moveUCI)
	if err != nil {
		// One warning, then silence: a dead engine would otherwise log
		// on every remaining ply.
		obslog.L().Warn("metrics_disabled_mid_game",
			zap.String("fen", fenBefore),
			zap.String("move", moveUCI),
			zap.Error(err),
		)
		t.disabled = true
		return ""
	}

	bestHit := moveUCI == ev.BestMove
	q := Classify(bestHit, ev.CPLoss, ev.BestMate, ev.PlayedMate)

	name := arena.ColorName(color)
	st := t.stats[name]
	if st == nil {
		st = &colorStats{counts: make(map[string]int)}
		t.stats[name] = st
	}
	st.moves++
	st.cpLoss += ev.CPLoss
	if bestHit {
		st.bestHits++
	}
	st.counts[string(q)]++
	return string(q)
}

// Summaries returns per-color aggregates for all graded moves so far.
func (t *Tracker) Summaries() map[string]arenadto.MetricsSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]arenadto.MetricsSummary, len(t.stats))
	for name, st := range t.stats {
		counts := make(map[string]int, len(st.counts))
		for k, v := range st.counts {
			counts[k] = v
		}
		summary := arenadto.MetricsSummary{Moves: st.moves, QualityCounts: counts}
		if st.moves > 0 {
			summary.AvgCPLoss = st.cpLoss / float64(st.moves)
			summary.BestMoveRate = float64(st.bestHits) / float64(st.moves)
		}
		out[name] = summary
	}
	return out
}

// Close releases the evaluator. Safe to call repeatedly.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.eval == nil {
		return nil
	}
	return t.eval.Close()
}
