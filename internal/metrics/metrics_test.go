package metrics

import (
	"context"
	"errors"
	"math"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name                 string
		bestHit              bool
		cpLoss               float64
		bestMate, playedMate bool
		want                 Quality
	}{
		{"engine move", true, 0, false, false, QualityBest},
		{"zero loss", false, 0, false, false, QualityBest},
		{"jitter loss", false, 1e-9, false, false, QualityBest},
		{"small loss", false, 30, false, false, QualityExcellent},
		{"moderate loss", false, 80, false, false, QualityGood},
		{"inaccuracy", false, 150, false, false, QualityInaccuracy},
		{"mistake", false, 250, false, false, QualityMistake},
		{"large loss", false, 400, false, false, QualityBlunder},
		{"missed mate", false, 10, true, false, QualityBlunder},
		{"kept mate", false, 10, true, true, QualityBest},
	}
	for _, tc := range cases {
		if got := Classify(tc.bestHit, tc.cpLoss, tc.bestMate, tc.playedMate); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	// Thresholds are upper-exclusive.
	boundaries := []struct {
		cpLoss float64
		want   Quality
	}{
		{49.9, QualityExcellent},
		{50, QualityGood},
		{99.9, QualityGood},
		{100, QualityInaccuracy},
		{199.9, QualityInaccuracy},
		{200, QualityMistake},
		{299.9, QualityMistake},
		{300, QualityBlunder},
	}
	for _, b := range boundaries {
		if got := Classify(false, b.cpLoss, false, false); got != b.want {
			t.Errorf("cpLoss %.1f: got %q, want %q", b.cpLoss, got, b.want)
		}
	}
}

func TestWinProbability(t *testing.T) {
	if p := WinProbability(0); math.Abs(p-0.5) > 1e-9 {
		t.Fatalf("P(0) = %f", p)
	}
	if p := WinProbability(100); p <= 0.5 || p >= 0.65 {
		t.Fatalf("P(+100) = %f", p)
	}
	if lo, hi := WinProbability(-30000), WinProbability(30000); lo > 1e-6 || hi < 1-1e-6 {
		t.Fatalf("mate band probabilities = %f, %f", lo, hi)
	}
	// Symmetry around equality.
	if p, q := WinProbability(75), WinProbability(-75); math.Abs(p+q-1) > 1e-9 {
		t.Fatalf("P(+75)+P(-75) = %f", p+q)
	}
}

type stubEvaluator struct {
	evals  []Evaluation
	err    error
	calls  int
	closed bool
}

func (s *stubEvaluator) Evaluate(_ context.Context, _, _ string) (Evaluation, error) {
	s.calls++
	if s.err != nil {
		return Evaluation{}, s.err
	}
	ev := s.evals[0]
	if len(s.evals) > 1 {
		s.evals = s.evals[1:]
	}
	return ev, nil
}

func (s *stubEvaluator) Close() error {
	s.closed = true
	return nil
}

func TestTrackerAggregatesPerColor(t *testing.T) {
	stub := &stubEvaluator{evals: []Evaluation{
		{BestMove: "e2e4", CPLoss: 0},
		{BestMove: "e7e5", CPLoss: 120},
		{BestMove: "g1f3", CPLoss: 40},
	}}
	tr := NewTracker(stub)
	defer tr.Close()

	ctx := context.Background()
	if q := tr.Observe(ctx, "fen1", "e2e4", nchess.White); q != string(QualityBest) {
		t.Fatalf("first quality = %q", q)
	}
	if q := tr.Observe(ctx, "fen2", "d7d5", nchess.Black); q != string(QualityInaccuracy) {
		t.Fatalf("second quality = %q", q)
	}
	if q := tr.Observe(ctx, "fen3", "b1c3", nchess.White); q != string(QualityExcellent) {
		t.Fatalf("third quality = %q", q)
	}

	sums := tr.Summaries()
	white := sums["white"]
	if white.Moves != 2 || white.AvgCPLoss != 20 {
		t.Fatalf("white summary = %+v", white)
	}
	if white.BestMoveRate != 0.5 {
		t.Fatalf("white best move rate = %f", white.BestMoveRate)
	}
	if white.QualityCounts[string(QualityBest)] != 1 || white.QualityCounts[string(QualityExcellent)] != 1 {
		t.Fatalf("white quality counts = %v", white.QualityCounts)
	}
	black := sums["black"]
	if black.Moves != 1 || black.AvgCPLoss != 120 || black.BestMoveRate != 0 {
		t.Fatalf("black summary = %+v", black)
	}
}

func TestTrackerDisablesAfterEvaluatorError(t *testing.T) {
	stub := &stubEvaluator{err: errors.New("engine died")}
	tr := NewTracker(stub)
	defer tr.Close()

	ctx := context.Background()
	if q := tr.Observe(ctx, "fen1", "e2e4", nchess.White); q != "" {
		t.Fatalf("quality after error = %q", q)
	}
	// Subsequent observations do not touch the evaluator again.
	tr.Observe(ctx, "fen2", "e7e5", nchess.Black)
	tr.Observe(ctx, "fen3", "g1f3", nchess.White)
	if stub.calls != 1 {
		t.Fatalf("evaluator calls = %d, want 1", stub.calls)
	}
	if len(tr.Summaries()) != 0 {
		t.Fatalf("summaries = %v, want empty", tr.Summaries())
	}
}

func TestDisabledTrackerGradesNothing(t *testing.T) {
	tr := NewDisabledTracker()
	defer tr.Close()
	if q := tr.Observe(context.Background(), "fen", "e2e4", nchess.White); q != "" {
		t.Fatalf("quality = %q", q)
	}
	if len(tr.Summaries()) != 0 {
		t.Fatal("disabled tracker produced summaries")
	}
}

func TestTrackerCloseReleasesEvaluator(t *testing.T) {
	stub := &stubEvaluator{evals: []Evaluation{{BestMove: "e2e4"}}}
	tr := NewTracker(stub)
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !stub.closed {
		t.Fatal("evaluator not closed")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if q := tr.Observe(context.Background(), "fen", "e2e4", nchess.White); q != "" {
		t.Fatalf("observe after close = %q", q)
	}
}
