package presenter

import (
	"strings"
	"testing"
	"time"

	"github.com/park285/llm-chess-arena/pkg/arenadto"
)

func TestReport(t *testing.T) {
	f := NewFormatter()
	info := arenadto.MatchInfo{
		White: "gpt-4o", Black: "stockfish",
		WhiteKind: "llm", BlackKind: "engine",
	}
	res := arenadto.ResultSummary{
		Outcome:  "0-1",
		Method:   "checkmate",
		Reason:   "checkmate",
		PlyCount: 4,
		Duration: 83 * time.Second,
		Metrics: map[string]arenadto.MetricsSummary{
			"white": {Moves: 2, AvgCPLoss: 310.5, BestMoveRate: 0, QualityCounts: map[string]int{"blunder": 2}},
			"black": {Moves: 2, AvgCPLoss: 0, BestMoveRate: 1, QualityCounts: map[string]int{"best": 2}},
		},
	}

	out := f.Report(info, res, []string{"f3", "e5", "g4", "Qh4#"})
	for _, want := range []string{
		"gpt-4o (white, llm)",
		"stockfish (black, engine)",
		"Result: 0-1 (checkmate)",
		"Plies: 4 | Duration: 1m23s",
		"  1. f3       e5",
		"  2. g4       Qh4#",
		"Move quality:",
		"white: 2 moves | avg cp loss 310.5 | best move rate 0%",
		"blunder 2",
		"best move rate 100%",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	// Reason identical to method stays off the report.
	if strings.Contains(out, "Reason:") {
		t.Fatalf("redundant reason shown:\n%s", out)
	}
	// White metrics listed before black.
	if strings.Index(out, "white: 2 moves") > strings.Index(out, "black: 2 moves") {
		t.Fatalf("metrics order wrong:\n%s", out)
	}
}

func TestResultLineWithDistinctReason(t *testing.T) {
	f := NewFormatter()
	line := f.ResultLine(arenadto.ResultSummary{
		Outcome: "1-0",
		Method:  "resignation",
		Reason:  "forfeit by black: illegal move: e2e5",
	})
	if !strings.Contains(line, "Result: 1-0 (resignation)") {
		t.Fatalf("line = %q", line)
	}
	if !strings.Contains(line, "Reason: forfeit by black") {
		t.Fatalf("line = %q", line)
	}
}

func TestFormatMoveListOddPlies(t *testing.T) {
	out := FormatMoveList([]string{"e4", "e5", "Nf3"})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if !strings.Contains(lines[1], "2. Nf3") {
		t.Fatalf("last line = %q", lines[1])
	}
}

func TestHeaderDefaults(t *testing.T) {
	f := NewFormatter()
	h := f.Header(arenadto.MatchInfo{})
	if !strings.Contains(h, "white (white)") || !strings.Contains(h, "black (black)") {
		t.Fatalf("header = %q", h)
	}
}
