package uci

import (
	"strings"
	"testing"
)

func TestParseInfo(t *testing.T) {
	line := "info depth 12 seldepth 18 multipv 1 score cp 34 nodes 94321 pv e2e4 e7e5 g1f3"
	mv, cand, ok := parseInfo(line)
	if !ok {
		t.Fatal("parseInfo failed")
	}
	if mv != 1 {
		t.Fatalf("multipv = %d", mv)
	}
	if cand.Move != "e2e4" || cand.EvalCP != 34 {
		t.Fatalf("candidate = %+v", cand)
	}
	if len(cand.Principal) != 3 {
		t.Fatalf("principal = %v", cand.Principal)
	}
}

func TestParseInfoMateFoldsToBand(t *testing.T) {
	mvPos := "info depth 10 multipv 2 score mate 3 pv d1h5"
	_, cand, ok := parseInfo(mvPos)
	if !ok || cand.EvalCP != MateScoreCP {
		t.Fatalf("mate score = %+v ok=%v", cand, ok)
	}

	mvNeg := "info depth 10 score mate -2 pv e8e7"
	_, cand, ok = parseInfo(mvNeg)
	if !ok || cand.EvalCP != -MateScoreCP {
		t.Fatalf("negative mate score = %+v ok=%v", cand, ok)
	}
}

func TestParseInfoWithoutPV(t *testing.T) {
	if _, _, ok := parseInfo("info depth 5 score cp 10 nodes 100"); ok {
		t.Fatal("line without pv accepted")
	}
}

func TestBuildPositionCommand(t *testing.T) {
	got := buildPositionCommand("startpos", nil)
	if got != "position startpos\n" {
		t.Fatalf("got %q", got)
	}
	got = buildPositionCommand("8/8/8/8/8/8/8/K6k w - - 0 1", []string{"a1a2", "h1h2"})
	want := "position fen 8/8/8/8/8/8/8/K6k w - - 0 1 moves a1a2 h1h2\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBuildGoTokens(t *testing.T) {
	tokens, err := buildGoTokens(Limits{Depth: 10, NodeCap: 5000})
	if err != nil {
		t.Fatalf("buildGoTokens: %v", err)
	}
	if strings.Join(tokens, " ") != "go depth 10 nodes 5000" {
		t.Fatalf("tokens = %v", tokens)
	}
	if _, err := buildGoTokens(Limits{}); err == nil {
		t.Fatal("empty limits accepted")
	}
}

func TestCollapseCandidatesOrdersByMultiPV(t *testing.T) {
	m := map[int]Candidate{
		2: {Move: "d2d4"},
		1: {Move: "e2e4"},
		3: {Move: "g1f3"},
	}
	out := collapseCandidates(m)
	if len(out) != 3 || out[0].Move != "e2e4" || out[2].Move != "g1f3" {
		t.Fatalf("out = %+v", out)
	}
}

func TestValidateOptions(t *testing.T) {
	if err := validateOptions(DefaultOptions()); err != nil {
		t.Fatalf("default options rejected: %v", err)
	}
	if err := validateOptions(Options{HashMB: 0, MultiPV: 1}); err == nil {
		t.Fatal("zero hash accepted")
	}
	if err := validateOptions(Options{HashMB: 16, MultiPV: 0}); err == nil {
		t.Fatal("zero multipv accepted")
	}
	if err := validateOptions(Options{HashMB: 16, MultiPV: 1, SkillLevel: 25}); err == nil {
		t.Fatal("skill level 25 accepted")
	}
}
