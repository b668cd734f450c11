package render

import (
	"bytes"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func TestStripANSI(t *testing.T) {
	in := "\033[1m\033[97mhello\033[0m world"
	if got := StripANSI(in); got != "hello world" {
		t.Fatalf("got %q", got)
	}
	if got := StripANSI("plain"); got != "plain" {
		t.Fatalf("got %q", got)
	}
}

func TestPadVisibleIgnoresEscapes(t *testing.T) {
	padded := padVisible("\033[92mab\033[0m", 5)
	if visible := StripANSI(padded); visible != "ab   " {
		t.Fatalf("visible = %q", visible)
	}
	long := padVisible("abcdef", 3)
	if long != "abcdef" {
		t.Fatalf("long = %q", long)
	}
}

func TestQualitySuffix(t *testing.T) {
	if s := qualitySuffix("best"); !strings.Contains(s, "[BEST]") {
		t.Fatalf("best suffix = %q", s)
	}
	if s := qualitySuffix("blunder"); !strings.Contains(s, "[BLUN]") {
		t.Fatalf("blunder suffix = %q", s)
	}
	if s := qualitySuffix(""); s != "" {
		t.Fatalf("empty quality suffix = %q", s)
	}
	if s := qualitySuffix("mystery"); s != "" {
		t.Fatalf("unknown quality suffix = %q", s)
	}
}

func playMoves(t *testing.T, game *nchess.Game, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			t.Fatalf("push %s: %v", mv, err)
		}
	}
}

func TestHistoryRowsPairsMoves(t *testing.T) {
	game := nchess.NewGame()
	playMoves(t, game, "e2e4", "e7e5", "g1f3")

	rows := historyRows(game, []string{"best", "good", ""})
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].number != 1 || rows[1].number != 2 {
		t.Fatalf("numbers = %d, %d", rows[0].number, rows[1].number)
	}
	first := StripANSI(rows[0].white)
	if !strings.Contains(first, "e2e4") || !strings.Contains(first, "[BEST]") {
		t.Fatalf("first white entry = %q", first)
	}
	if !strings.Contains(StripANSI(rows[0].black), "[GOOD]") {
		t.Fatalf("first black entry = %q", StripANSI(rows[0].black))
	}
	if rows[1].black != "" {
		t.Fatalf("second black entry = %q", rows[1].black)
	}
}

func TestFrameRendersBoardAndSidebar(t *testing.T) {
	game := nchess.NewGame()
	playMoves(t, game, "e2e4", "e7e5")

	var buf bytes.Buffer
	r := NewANSI(&buf, "Alpha", "Beta")
	if err := r.Frame(game, []string{"best", "inaccuracy"}); err != nil {
		t.Fatalf("frame: %v", err)
	}

	out := StripANSI(buf.String())
	for _, want := range []string{"Alpha (White)", "Beta (Black)", "Move History", "e2e4", "e7e5", "[INACC]", "to move", "♔", "♟"} {
		if !strings.Contains(out, want) {
			t.Fatalf("frame output missing %q:\n%s", want, out)
		}
	}
	// Rank legend on both edges, file legend above and below.
	if strings.Count(out, " a ") < 2 {
		t.Fatalf("file legend missing:\n%s", out)
	}
}

func TestFrameEmptyGame(t *testing.T) {
	var buf bytes.Buffer
	r := NewANSI(&buf, "", "")
	if err := r.Frame(nchess.NewGame(), nil); err != nil {
		t.Fatalf("frame: %v", err)
	}
	out := StripANSI(buf.String())
	if !strings.Contains(out, "No moves yet") {
		t.Fatalf("output = %s", out)
	}
	if !strings.Contains(out, "White to move") {
		t.Fatalf("status missing: %s", out)
	}
}

func TestStatusLineOutcomes(t *testing.T) {
	game := nchess.NewGame()
	playMoves(t, game, "f2f3", "e7e5", "g2g4", "d8h4")
	r := NewANSI(&bytes.Buffer{}, "Alpha", "Beta")
	status := StripANSI(r.statusLine(game))
	if !strings.Contains(status, "Beta (Black)") || !strings.Contains(status, "WINS!") {
		t.Fatalf("status = %q", status)
	}

	resigned := nchess.NewGame()
	resigned.Resign(nchess.Black)
	status = StripANSI(r.statusLine(resigned))
	if !strings.Contains(status, "Alpha (White)") || !strings.Contains(status, "WINS!") {
		t.Fatalf("status = %q", status)
	}
}
