package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/llm-chess-arena/internal/arena"
)

func testContext(t *testing.T) arena.DecisionContext {
	t.Helper()
	dctx, err := arena.NewContext(
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		nchess.White,
		[]string{"e2e4", "d2d4"},
		[]string{},
	)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return dctx
}

func TestBuilderInitial(t *testing.T) {
	cat, err := NewCatalog("")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	b := NewBuilder(cat)

	got, err := b.Initial(testContext(t))
	if err != nil {
		t.Fatalf("Initial: %v", err)
	}
	for _, want := range []string{
		"Let's play chess.",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"You are playing as player white.",
		`"Final Answer: X"`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestBuilderInitialHistory(t *testing.T) {
	cat, err := NewCatalog("")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	b := NewBuilder(cat)

	dctx := testContext(t)
	dctx.MoveHistoryUCI = []string{"e2e4", "e7e5", "g1f3"}
	dctx.PlayerColor = nchess.Black

	got, err := b.Initial(dctx)
	if err != nil {
		t.Fatalf("Initial: %v", err)
	}
	if !strings.Contains(got, "1. e2e4 e7e5 2. g1f3") {
		t.Fatalf("prompt missing flattened history:\n%s", got)
	}
	if !strings.Contains(got, "player black") {
		t.Fatalf("prompt missing color:\n%s", got)
	}
}

func TestBuilderRetryKinds(t *testing.T) {
	cat, err := NewCatalog("")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	b := NewBuilder(cat)

	const prior = "PRIOR PROMPT"

	got, err := b.Retry(arena.FailureInvalid, prior, "I like pie", "")
	if err != nil {
		t.Fatalf("Retry(invalid): %v", err)
	}
	if !strings.HasPrefix(got, prior) {
		t.Fatalf("retry prompt does not wrap the prior prompt:\n%s", got)
	}
	if !strings.Contains(got, "not parsable") || !strings.Contains(got, "I like pie") {
		t.Fatalf("invalid retry missing response:\n%s", got)
	}

	got, err = b.Retry(arena.FailureIllegal, prior, "", "Qh5")
	if err != nil {
		t.Fatalf("Retry(illegal): %v", err)
	}
	if !strings.Contains(got, "Qh5, which is an illegal move") {
		t.Fatalf("illegal retry missing move:\n%s", got)
	}

	got, err = b.Retry(arena.FailureAmbiguous, prior, "", "Ne5")
	if err != nil {
		t.Fatalf("Retry(ambiguous): %v", err)
	}
	if !strings.Contains(got, "Ne5, which is ambiguous") {
		t.Fatalf("ambiguous retry missing move:\n%s", got)
	}

	if _, err := b.Retry(arena.FailureKind("nonsense"), prior, "", ""); err == nil {
		t.Fatal("unknown kind accepted")
	}
}

func TestCatalogOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "move:\n  request: custom {{.player_color}}\n"
	if err := os.WriteFile(filepath.Join(dir, "10-custom.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	cat, err := NewCatalog(dir)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	got, err := NewBuilder(cat).Initial(testContext(t))
	if err != nil {
		t.Fatalf("Initial: %v", err)
	}
	if got != "custom white" {
		t.Fatalf("override not applied: %q", got)
	}
}

func TestCatalogDuplicateOverrideKeys(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("move:\n  request: x\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if _, err := NewCatalog(dir); err == nil {
		t.Fatal("duplicate override keys accepted")
	}
}

func TestCatalogMissingFieldFailsLoudly(t *testing.T) {
	cat, err := NewCatalog("")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	_, err = cat.Render("move.request", map[string]any{"board_in_fen": "x"})
	if err == nil {
		t.Fatal("missing field accepted")
	}
	if !strings.Contains(err.Error(), "move_history") && !strings.Contains(err.Error(), "player_color") {
		t.Fatalf("error does not name the missing field: %v", err)
	}
}
