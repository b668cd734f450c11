package prompt

import (
	"fmt"

	"github.com/park285/llm-chess-arena/internal/arena"
)

// Builder renders the primary elicitation prompt and the typed retry
// prompts. Retry prompts wrap the previous prompt, so context
// accumulates across retries of the same turn.
type Builder struct {
	catalog *Catalog
}

func NewBuilder(catalog *Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// Initial renders the primary move-request prompt for a position.
func (b *Builder) Initial(dctx arena.DecisionContext) (string, error) {
	return b.catalog.Render("move.request", map[string]any{
		"board_in_fen": dctx.BoardFEN,
		"move_history": arena.FlattenHistory(dctx.MoveHistoryUCI),
		"player_color": arena.ColorName(dctx.PlayerColor),
	})
}

// Retry renders the follow-up prompt for a failed attempt. The invalid
// prompt carries the raw response; illegal and ambiguous prompts carry
// the offending move.
func (b *Builder) Retry(kind arena.FailureKind, lastPrompt, lastResponse, lastAttempted string) (string, error) {
	data := map[string]any{
		"last_prompt":         lastPrompt,
		"last_response":       lastResponse,
		"last_attempted_move": lastAttempted,
	}
	switch kind {
	case arena.FailureParse, arena.FailureInvalid:
		return b.catalog.Render("move.retry.invalid", data)
	case arena.FailureIllegal:
		return b.catalog.Render("move.retry.illegal", data)
	case arena.FailureAmbiguous:
		return b.catalog.Render("move.retry.ambiguous", data)
	default:
		return "", fmt.Errorf("prompt: no retry template for failure kind %q", kind)
	}
}

// System returns the system prompt sent alongside every request.
func (b *Builder) System() (string, error) {
	return b.catalog.Render("system.chess", map[string]any{})
}
