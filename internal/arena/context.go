package arena

import (
	"context"
	"errors"
	"time"

	nchess "github.com/corentings/chess/v2"
)

// ErrNoLegalMoves means a decision context was requested for a position
// with no legal moves. The loop must detect termination before asking a
// player to move, so this always indicates a caller bug.
var ErrNoLegalMoves = errors.New("arena: no legal moves in position")

// DecisionContext is the read-only snapshot a player decides from. It is
// built from a cloned game so players can never touch arbitration state.
type DecisionContext struct {
	BoardFEN       string
	PlayerColor    nchess.Color
	LegalMovesUCI  []string
	MoveHistoryUCI []string

	// TimeRemaining is zero for untimed games.
	TimeRemaining time.Duration

	Extra map[string]string
}

// NewContext validates and assembles a decision context.
func NewContext(fen string, color nchess.Color, legal, history []string) (DecisionContext, error) {
	if len(legal) == 0 {
		return DecisionContext{}, ErrNoLegalMoves
	}
	return DecisionContext{
		BoardFEN:       fen,
		PlayerColor:    color,
		LegalMovesUCI:  legal,
		MoveHistoryUCI: history,
	}, nil
}

// SnapshotFromGame builds a decision context for the given color from a
// clone of the game, so the caller's game is never shared with players.
func SnapshotFromGame(game *nchess.Game, color nchess.Color) (DecisionContext, error) {
	clone := game.Clone()
	valid := clone.ValidMoves()
	legal := make([]string, 0, len(valid))
	for i := range valid {
		legal = append(legal, valid[i].String())
	}
	moves := clone.Moves()
	history := make([]string, 0, len(moves))
	for _, mv := range moves {
		history = append(history, mv.String())
	}
	return NewContext(clone.FEN(), color, legal, history)
}

// Player is one side of a match. Decide receives a defensive snapshot
// and returns the player's decision for the turn. Close releases any
// resources (engine subprocess, provider client) and must be idempotent.
type Player interface {
	Name() string
	Color() nchess.Color
	Decide(ctx context.Context, dctx DecisionContext) (Decision, error)
	Close() error
}

// ColorName returns the lowercase color name used in prompts and logs.
func ColorName(color nchess.Color) string {
	switch color {
	case nchess.White:
		return "white"
	case nchess.Black:
		return "black"
	default:
		return "unknown"
	}
}
