package arena

import (
	"context"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/park285/llm-chess-arena/pkg/arenadto"
)

// Tracker observes applied moves for quality metrics. Observe returns a
// quality label for the move, or "" when metrics are unavailable.
// Implementations must never fail the game: errors are swallowed and at
// worst disable further tracking.
type Tracker interface {
	Observe(ctx context.Context, fenBefore, moveUCI string, color nchess.Color) string
	Summaries() map[string]arenadto.MetricsSummary
	Close() error
}

// MoveEvent describes one applied move. Delivered to the observer hook
// after the move is on the board.
type MoveEvent struct {
	Ply      int
	Color    nchess.Color
	UCI      string
	SAN      string
	FENAfter string
	Quality  string
}

// MoveObserver receives each applied move (spectator feed, renderers).
type MoveObserver func(MoveEvent)

// Result is the final state of a finished match.
type Result struct {
	Outcome  nchess.Outcome
	Method   nchess.Method
	Reason   string
	FinalFEN string
	MovesUCI []string
	MovesSAN []string
	PlyCount int
	Metrics  map[string]arenadto.MetricsSummary
}

// Match runs two players over one game until termination.
type Match struct {
	ID    string
	White Player
	Black Player

	// MaxPlies adjudicates a draw when reached; 0 disables the cap.
	MaxPlies int

	Tracker  Tracker
	Observer MoveObserver
}

// NewMatch validates the player pairing.
func NewMatch(id string, white, black Player, maxPlies int) (*Match, error) {
	if white == nil || black == nil {
		return nil, fmt.Errorf("arena: match %s needs two players", id)
	}
	if white.Color() != nchess.White {
		return nil, fmt.Errorf("arena: player %q is not configured for white", white.Name())
	}
	if black.Color() != nchess.Black {
		return nil, fmt.Errorf("arena: player %q is not configured for black", black.Name())
	}
	if maxPlies < 0 {
		return nil, fmt.Errorf("arena: negative ply cap %d", maxPlies)
	}
	return &Match{ID: id, White: white, Black: black, MaxPlies: maxPlies}, nil
}

// Run plays the match to completion on a fresh game.
func (m *Match) Run(ctx context.Context) (*Result, error) {
	return m.RunFrom(ctx, nchess.NewGame(), nil)
}

// RunFrom continues the match from an existing game state, used when
// resuming from a checkpoint. movesSoFar is the coordinate history that
// produced the game. Players and the tracker are always released when
// the match ends, on every path.
func (m *Match) RunFrom(ctx context.Context, game *nchess.Game, movesSoFar []string) (*Result, error) {
	defer m.release()

	movesUCI := append([]string(nil), movesSoFar...)
	movesSAN := make([]string, 0, len(movesUCI))
	for _, mv := range game.Moves() {
		movesSAN = append(movesSAN, nchess.AlgebraicNotation{}.Encode(mv.Parent().Position(), mv))
	}
	ply := len(movesUCI)
	reason := ""

	for game.Outcome() == nchess.NoOutcome {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("arena: match %s interrupted: %w", m.ID, err)
		}
		if m.MaxPlies > 0 && ply >= m.MaxPlies {
			if err := game.Draw(nchess.DrawOffer); err != nil {
				return nil, fmt.Errorf("arena: adjudicate draw: %w", err)
			}
			reason = "adjudicated: move cap"
			break
		}

		color := game.Position().Turn()
		player := m.White
		if color == nchess.Black {
			player = m.Black
		}

		dctx, err := SnapshotFromGame(game, color)
		if err != nil {
			return nil, fmt.Errorf("arena: snapshot for %s: %w", ColorName(color), err)
		}

		decision, err := player.Decide(ctx, dctx)
		if err != nil {
			return nil, fmt.Errorf("arena: %s (%s) failed to decide: %w", player.Name(), ColorName(color), err)
		}

		switch decision.Action {
		case ActionResign:
			game.Resign(color)
			reason = "resignation by " + ColorName(color)
			obslog.L().Info("match_resign",
				zap.String("match_id", m.ID),
				zap.String("player", player.Name()),
				zap.String("color", ColorName(color)),
			)

		case ActionMove:
			fenBefore := game.FEN()
			uci, nerr := NormalizeMove(decision.AttemptedMove, fenBefore)
			if nerr != nil {
				// The elicitation pipeline already spent its retries;
				// a bad move reaching the board is a forfeit.
				game.Resign(color)
				reason = fmt.Sprintf("forfeit by %s: %v", ColorName(color), nerr)
				obslog.L().Warn("match_forfeit",
					zap.String("match_id", m.ID),
					zap.String("player", player.Name()),
					zap.String("color", ColorName(color)),
					zap.String("attempted_move", decision.AttemptedMove),
					zap.Error(nerr),
				)
				continue
			}

			pos := game.Position()
			mv, derr := nchess.UCINotation{}.Decode(pos, uci)
			if derr != nil {
				return nil, fmt.Errorf("arena: decode normalized move %q: %w", uci, derr)
			}
			san := nchess.AlgebraicNotation{}.Encode(pos, mv)
			if err := game.Move(mv, nil); err != nil {
				return nil, fmt.Errorf("arena: apply move %q: %w", uci, err)
			}

			quality := ""
			if m.Tracker != nil {
				quality = m.Tracker.Observe(ctx, fenBefore, uci, color)
			}

			ply++
			movesUCI = append(movesUCI, uci)
			movesSAN = append(movesSAN, san)
			if m.Observer != nil {
				m.Observer(MoveEvent{
					Ply:      ply,
					Color:    color,
					UCI:      uci,
					SAN:      san,
					FENAfter: game.FEN(),
					Quality:  quality,
				})
			}
			obslog.L().Debug("match_move",
				zap.String("match_id", m.ID),
				zap.Int("ply", ply),
				zap.String("color", ColorName(color)),
				zap.String("uci", uci),
				zap.String("san", san),
			)

		default:
			game.Resign(color)
			reason = fmt.Sprintf("forfeit by %s: unsupported action %q", ColorName(color), decision.Action)
			obslog.L().Warn("match_forfeit",
				zap.String("match_id", m.ID),
				zap.String("player", player.Name()),
				zap.String("action", string(decision.Action)),
			)
		}
	}

	if reason == "" {
		reason = strings.ToLower(game.Method().String())
	}

	res := &Result{
		Outcome:  game.Outcome(),
		Method:   game.Method(),
		Reason:   reason,
		FinalFEN: game.FEN(),
		MovesUCI: movesUCI,
		MovesSAN: movesSAN,
		PlyCount: ply,
	}
	if m.Tracker != nil {
		res.Metrics = m.Tracker.Summaries()
	}

	obslog.L().Info("match_finished",
		zap.String("match_id", m.ID),
		zap.String("outcome", res.Outcome.String()),
		zap.String("reason", res.Reason),
		zap.Int("plies", res.PlyCount),
	)
	return res, nil
}

func (m *Match) release() {
	for _, p := range []Player{m.White, m.Black} {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			obslog.L().Warn("player_close_error", zap.String("player", p.Name()), zap.Error(err))
		}
	}
	if m.Tracker != nil {
		if err := m.Tracker.Close(); err != nil {
			obslog.L().Warn("tracker_close_error", zap.Error(err))
		}
	}
}
