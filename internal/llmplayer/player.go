// Package llmplayer runs the move-elicitation pipeline for LLM-backed
// players: prompt, query with N votes, extract, normalize, majority
// vote, typed retry prompts, resignation on exhaustion.
package llmplayer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/llm-chess-arena/internal/arena"
	"github.com/park285/llm-chess-arena/internal/extract"
	"github.com/park285/llm-chess-arena/internal/llm"
	"github.com/park285/llm-chess-arena/internal/obslog"
	"github.com/park285/llm-chess-arena/internal/prompt"
)

// sentinelMove is an obviously-invalid move used when a whole batch of
// completions was unparseable. It routes the turn through the normal
// invalid-move retry path with the raw response attached.
const sentinelMove = "???"

const (
	defaultRetries = 3
	defaultVotes   = 1
)

// Player implements arena.Player on top of a model connector.
type Player struct {
	name    string
	color   nchess.Color
	conn    llm.Connector
	prompts *prompt.Builder

	// retries is R: up to R+1 elicitation attempts per turn.
	retries int
	votes   int

	attemptsUsed int
}

// Option configures the Player.
type Option func(*Player)

// WithRetries sets the per-turn retry budget R.
func WithRetries(r int) Option {
	return func(p *Player) { p.retries = r }
}

// WithVotes sets the completions requested per attempt.
func WithVotes(n int) Option {
	return func(p *Player) { p.votes = n }
}

// NewPlayer builds an LLM player. The vote count must be at least 1.
func NewPlayer(name string, color nchess.Color, conn llm.Connector, prompts *prompt.Builder, opts ...Option) (*Player, error) {
	p := &Player{
		name:    name,
		color:   color,
		conn:    conn,
		prompts: prompts,
		retries: defaultRetries,
		votes:   defaultVotes,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.votes < 1 {
		return nil, fmt.Errorf("llmplayer: vote count must be at least 1, got %d", p.votes)
	}
	if p.retries < 0 {
		return nil, fmt.Errorf("llmplayer: negative retry budget %d", p.retries)
	}
	if conn == nil {
		return nil, errors.New("llmplayer: connector required")
	}
	return p, nil
}

func (p *Player) Name() string        { return p.name }
func (p *Player) Color() nchess.Color { return p.color }
func (p *Player) Close() error        { return p.conn.Close() }

// AttemptsUsed reports how many elicitation attempts the last Decide
// call consumed.
func (p *Player) AttemptsUsed() int { return p.attemptsUsed }

// Decide elicits one move. Transport errors propagate immediately and
// un-retried; validation failures burn retry attempts; exhausting the
// budget resigns.
func (p *Player) Decide(ctx context.Context, dctx arena.DecisionContext) (arena.Decision, error) {
	system, err := p.prompts.System()
	if err != nil {
		return arena.Decision{}, fmt.Errorf("llmplayer: render system prompt: %w", err)
	}
	// Built once; retries transform it so context accumulates.
	currentPrompt, err := p.prompts.Initial(dctx)
	if err != nil {
		return arena.Decision{}, fmt.Errorf("llmplayer: render move prompt: %w", err)
	}

	p.attemptsUsed = 0
	for attempt := 0; attempt <= p.retries; attempt++ {
		p.attemptsUsed = attempt + 1

		responses, err := p.conn.Query(ctx, currentPrompt, p.votes, system)
		if err != nil {
			return arena.Decision{}, fmt.Errorf("llmplayer: query %s: %w", p.conn.Model(), err)
		}

		winner := p.electCandidate(responses)

		switch winner.Action {
		case arena.ActionResign:
			return winner, nil
		case arena.ActionMove:
			// fall through to validation
		default:
			obslog.L().Warn("llm_unsupported_action",
				zap.String("player", p.name),
				zap.String("action", string(winner.Action)),
			)
			return arena.NewResignDecision(), nil
		}

		uci, nerr := arena.NormalizeMove(winner.AttemptedMove, dctx.BoardFEN)
		if nerr == nil {
			decision, derr := arena.NewMoveDecision(uci)
			if derr != nil {
				return arena.Decision{}, derr
			}
			decision.Response = winner.Response
			decision = decision.
				WithExtra("attempted_move", winner.AttemptedMove).
				WithExtra("votes", strconv.Itoa(p.votes)).
				WithExtra("attempts", strconv.Itoa(p.attemptsUsed))
			return decision, nil
		}

		var merr *arena.MoveError
		if !errors.As(nerr, &merr) {
			return arena.Decision{}, fmt.Errorf("llmplayer: normalize %q: %w", winner.AttemptedMove, nerr)
		}

		obslog.L().Info("llm_move_rejected",
			zap.String("player", p.name),
			zap.String("attempted_move", winner.AttemptedMove),
			zap.String("kind", string(merr.Kind)),
			zap.Int("attempt", attempt+1),
		)

		if attempt == p.retries {
			break
		}
		currentPrompt, err = p.prompts.Retry(merr.Kind, currentPrompt, winner.Response, winner.AttemptedMove)
		if err != nil {
			return arena.Decision{}, fmt.Errorf("llmplayer: render retry prompt: %w", err)
		}
	}

	obslog.L().Warn("llm_retries_exhausted",
		zap.String("player", p.name),
		zap.Int("attempts", p.attemptsUsed),
	)
	return arena.NewResignDecision(), nil
}

// electCandidate parses every completion and majority-votes over the
// exact (action, move) pairs. Unparseable completions are discarded; if
// nothing parses, a sentinel move carries the first raw response into
// the retry path. Ties break by first appearance in completion order.
func (p *Player) electCandidate(responses []string) arena.Decision {
	type key struct {
		action arena.Action
		move   string
	}
	type tally struct {
		count int
		first int
	}

	candidates := make([]arena.Decision, 0, len(responses))
	for _, resp := range responses {
		move, ok := extract.Extract(resp)
		if !ok {
			obslog.L().Debug("llm_completion_unparseable",
				zap.String("player", p.name),
				zap.String("response", truncateForLog(resp)),
			)
			continue
		}
		candidates = append(candidates, arena.Decision{
			Action:        arena.ActionMove,
			AttemptedMove: move,
			Response:      resp,
		})
	}

	if len(candidates) == 0 {
		raw := ""
		if len(responses) > 0 {
			raw = responses[0]
		}
		return arena.Decision{
			Action:        arena.ActionMove,
			AttemptedMove: sentinelMove,
			Response:      raw,
		}
	}

	votes := make(map[key]*tally, len(candidates))
	for i, cand := range candidates {
		k := key{action: cand.Action, move: cand.AttemptedMove}
		if t, ok := votes[k]; ok {
			t.count++
		} else {
			votes[k] = &tally{count: 1, first: i}
		}
	}

	best := candidates[0]
	bestTally := votes[key{action: best.Action, move: best.AttemptedMove}]
	for i, cand := range candidates {
		k := key{action: cand.Action, move: cand.AttemptedMove}
		t := votes[k]
		if t.first != i {
			continue
		}
		if t.count > bestTally.count || (t.count == bestTally.count && t.first < bestTally.first) {
			best = cand
			bestTally = t
		}
	}
	return best
}

func truncateForLog(s string) string {
	if len(s) <= 120 {
		return s
	}
	return s[:120]
}
