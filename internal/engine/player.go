package engine

import (
	"context"
	"fmt"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/llm-chess-arena/internal/arena"
	"github.com/park285/llm-chess-arena/internal/engine/uci"
)

// Player is an engine-backed arena player. Decisions are always moves;
// the engine never resigns.
type Player struct {
	name   string
	color  nchess.Color
	engine *Engine
	limits uci.Limits
}

// NewPlayer wraps an engine as a player. Zero limits search at
// DefaultDepth.
func NewPlayer(name string, color nchess.Color, eng *Engine, limits uci.Limits) (*Player, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine: player %q needs an engine", name)
	}
	return &Player{name: name, color: color, engine: eng, limits: limits}, nil
}

func (p *Player) Name() string        { return p.name }
func (p *Player) Color() nchess.Color { return p.color }
func (p *Player) Close() error        { return p.engine.Close() }

func (p *Player) Decide(ctx context.Context, dctx arena.DecisionContext) (arena.Decision, error) {
	move, err := p.engine.BestMove(ctx, dctx.BoardFEN, nil, p.limits)
	if err != nil {
		return arena.Decision{}, fmt.Errorf("engine: decide for %s: %w", p.name, err)
	}
	return arena.NewMoveDecision(move)
}
