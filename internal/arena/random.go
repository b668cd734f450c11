package arena

import (
	"context"
	"math/rand"

	nchess "github.com/corentings/chess/v2"
)

// RandomPlayer picks a uniform random legal move. It is the baseline
// opponent for benchmarks and a deterministic fixture in tests when
// constructed with a fixed seed.
type RandomPlayer struct {
	name  string
	color nchess.Color
	rng   *rand.Rand
}

// NewRandomPlayer builds a random player. seed fixes the move sequence
// for reproducible games; pass 0 for a time-seeded source.
func NewRandomPlayer(name string, color nchess.Color, seed int64) *RandomPlayer {
	src := rand.NewSource(seed)
	if seed == 0 {
		src = rand.NewSource(rand.Int63())
	}
	return &RandomPlayer{name: name, color: color, rng: rand.New(src)}
}

func (p *RandomPlayer) Name() string        { return p.name }
func (p *RandomPlayer) Color() nchess.Color { return p.color }

func (p *RandomPlayer) Decide(_ context.Context, dctx DecisionContext) (Decision, error) {
	move := dctx.LegalMovesUCI[p.rng.Intn(len(dctx.LegalMovesUCI))]
	return NewMoveDecision(move)
}

func (p *RandomPlayer) Close() error { return nil }
