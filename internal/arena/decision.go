// Package arena arbitrates chess games between players. It owns the
// decision/context types players communicate with, move normalization
// against a position, and the turn-by-turn match loop. Chess rules and
// notation come from github.com/corentings/chess/v2.
package arena

import (
	"errors"
	"fmt"
)

// Action is what a player wants to do with its turn.
type Action string

const (
	ActionMove   Action = "move"
	ActionResign Action = "resign"
)

var (
	ErrMoveRequired  = errors.New("arena: move decision requires a move")
	ErrMoveForbidden = errors.New("arena: resign decision must not carry a move")
)

// Decision is a player's answer for one turn. AttemptedMove is the move
// text as the player produced it; the match re-normalizes it before
// applying. Response keeps the raw text the move was extracted from
// (empty for non-LLM players). Extra carries player-specific metadata.
type Decision struct {
	Action        Action
	AttemptedMove string
	Response      string
	Extra         map[string]string
}

// NewMoveDecision returns a move decision for the given move text.
func NewMoveDecision(move string) (Decision, error) {
	d := Decision{Action: ActionMove, AttemptedMove: move}
	if err := d.Validate(); err != nil {
		return Decision{}, err
	}
	return d, nil
}

// NewResignDecision returns a resignation.
func NewResignDecision() Decision {
	return Decision{Action: ActionResign}
}

// Validate re-checks the action/move pairing. Useful for decisions that
// were assembled field by field.
func (d Decision) Validate() error {
	switch d.Action {
	case ActionMove:
		if d.AttemptedMove == "" {
			return ErrMoveRequired
		}
	case ActionResign:
		if d.AttemptedMove != "" {
			return ErrMoveForbidden
		}
	default:
		return fmt.Errorf("arena: unsupported action %q", d.Action)
	}
	return nil
}

// WithExtra returns a copy of the decision with one extra entry set.
func (d Decision) WithExtra(key, value string) Decision {
	extra := make(map[string]string, len(d.Extra)+1)
	for k, v := range d.Extra {
		extra[k] = v
	}
	extra[key] = value
	d.Extra = extra
	return d
}
