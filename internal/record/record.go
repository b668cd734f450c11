// Package record persists finished matches. The postgres store is the
// durable backend; the memory store backs tests and runs without a
// database.
package record

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateMatch reports an insert for a match UUID already stored.
var ErrDuplicateMatch = errors.New("match already recorded")

var errNilRecord = errors.New("nil match record")

// MatchRecord is one finished match.
type MatchRecord struct {
	ID        int64
	MatchUUID string

	White     string
	Black     string
	WhiteKind string
	BlackKind string

	Result string
	Method string
	Reason string

	MovesUCI []string
	MovesSAN []string
	PGN      string
	FinalFEN string
	PlyCount int

	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration

	WhiteAvgCPLoss float64
	BlackAvgCPLoss float64
	WhiteBlunders  int
	BlackBlunders  int
}

// Store archives match records.
type Store interface {
	Insert(ctx context.Context, rec *MatchRecord) (int64, error)
	// Get returns nil without error when no match exists for the UUID.
	Get(ctx context.Context, matchUUID string) (*MatchRecord, error)
	Recent(ctx context.Context, limit int) ([]*MatchRecord, error)
	Close() error
}
