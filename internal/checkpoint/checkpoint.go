// Package checkpoint snapshots in-progress matches to redis so an
// interrupted run can resume. Snapshots hold the move list, not engine
// or connector state; resuming replays the moves to rebuild the game.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/llm-chess-arena/internal/obslog"
)

var (
	// ErrNotFound reports a missing checkpoint.
	ErrNotFound = errors.New("checkpoint not found")
	// ErrStale reports a save older than the stored snapshot.
	ErrStale = errors.New("checkpoint is stale")
	// ErrCorrupt reports a snapshot whose moves no longer replay.
	ErrCorrupt = errors.New("checkpoint does not replay")
)

const defaultTTL = 24 * time.Hour

// State is one match snapshot.
type State struct {
	MatchID   string    `json:"match_id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	StartFEN  string    `json:"start_fen,omitempty"`
	MovesUCI  []string  `json:"moves_uci"`
	Qualities []string  `json:"qualities,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
}

// Store writes snapshots to redis. A nil *Store is valid and turns
// checkpointing off.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore connects to redis using a redis:// or rediss:// URL.
func NewStore(redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("checkpoint: redis url required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("checkpoint: redis ping: %w", err)
	}
	return NewStoreWithClient(rdb, ttl), nil
}

// NewStoreWithClient wraps an existing client. The store owns the
// client and closes it.
func NewStoreWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Save writes a snapshot. A writer that has fallen behind the stored
// snapshot (fewer moves) loses with ErrStale; concurrent updates retry
// through redis WATCH semantics.
func (s *Store) Save(ctx context.Context, st *State) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if st == nil || strings.TrimSpace(st.MatchID) == "" {
		return fmt.Errorf("checkpoint: state needs a match id")
	}

	snapshot := *st
	snapshot.SavedAt = time.Now()
	key := stateKey(snapshot.MatchID)

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			var cur State
			if jerr := json.Unmarshal(raw, &cur); jerr == nil && len(cur.MovesUCI) > len(snapshot.MovesUCI) {
				return ErrStale
			}
		}

		newRaw, err := json.Marshal(&snapshot)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, s.ttl)
		_, err = pipe.Exec(ctx)
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("checkpoint: save %s: %w", snapshot.MatchID, err)
	}

	obslog.L().Debug("checkpoint_saved",
		zap.String("match_id", snapshot.MatchID),
		zap.Int("plies", len(snapshot.MovesUCI)),
	)
	return nil
}

// Load reads a snapshot and rebuilds the game by replaying its moves.
// A snapshot whose moves fail to replay is deleted and reported as
// corrupt.
func (s *Store) Load(ctx context.Context, matchID string) (*State, *nchess.Game, error) {
	if s == nil || s.rdb == nil {
		return nil, nil, ErrNotFound
	}
	raw, err := s.rdb.Get(ctx, stateKey(matchID)).Bytes()
	if err == redis.Nil {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("checkpoint: load %s: %w", matchID, err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, nil, fmt.Errorf("checkpoint: decode %s: %w", matchID, err)
	}

	game, err := Replay(&st)
	if err != nil {
		if derr := s.Delete(ctx, matchID); derr != nil {
			obslog.L().Warn("checkpoint_delete_failed", zap.String("match_id", matchID), zap.Error(derr))
		}
		return nil, nil, err
	}
	return &st, game, nil
}

// Replay rebuilds the game from a snapshot's start position and moves.
func Replay(st *State) (*nchess.Game, error) {
	var game *nchess.Game
	if strings.TrimSpace(st.StartFEN) == "" {
		game = nchess.NewGame()
	} else {
		opt, err := nchess.FEN(st.StartFEN)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start fen: %v", ErrCorrupt, err)
		}
		game = nchess.NewGame(opt)
	}
	for i, mv := range st.MovesUCI {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("%w: move %d (%s): %v", ErrCorrupt, i+1, mv, err)
		}
	}
	return game, nil
}

// Delete drops the snapshot, normally after the match finishes.
func (s *Store) Delete(ctx context.Context, matchID string) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if err := s.rdb.Del(ctx, stateKey(matchID)).Err(); err != nil {
		return fmt.Errorf("checkpoint: delete %s: %w", matchID, err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func stateKey(matchID string) string { return "arena:checkpoint:" + strings.TrimSpace(matchID) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("checkpoint: unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
