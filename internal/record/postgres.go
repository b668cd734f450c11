package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Schema creates the archive table. Applied at startup so a fresh
// database works without a separate migration step.
const Schema = `
CREATE TABLE IF NOT EXISTS arena_matches (
	id               BIGSERIAL PRIMARY KEY,
	match_uuid       TEXT NOT NULL UNIQUE,
	white            TEXT NOT NULL,
	black            TEXT NOT NULL,
	white_kind       TEXT NOT NULL,
	black_kind       TEXT NOT NULL,
	result           TEXT NOT NULL,
	result_method    TEXT NOT NULL,
	result_reason    TEXT NOT NULL DEFAULT '',
	moves_uci        JSONB NOT NULL,
	moves_san        JSONB NOT NULL,
	pgn              TEXT NOT NULL DEFAULT '',
	final_fen        TEXT NOT NULL DEFAULT '',
	ply_count        INTEGER NOT NULL DEFAULT 0,
	started_at       TIMESTAMPTZ NOT NULL,
	ended_at         TIMESTAMPTZ NOT NULL,
	duration_ms      BIGINT,
	white_avg_cploss DOUBLE PRECISION NOT NULL DEFAULT 0,
	black_avg_cploss DOUBLE PRECISION NOT NULL DEFAULT 0,
	white_blunders   INTEGER NOT NULL DEFAULT 0,
	black_blunders   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS arena_matches_ended_at_idx ON arena_matches (ended_at DESC);
`

// PostgresStore archives matches in postgres.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects, verifies the connection, and ensures the
// schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing connection without touching the
// schema.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const matchColumns = `
	id,
	match_uuid,
	white,
	black,
	white_kind,
	black_kind,
	result,
	result_method,
	result_reason,
	moves_uci,
	moves_san,
	pgn,
	final_fen,
	ply_count,
	started_at,
	ended_at,
	duration_ms,
	white_avg_cploss,
	black_avg_cploss,
	white_blunders,
	black_blunders`

func (s *PostgresStore) Insert(ctx context.Context, rec *MatchRecord) (int64, error) {
	if rec == nil {
		return 0, errNilRecord
	}

	movesUCI, err := json.Marshal(rec.MovesUCI)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(rec.MovesSAN)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO arena_matches (
			match_uuid,
			white,
			black,
			white_kind,
			black_kind,
			result,
			result_method,
			result_reason,
			moves_uci,
			moves_san,
			pgn,
			final_fen,
			ply_count,
			started_at,
			ended_at,
			duration_ms,
			white_avg_cploss,
			black_avg_cploss,
			white_blunders,
			black_blunders
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (match_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = s.db.QueryRowContext(
		ctx,
		query,
		rec.MatchUUID,
		rec.White,
		rec.Black,
		rec.WhiteKind,
		rec.BlackKind,
		rec.Result,
		rec.Method,
		rec.Reason,
		movesUCI,
		movesSAN,
		rec.PGN,
		rec.FinalFEN,
		rec.PlyCount,
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
		rec.WhiteAvgCPLoss,
		rec.BlackAvgCPLoss,
		rec.WhiteBlunders,
		rec.BlackBlunders,
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateMatch
	}
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	return id.Int64, nil
}

func (s *PostgresStore) Get(ctx context.Context, matchUUID string) (*MatchRecord, error) {
	query := `SELECT` + matchColumns + `
		FROM arena_matches
		WHERE match_uuid = $1
		LIMIT 1`

	rec, err := scanMatch(s.db.QueryRowContext(ctx, query, matchUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select match: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*MatchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + matchColumns + `
		FROM arena_matches
		ORDER BY ended_at DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent matches: %w", err)
	}
	defer rows.Close()

	recs := make([]*MatchRecord, 0, limit)
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return recs, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*MatchRecord, error) {
	var (
		rec          MatchRecord
		movesUCIJSON []byte
		movesSANJSON []byte
		durationMS   sql.NullInt64
	)
	if err := row.Scan(
		&rec.ID,
		&rec.MatchUUID,
		&rec.White,
		&rec.Black,
		&rec.WhiteKind,
		&rec.BlackKind,
		&rec.Result,
		&rec.Method,
		&rec.Reason,
		&movesUCIJSON,
		&movesSANJSON,
		&rec.PGN,
		&rec.FinalFEN,
		&rec.PlyCount,
		&rec.StartedAt,
		&rec.EndedAt,
		&durationMS,
		&rec.WhiteAvgCPLoss,
		&rec.BlackAvgCPLoss,
		&rec.WhiteBlunders,
		&rec.BlackBlunders,
	); err != nil {
		return nil, err
	}
	if durationMS.Valid {
		rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(movesUCIJSON, &rec.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &rec.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &rec, nil
}
