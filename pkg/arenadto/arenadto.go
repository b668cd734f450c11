// Package arenadto holds the JSON wire types shared by the spectator
// feed and the CLI presenter. Structs only, no behavior.
package arenadto

import "time"

// MatchInfo announces a match to spectators.
type MatchInfo struct {
	MatchID   string    `json:"match_id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	WhiteKind string    `json:"white_kind"`
	BlackKind string    `json:"black_kind"`
	StartedAt time.Time `json:"started_at"`
}

// MoveEvent is one applied move.
type MoveEvent struct {
	MatchID  string `json:"match_id"`
	Ply      int    `json:"ply"`
	Color    string `json:"color"`
	UCI      string `json:"uci"`
	SAN      string `json:"san"`
	FENAfter string `json:"fen_after"`
	Quality  string `json:"quality,omitempty"`
}

// MetricsSummary aggregates move quality for one color.
type MetricsSummary struct {
	Moves         int            `json:"moves"`
	AvgCPLoss     float64        `json:"avg_cp_loss"`
	BestMoveRate  float64        `json:"best_move_rate"`
	QualityCounts map[string]int `json:"quality_counts"`
}

// ResultSummary closes out a match.
type ResultSummary struct {
	MatchID  string                    `json:"match_id"`
	Outcome  string                    `json:"outcome"`
	Method   string                    `json:"method"`
	Reason   string                    `json:"reason"`
	FinalFEN string                    `json:"final_fen"`
	PlyCount int                       `json:"ply_count"`
	Duration time.Duration             `json:"duration"`
	Metrics  map[string]MetricsSummary `json:"metrics,omitempty"`
}
