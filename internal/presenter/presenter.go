// Package presenter formats finished matches into plain-text reports
// for the CLI and logs.
package presenter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/park285/llm-chess-arena/pkg/arenadto"
)

// Formatter renders match DTOs into text blocks.
type Formatter struct{}

func NewFormatter() *Formatter { return &Formatter{} }

// Report renders the full post-game summary: players, result, numbered
// move list, and per-color quality metrics when available.
func (f *Formatter) Report(info arenadto.MatchInfo, res arenadto.ResultSummary, movesSAN []string) string {
	var sb strings.Builder

	sb.WriteString(f.Header(info))
	sb.WriteString("\n")
	sb.WriteString(f.ResultLine(res))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Plies: %d | Duration: %s\n", res.PlyCount, formatDuration(res.Duration)))

	if len(movesSAN) > 0 {
		sb.WriteString("\nMoves:\n")
		sb.WriteString(FormatMoveList(movesSAN))
	}

	if len(res.Metrics) > 0 {
		sb.WriteString("\n")
		sb.WriteString(f.MetricsBlock(res.Metrics))
	}

	return sb.String()
}

// Header names both players with their side and kind.
func (f *Formatter) Header(info arenadto.MatchInfo) string {
	white := playerTag(info.White, "white", info.WhiteKind)
	black := playerTag(info.Black, "black", info.BlackKind)
	return fmt.Sprintf("♟ %s vs %s", white, black)
}

func playerTag(name, side, kind string) string {
	if name == "" {
		name = side
	}
	if kind == "" {
		return fmt.Sprintf("%s (%s)", name, side)
	}
	return fmt.Sprintf("%s (%s, %s)", name, side, kind)
}

// ResultLine renders the outcome with its method, and the reason when
// it carries more detail than the method alone.
func (f *Formatter) ResultLine(res arenadto.ResultSummary) string {
	line := fmt.Sprintf("Result: %s (%s)", res.Outcome, res.Method)
	reason := strings.TrimSpace(res.Reason)
	if reason != "" && !strings.EqualFold(reason, res.Method) {
		line += "\nReason: " + reason
	}
	return line
}

// FormatMoveList renders SAN moves as numbered full-move rows.
func FormatMoveList(movesSAN []string) string {
	var sb strings.Builder
	for i := 0; i < len(movesSAN); i += 2 {
		white := movesSAN[i]
		black := ""
		if i+1 < len(movesSAN) {
			black = movesSAN[i+1]
		}
		if black == "" {
			sb.WriteString(fmt.Sprintf("%3d. %s\n", i/2+1, white))
		} else {
			sb.WriteString(fmt.Sprintf("%3d. %-8s %s\n", i/2+1, white, black))
		}
	}
	return sb.String()
}

// MetricsBlock renders per-color move quality aggregates.
func (f *Formatter) MetricsBlock(metrics map[string]arenadto.MetricsSummary) string {
	colors := make([]string, 0, len(metrics))
	for color := range metrics {
		colors = append(colors, color)
	}
	// White first, then the rest alphabetically.
	sort.Slice(colors, func(i, j int) bool {
		if colors[i] == "white" {
			return true
		}
		if colors[j] == "white" {
			return false
		}
		return colors[i] < colors[j]
	})

	var sb strings.Builder
	sb.WriteString("Move quality:\n")
	for _, color := range colors {
		m := metrics[color]
		sb.WriteString(fmt.Sprintf("  %s: %d moves | avg cp loss %.1f | best move rate %.0f%%\n",
			color, m.Moves, m.AvgCPLoss, m.BestMoveRate*100))
		if counts := formatQualityCounts(m.QualityCounts); counts != "" {
			sb.WriteString("    " + counts + "\n")
		}
	}
	return sb.String()
}

var qualityOrder = []string{"best", "excellent", "good", "inaccuracy", "mistake", "blunder"}

func formatQualityCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(counts))
	for _, q := range qualityOrder {
		if n, ok := counts[q]; ok && n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", q, n))
		}
	}
	return strings.Join(parts, ", ")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(time.Second).String()
}
