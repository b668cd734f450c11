// Package metrics grades played moves against an engine's preferred
// move: centipawn loss, win-probability delta, and a quality label per
// move, aggregated per color.
package metrics

import "math"

// Quality labels a move by its centipawn loss against the engine line.
type Quality string

const (
	QualityBest       Quality = "best"
	QualityExcellent  Quality = "excellent"
	QualityGood       Quality = "good"
	QualityInaccuracy Quality = "inaccuracy"
	QualityMistake    Quality = "mistake"
	QualityBlunder    Quality = "blunder"
)

// zeroLossEpsilon treats sub-microcentipawn losses as zero, so engine
// jitter never demotes a best-line move.
const zeroLossEpsilon = 1e-6

// Centipawn-loss thresholds, upper-exclusive.
const (
	excellentThreshold  = 50
	goodThreshold       = 100
	inaccuracyThreshold = 200
	mistakeThreshold    = 300
)

// Classify grades one move. A missed forced mate is always a blunder;
// matching the engine's move, or losing effectively nothing, is best.
func Classify(bestHit bool, cpLoss float64, bestMate, playedMate bool) Quality {
	if bestMate && !playedMate {
		return QualityBlunder
	}
	if bestHit || cpLoss < zeroLossEpsilon {
		return QualityBest
	}
	switch {
	case cpLoss < excellentThreshold:
		return QualityExcellent
	case cpLoss < goodThreshold:
		return QualityGood
	case cpLoss < inaccuracyThreshold:
		return QualityInaccuracy
	case cpLoss < mistakeThreshold:
		return QualityMistake
	default:
		return QualityBlunder
	}
}

// winProbCoefficient converts centipawns to a win probability through a
// logistic curve. P(0) = 0.5, P(+100) ~ 0.59.
const winProbCoefficient = 0.00368

// WinProbability maps a centipawn score (mover's point of view) to an
// expected score in [0, 1].
func WinProbability(cp float64) float64 {
	return 1.0 / (1.0 + math.Exp(-winProbCoefficient*cp))
}
