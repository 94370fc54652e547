package safety

import (
	"math"

	"github.com/driveguard/driveguard-api/internal/models"
)

// Score status labels. StatusNoData is the sentinel for an empty dataset; it
// is never produced by the formula itself.
const (
	StatusNoData           = "no data"
	StatusNeedsImprovement = "needs improvement"
	StatusPoor             = "poor"
	StatusFair             = "fair"
	StatusGood             = "good"
	StatusExcellent        = "excellent"
)

// ComputeScore combines the average eye-aspect-ratio with penalty terms for
// adverse events into a bounded 0-100 safety score. The constants are fixed
// policy, not runtime-tunable.
func ComputeScore(avgEAR float64, totalYawns, totalDrowsiness, totalCritical int) int {
	earScore := math.Min(100, avgEAR*300)
	yawnPenalty := math.Min(30, float64(totalYawns)*2)
	drowsinessPenalty := math.Min(40, float64(totalDrowsiness)*5)
	criticalPenalty := math.Min(50, float64(totalCritical)*25)

	score := earScore - yawnPenalty - drowsinessPenalty - criticalPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// ScoreLabel maps a score to its qualitative label. Thresholds are exclusive
// upper bounds evaluated low to high.
func ScoreLabel(score int) string {
	switch {
	case score < 20:
		return StatusNeedsImprovement
	case score < 40:
		return StatusPoor
	case score < 60:
		return StatusFair
	case score < 80:
		return StatusGood
	default:
		return StatusExcellent
	}
}

// Stats derives the SafetyStats summary from sanitized snapshots. An empty
// dataset yields score 0 with the distinct "no data" label.
func Stats(snapshots []models.Snapshot) models.SafetyStats {
	if len(snapshots) == 0 {
		return models.SafetyStats{Status: StatusNoData}
	}

	daily := ReduceDaily(snapshots)
	yawns, drowsiness, critical := Totals(daily)
	avgEAR := AverageEAR(snapshots)
	score := ComputeScore(avgEAR, yawns, drowsiness, critical)

	return models.SafetyStats{
		TotalYawns:      yawns,
		TotalDrowsiness: drowsiness,
		TotalCritical:   critical,
		AvgEAR:          avgEAR,
		Score:           score,
		Status:          ScoreLabel(score),
	}
}

// StatsFromDaily applies a precomputed DailyStats override in place of the
// raw-snapshot path. The override is treated as immutable.
func StatsFromDaily(stats models.DailyStats) models.SafetyStats {
	score := ComputeScore(stats.AverageEAR, stats.TotalYawns, stats.TotalDrowsiness, stats.TotalAlerts)
	return models.SafetyStats{
		TotalYawns:      stats.TotalYawns,
		TotalDrowsiness: stats.TotalDrowsiness,
		TotalCritical:   stats.TotalAlerts,
		AvgEAR:          stats.AverageEAR,
		Score:           score,
		Status:          ScoreLabel(score),
	}
}

// TimeSeries projects snapshots into the line-chart shape. Pass-through, no
// aggregation.
func TimeSeries(snapshots []models.Snapshot) []models.TimeSeriesPoint {
	out := make([]models.TimeSeriesPoint, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, models.TimeSeriesPoint{
			Time:       snap.Timestamp,
			EAR:        snap.EAR,
			Mouth:      snap.MouthDistance,
			FaceFrames: snap.FaceFrames,
		})
	}
	return out
}
