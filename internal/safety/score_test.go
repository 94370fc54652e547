package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/driveguard/driveguard-api/internal/models"
)

func TestComputeScoreFromEAROnly(t *testing.T) {
	// 0.3 * 300 = 90, no penalties.
	assert.Equal(t, 90, ComputeScore(0.3, 0, 0, 0))
}

func TestComputeScorePenaltiesCapped(t *testing.T) {
	// earScore capped at 100; penalties capped at 30/40/50.
	score := ComputeScore(10, 1000, 1000, 1000)
	assert.Equal(t, 0, score)

	// Caps: 100 - 30 - 0 - 0
	assert.Equal(t, 70, ComputeScore(10, 1000, 0, 0))
	// 100 - 0 - 40 - 0
	assert.Equal(t, 60, ComputeScore(10, 0, 1000, 0))
	// 100 - 0 - 0 - 50
	assert.Equal(t, 50, ComputeScore(10, 0, 0, 1000))
}

func TestComputeScoreNeverNegativeOrOver100(t *testing.T) {
	assert.Equal(t, 0, ComputeScore(0, 50, 50, 50))
	assert.Equal(t, 100, ComputeScore(99, 0, 0, 0))
}

func TestScoreLabelThresholds(t *testing.T) {
	cases := []struct {
		score int
		label string
	}{
		{0, StatusNeedsImprovement},
		{19, StatusNeedsImprovement},
		{20, StatusPoor},
		{39, StatusPoor},
		{40, StatusFair},
		{59, StatusFair},
		{60, StatusGood},
		{79, StatusGood},
		{80, StatusExcellent},
		{90, StatusExcellent},
		{100, StatusExcellent},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.label, ScoreLabel(tc.score), "score %d", tc.score)
	}
}

func TestStatsEmptyYieldsNoData(t *testing.T) {
	stats := Stats(nil)
	assert.Equal(t, 0, stats.Score)
	assert.Equal(t, StatusNoData, stats.Status)
}

func TestStatsFromSnapshots(t *testing.T) {
	ts := time.Date(2025, 3, 14, 8, 0, 0, 0, time.Local)
	in := []models.Snapshot{
		{Timestamp: ts, EAR: 0.3, YawnEvents: 1},
		{Timestamp: ts.Add(2 * time.Hour), EAR: 0.3, YawnEvents: 2}, // day total
	}

	stats := Stats(in)
	assert.Equal(t, 2, stats.TotalYawns)
	assert.InDelta(t, 0.3, stats.AvgEAR, 1e-9)
	// earScore 90 - yawnPenalty 4 = 86
	assert.Equal(t, 86, stats.Score)
	assert.Equal(t, StatusExcellent, stats.Status)
}

func TestStatsFromDailyOverride(t *testing.T) {
	override := models.DailyStats{
		TotalYawns:      2,
		TotalDrowsiness: 1,
		TotalAlerts:     0,
		AverageEAR:      0.25,
		TotalSessions:   3,
	}

	stats := StatsFromDaily(override)
	assert.Equal(t, 2, stats.TotalYawns)
	assert.Equal(t, 1, stats.TotalDrowsiness)
	// 75 - 4 - 5 = 66
	assert.Equal(t, 66, stats.Score)
	assert.Equal(t, StatusGood, stats.Status)
}

func TestTimeSeriesProjection(t *testing.T) {
	ts := time.Now()
	in := []models.Snapshot{{Timestamp: ts, EAR: 0.31, MouthDistance: 14, FaceFrames: 99}}

	out := TimeSeries(in)
	assert.Len(t, out, 1)
	assert.Equal(t, ts, out[0].Time)
	assert.Equal(t, 0.31, out[0].EAR)
	assert.Equal(t, float64(14), out[0].Mouth)
	assert.Equal(t, 99, out[0].FaceFrames)
}
