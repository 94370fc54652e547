package safety

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveguard/driveguard-api/internal/models"
)

func snap(ts time.Time, yawns, drowsy, critical int) models.Snapshot {
	return models.Snapshot{
		Timestamp:        ts,
		YawnEvents:       yawns,
		DrowsinessEvents: drowsy,
		CriticalAlerts:   critical,
	}
}

func TestReduceDailyPicksLatestPerDay(t *testing.T) {
	day1 := time.Date(2025, 3, 14, 8, 0, 0, 0, time.Local)
	day2 := time.Date(2025, 3, 15, 10, 0, 0, 0, time.Local)

	in := []models.Snapshot{
		snap(day1, 1, 0, 0),
		snap(day1.Add(6*time.Hour), 4, 2, 1), // latest of day 1
		snap(day1.Add(3*time.Hour), 2, 1, 0),
		snap(day2, 1, 0, 0),
	}

	out := ReduceDaily(in)
	require.Len(t, out, 2)
	assert.Equal(t, 4, out[0].YawnEvents)
	assert.Equal(t, 2, out[0].DrowsinessEvents)
	assert.Equal(t, 1, out[0].CriticalAlerts)
	assert.Equal(t, 1, out[1].YawnEvents)
}

func TestReduceDailyTieBreakFirstEncountered(t *testing.T) {
	ts := time.Date(2025, 3, 14, 8, 0, 0, 0, time.Local)
	first := snap(ts, 7, 0, 0)
	second := snap(ts, 9, 0, 0)

	out := ReduceDaily([]models.Snapshot{first, second})
	require.Len(t, out, 1)
	assert.Equal(t, 7, out[0].YawnEvents)
}

func TestReduceDailyEmpty(t *testing.T) {
	assert.Empty(t, ReduceDaily(nil))
}

func TestReduceHourlyAlways24Slots(t *testing.T) {
	out := ReduceHourly(nil)
	require.Len(t, out, 24)
	for h, slot := range out {
		assert.Equal(t, h, slot.Hour)
		assert.False(t, slot.HasData)
		assert.Zero(t, slot.YawnEvents)
		assert.Zero(t, slot.DrowsinessEvents)
		assert.Zero(t, slot.CriticalAlerts)
	}
	assert.Equal(t, "00:00", out[0].Label)
	assert.Equal(t, "23:00", out[23].Label)
}

func TestReduceHourlyPoolsAcrossDays(t *testing.T) {
	d1 := time.Date(2025, 3, 14, 9, 15, 0, 0, time.Local)
	d2 := time.Date(2025, 3, 16, 9, 45, 0, 0, time.Local) // same hour, later day

	out := ReduceHourly([]models.Snapshot{
		snap(d1, 2, 0, 0),
		snap(d2, 5, 1, 0),
	})

	require.Len(t, out, 24)
	assert.True(t, out[9].HasData)
	assert.Equal(t, 5, out[9].YawnEvents)
	assert.Equal(t, 1, out[9].DrowsinessEvents)
	assert.False(t, out[10].HasData)
}

func TestTotalsSumsDailyRepresentatives(t *testing.T) {
	daily := []models.Snapshot{
		snap(time.Now(), 3, 2, 1),
		snap(time.Now().Add(24*time.Hour), 1, 0, 2),
	}
	yawns, drowsy, critical := Totals(daily)
	assert.Equal(t, 4, yawns)
	assert.Equal(t, 2, drowsy)
	assert.Equal(t, 3, critical)
}

func TestAverageEARSkipsZeroReadings(t *testing.T) {
	ts := time.Now()
	in := []models.Snapshot{
		{Timestamp: ts, EAR: 0.3},
		{Timestamp: ts, EAR: 0},
		{Timestamp: ts, EAR: 0.2},
	}
	assert.InDelta(t, 0.25, AverageEAR(in), 1e-9)
}

func TestAverageEAREmpty(t *testing.T) {
	assert.Equal(t, float64(0), AverageEAR(nil))
	assert.Equal(t, float64(0), AverageEAR([]models.Snapshot{{EAR: 0}}))
}
