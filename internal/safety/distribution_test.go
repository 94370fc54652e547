package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveguard/driveguard-api/internal/models"
)

func TestDistributionNoEventsIsAllNormal(t *testing.T) {
	out := Distribution(0, 0, 0)
	require.Len(t, out, 4)

	assert.Equal(t, "Normal", out[0].Name)
	assert.Equal(t, 1, out[0].Value)
	assert.Equal(t, 100, out[0].Percentage)
	for _, entry := range out[1:] {
		assert.Zero(t, entry.Value)
		assert.Zero(t, entry.Percentage)
	}
}

func TestDistributionYawnsOnly(t *testing.T) {
	out := Distribution(2, 0, 0)
	require.Len(t, out, 4)

	assert.Equal(t, 0, out[0].Value) // no synthetic normal when events exist
	assert.Equal(t, 0, out[0].Percentage)
	assert.Equal(t, 2, out[1].Value)
	assert.Equal(t, 100, out[1].Percentage)
}

func TestDistributionFixedOrderAndColors(t *testing.T) {
	out := Distribution(1, 2, 3)
	require.Len(t, out, 4)

	assert.Equal(t, []string{"Normal", "Yawns", "Drowsiness", "Critical"},
		[]string{out[0].Name, out[1].Name, out[2].Name, out[3].Name})
	assert.Equal(t, colorNormal, out[0].Color)
	assert.Equal(t, colorYawn, out[1].Color)
	assert.Equal(t, colorDrowsiness, out[2].Color)
	assert.Equal(t, colorCritical, out[3].Color)
}

func TestDistributionRoundsIndependently(t *testing.T) {
	// 1+1+1 of 3 -> 33% each; the sum is 99, not renormalised to 100.
	out := Distribution(1, 1, 1)
	total := 0
	for _, entry := range out {
		total += entry.Percentage
	}
	assert.Equal(t, 99, total)
}

func TestDistributionFromStatsOverride(t *testing.T) {
	stats := models.DailyStats{TotalYawns: 4, TotalDrowsiness: 0, TotalAlerts: 0}
	out := DistributionFromStats(stats)
	assert.Equal(t, 4, out[1].Value)
	assert.Equal(t, 100, out[1].Percentage)
}
