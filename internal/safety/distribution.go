package safety

import (
	"math"

	"github.com/driveguard/driveguard-api/internal/models"
)

// Fixed chart colors per category.
const (
	colorNormal     = "#10b981"
	colorYawn       = "#f59e0b"
	colorDrowsiness = "#f97316"
	colorCritical   = "#ef4444"
)

// Distribution converts summed event totals into the four-category status
// distribution. When no adverse events occurred at all a single synthetic
// normal unit is counted so an empty dataset renders as 100% normal instead
// of an empty chart. Percentages are rounded independently per category and
// may not sum to exactly 100.
func Distribution(totalYawns, totalDrowsiness, totalAlerts int) []models.StatusDistributionEntry {
	totalEvents := totalYawns + totalDrowsiness + totalAlerts
	normalEvents := 0
	if totalEvents == 0 {
		normalEvents = 1
	}
	total := totalEvents + normalEvents

	pct := func(count int) int {
		if total <= 0 {
			return 0
		}
		return int(math.Round(100 * float64(count) / float64(total)))
	}

	return []models.StatusDistributionEntry{
		{Name: "Normal", Value: normalEvents, Percentage: pct(normalEvents), Color: colorNormal},
		{Name: "Yawns", Value: totalYawns, Percentage: pct(totalYawns), Color: colorYawn},
		{Name: "Drowsiness", Value: totalDrowsiness, Percentage: pct(totalDrowsiness), Color: colorDrowsiness},
		{Name: "Critical", Value: totalAlerts, Percentage: pct(totalAlerts), Color: colorCritical},
	}
}

// DistributionFromStats applies a precomputed DailyStats override in place of
// the raw-snapshot reduction.
func DistributionFromStats(stats models.DailyStats) []models.StatusDistributionEntry {
	return Distribution(stats.TotalYawns, stats.TotalDrowsiness, stats.TotalAlerts)
}
