package safety

import (
	"fmt"
	"sort"

	"github.com/driveguard/driveguard-api/internal/models"
)

// ReduceDaily partitions snapshots by local calendar date and keeps the
// chronologically latest snapshot per day. Counters are cumulative within a
// day, so the latest snapshot carries the day's totals. When two snapshots
// share a timestamp the first encountered wins.
func ReduceDaily(snapshots []models.Snapshot) []models.Snapshot {
	latest := make(map[string]models.Snapshot)
	for _, snap := range snapshots {
		key := snap.Timestamp.Local().Format("2006-01-02")
		current, ok := latest[key]
		if !ok || snap.Timestamp.After(current.Timestamp) {
			latest[key] = snap
		}
	}

	days := make([]string, 0, len(latest))
	for day := range latest {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]models.Snapshot, 0, len(days))
	for _, day := range days {
		out = append(out, latest[day])
	}
	return out
}

// ReduceHourly pools snapshots by local hour-of-day across all days and keeps
// the latest snapshot per hour. The result always has exactly 24 entries in
// hour order; hours with no snapshots stay at zero counts with HasData false.
func ReduceHourly(snapshots []models.Snapshot) []models.HourlyActivity {
	out := make([]models.HourlyActivity, 24)
	for h := range out {
		out[h] = models.HourlyActivity{Hour: h, Label: fmt.Sprintf("%02d:00", h)}
	}

	latest := make(map[int]models.Snapshot)
	for _, snap := range snapshots {
		hour := snap.Timestamp.Local().Hour()
		current, ok := latest[hour]
		if !ok || snap.Timestamp.After(current.Timestamp) {
			latest[hour] = snap
		}
	}

	for hour, snap := range latest {
		out[hour].YawnEvents = snap.YawnEvents
		out[hour].DrowsinessEvents = snap.DrowsinessEvents
		out[hour].CriticalAlerts = snap.CriticalAlerts
		out[hour].HasData = true
	}
	return out
}

// Totals sums the cumulative counters across daily representatives into
// running totals.
func Totals(daily []models.Snapshot) (yawns, drowsiness, critical int) {
	for _, snap := range daily {
		yawns += snap.YawnEvents
		drowsiness += snap.DrowsinessEvents
		critical += snap.CriticalAlerts
	}
	return yawns, drowsiness, critical
}

// AverageEAR computes the mean eye-aspect-ratio over snapshots with a
// positive reading. Zero readings indicate missing sensor data and are
// excluded so they do not register as low alertness.
func AverageEAR(snapshots []models.Snapshot) float64 {
	var sum float64
	var n int
	for _, snap := range snapshots {
		if snap.EAR > 0 {
			sum += snap.EAR
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
