package safety

import "github.com/driveguard/driveguard-api/internal/models"

// Sanitize filters a raw snapshot sequence down to usable entries. Records
// without a timestamp are dropped silently; negative counters and readings
// are clamped to zero and a missing status defaults to NORMAL. Malformed
// input degrades to an empty result, never an error.
func Sanitize(raw []models.Snapshot) []models.Snapshot {
	out := make([]models.Snapshot, 0, len(raw))
	for _, snap := range raw {
		if snap.Timestamp.IsZero() {
			continue
		}
		if snap.EAR < 0 {
			snap.EAR = 0
		}
		if snap.MouthDistance < 0 {
			snap.MouthDistance = 0
		}
		if snap.FaceFrames < 0 {
			snap.FaceFrames = 0
		}
		if snap.YawnEvents < 0 {
			snap.YawnEvents = 0
		}
		if snap.DrowsinessEvents < 0 {
			snap.DrowsinessEvents = 0
		}
		if snap.CriticalAlerts < 0 {
			snap.CriticalAlerts = 0
		}
		if snap.Status == "" {
			snap.Status = models.StatusNormal
		}
		out = append(out, snap)
	}
	return out
}
