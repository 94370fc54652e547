package models

import "time"

// SnapshotStatus is the categorical state reported by the monitoring device.
type SnapshotStatus string

const (
	StatusNormal     SnapshotStatus = "NORMAL"
	StatusYawn       SnapshotStatus = "YAWN"
	StatusDrowsiness SnapshotStatus = "DROWSINESS"
	StatusCritical   SnapshotStatus = "CRITICAL"
)

// Snapshot is one timestamped reading from the monitoring device. The event
// counters are cumulative within a calendar day: the chronologically latest
// snapshot of a day carries that day's totals.
type Snapshot struct {
	ID               string         `db:"id" json:"id,omitempty"`
	DeviceID         string         `db:"device_id" json:"device_id,omitempty"`
	Timestamp        time.Time      `db:"recorded_at" json:"timestamp"`
	EAR              float64        `db:"ear" json:"ear"`
	MouthDistance    float64        `db:"mouth_distance" json:"mouth_distance"`
	FaceFrames       int            `db:"face_frames" json:"face_detected_frames"`
	YawnEvents       int            `db:"yawn_events" json:"yawn_events"`
	DrowsinessEvents int            `db:"drowsiness_events" json:"drowsiness_events"`
	CriticalAlerts   int            `db:"critical_alerts" json:"critical_alerts"`
	Status           SnapshotStatus `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at,omitempty"`
}

// SnapshotFilter scopes snapshot queries.
type SnapshotFilter struct {
	DeviceID string
	From     *time.Time
	To       *time.Time
	Limit    int
}

// DailyStats is an optional precomputed summary. When supplied it replaces
// the raw-snapshot reduction for distribution and score calculations; the
// engine never mutates it.
type DailyStats struct {
	TotalYawns      int     `db:"total_yawns" json:"totalYawns"`
	TotalDrowsiness int     `db:"total_drowsiness" json:"totalDrowsiness"`
	TotalAlerts     int     `db:"total_alerts" json:"totalAlerts"`
	AverageEAR      float64 `db:"average_ear" json:"averageEAR"`
	TotalSessions   int     `db:"total_sessions" json:"totalSessions"`
}

// SafetyStats is the derived summary consumed by the summary cards and the
// export feature. Recomputed on every call, never persisted.
type SafetyStats struct {
	TotalYawns      int     `json:"totalYawns"`
	TotalDrowsiness int     `json:"totalDrowsiness"`
	TotalCritical   int     `json:"totalCritical"`
	AvgEAR          float64 `json:"avgEar"`
	Score           int     `json:"score"`
	Status          string  `json:"status"`
}

// StatusDistributionEntry is one slice of the four-category status pie.
type StatusDistributionEntry struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

// HourlyActivity is one slot of the 24-entry activity histogram. HasData
// distinguishes "hour never observed" from "hour observed with zero events".
type HourlyActivity struct {
	Hour             int    `json:"hour"`
	Label            string `json:"label"`
	YawnEvents       int    `json:"yawn_events"`
	DrowsinessEvents int    `json:"drowsiness_events"`
	CriticalAlerts   int    `json:"critical_alerts"`
	HasData          bool   `json:"has_data"`
}

// TimeSeriesPoint is the straight pass-through projection consumed by the
// line-chart renderer.
type TimeSeriesPoint struct {
	Time       time.Time `json:"time"`
	EAR        float64   `json:"ear"`
	Mouth      float64   `json:"mouth"`
	FaceFrames int       `json:"face_frames"`
}
