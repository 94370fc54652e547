package dto

import "github.com/driveguard/driveguard-api/internal/models"

// DashboardResponse is the composed chart-ready payload for one device and
// time range.
type DashboardResponse struct {
	DeviceID     string                           `json:"deviceId"`
	Distribution []models.StatusDistributionEntry `json:"distribution"`
	Hourly       []models.HourlyActivity          `json:"hourly"`
	Safety       models.SafetyStats               `json:"safety"`
	TimeSeries   []models.TimeSeriesPoint         `json:"timeSeries"`
	Snapshots    int                              `json:"snapshots"`
}

// SafetyResponse carries only the summary-card stats.
type SafetyResponse struct {
	DeviceID string             `json:"deviceId"`
	Safety   models.SafetyStats `json:"safety"`
}
