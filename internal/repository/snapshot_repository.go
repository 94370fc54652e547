package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/driveguard/driveguard-api/internal/models"
)

// SnapshotRepository provides database access for device snapshots.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a new instance of SnapshotRepository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = `id, device_id, recorded_at, ear, mouth_distance, face_frames, yawn_events, drowsiness_events, critical_alerts, status, created_at`

// Insert persists a batch of snapshots. IDs are assigned when absent.
func (r *SnapshotRepository) Insert(ctx context.Context, snapshots []models.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	const query = `INSERT INTO snapshots (id, device_id, recorded_at, ear, mouth_distance, face_frames, yawn_events, drowsiness_events, critical_alerts, status, created_at)
		VALUES (:id, :device_id, :recorded_at, :ear, :mouth_distance, :face_frames, :yawn_events, :drowsiness_events, :critical_alerts, :status, :created_at)`

	now := time.Now().UTC()
	rows := make([]models.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap.ID == "" {
			snap.ID = uuid.NewString()
		}
		if snap.CreatedAt.IsZero() {
			snap.CreatedAt = now
		}
		rows = append(rows, snap)
	}

	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert snapshots: %w", err)
	}
	return nil
}

// List returns snapshots matching the filter ordered by recording time.
func (r *SnapshotRepository) List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.DeviceID != "" {
		conditions = append(conditions, fmt.Sprintf("device_id = $%d", len(args)+1))
		args = append(args, filter.DeviceID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("recorded_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("recorded_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY recorded_at ASC"

	limit := filter.Limit
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	snapshots := []models.Snapshot{}
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snapshots, nil
}

// LatestDailyStats returns the precomputed daily summary for a device when
// one exists. Absence is not an error; the caller falls back to the raw path.
func (r *SnapshotRepository) LatestDailyStats(ctx context.Context, deviceID string) (*models.DailyStats, error) {
	const query = `SELECT total_yawns, total_drowsiness, total_alerts, average_ear, total_sessions
		FROM daily_stats WHERE device_id = $1 ORDER BY stats_date DESC LIMIT 1`
	var stats models.DailyStats
	if err := r.db.GetContext(ctx, &stats, query, deviceID); err != nil {
		return nil, err
	}
	return &stats, nil
}
