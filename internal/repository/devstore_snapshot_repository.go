package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driveguard/driveguard-api/internal/models"
)

// StoreSnapshotRepository adapts a SnapshotStore to the query surface the
// services expect, so a file-backed store can stand in for Postgres in local
// and demo deployments.
type StoreSnapshotRepository struct {
	store SnapshotStore

	// mu serialises Insert's load-append-save so concurrent batches cannot
	// overwrite each other.
	mu sync.Mutex
}

// NewStoreSnapshotRepository wraps the provided store.
func NewStoreSnapshotRepository(store SnapshotStore) *StoreSnapshotRepository {
	return &StoreSnapshotRepository{store: store}
}

// Insert appends the batch to the persisted set.
func (r *StoreSnapshotRepository) Insert(ctx context.Context, snapshots []models.Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.store.Load()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, snap := range snapshots {
		if snap.ID == "" {
			snap.ID = uuid.NewString()
		}
		if snap.CreatedAt.IsZero() {
			snap.CreatedAt = now
		}
		existing = append(existing, snap)
	}
	return r.store.Save(existing)
}

// List filters the persisted set in memory, mirroring the SQL ordering and
// limit semantics.
func (r *StoreSnapshotRepository) List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error) {
	all, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	matched := make([]models.Snapshot, 0, len(all))
	for _, snap := range all {
		if filter.DeviceID != "" && snap.DeviceID != filter.DeviceID {
			continue
		}
		if filter.From != nil && snap.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && snap.Timestamp.After(*filter.To) {
			continue
		}
		matched = append(matched, snap)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	limit := filter.Limit
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// LatestDailyStats is unavailable for file-backed storage; callers fall back
// to the raw-snapshot path.
func (r *StoreSnapshotRepository) LatestDailyStats(ctx context.Context, deviceID string) (*models.DailyStats, error) {
	return nil, sql.ErrNoRows
}
