package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/driveguard/driveguard-api/internal/models"
	"github.com/driveguard/driveguard-api/internal/safety"
	appErrors "github.com/driveguard/driveguard-api/pkg/errors"
)

type snapshotSource interface {
	Insert(ctx context.Context, snapshots []models.Snapshot) error
	List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error)
}

// SnapshotServiceConfig tunes ingest behaviour.
type SnapshotServiceConfig struct {
	MaxBatchSize int
}

// SnapshotService ingests device readings and serves filtered listings. Every
// batch is sanitized before persistence so downstream reducers never see
// malformed records.
type SnapshotService struct {
	source  snapshotSource
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     SnapshotServiceConfig
}

// NewSnapshotService constructs a SnapshotService.
func NewSnapshotService(source snapshotSource, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg SnapshotServiceConfig) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	return &SnapshotService{source: source, cache: cache, metrics: metrics, logger: logger, cfg: cfg}
}

// Ingest sanitizes and persists a batch for the given device. It returns the
// accepted count; records dropped by sanitation are not an error.
func (s *SnapshotService) Ingest(ctx context.Context, deviceID string, snapshots []models.Snapshot) (int, error) {
	if deviceID == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "deviceId is required")
	}
	if len(snapshots) > s.cfg.MaxBatchSize {
		return 0, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("batch exceeds maximum of %d snapshots", s.cfg.MaxBatchSize))
	}

	clean := safety.Sanitize(snapshots)
	if dropped := len(snapshots) - len(clean); dropped > 0 {
		s.logger.Debug("dropped malformed snapshots",
			zap.String("device_id", deviceID), zap.Int("dropped", dropped))
	}
	if len(clean) == 0 {
		return 0, nil
	}

	for i := range clean {
		clean[i].DeviceID = deviceID
	}
	if err := s.source.Insert(ctx, clean); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store snapshots")
	}

	if s.metrics != nil {
		s.metrics.RecordSnapshotsIngested(len(clean))
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("dashboard:%s:*", deviceID)); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.String("device_id", deviceID), zap.Error(err))
	}
	return len(clean), nil
}

// List returns sanitized snapshots matching the filter.
func (s *SnapshotService) List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error) {
	snapshots, err := s.source.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list snapshots")
	}
	return safety.Sanitize(snapshots), nil
}
