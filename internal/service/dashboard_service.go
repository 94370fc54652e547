package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/driveguard/driveguard-api/internal/dto"
	"github.com/driveguard/driveguard-api/internal/models"
	"github.com/driveguard/driveguard-api/internal/safety"
	appErrors "github.com/driveguard/driveguard-api/pkg/errors"
)

type dashboardSnapshotSource interface {
	List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error)
	LatestDailyStats(ctx context.Context, deviceID string) (*models.DailyStats, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the chart-ready dashboard payload from stored
// snapshots. Derived data is recomputed on demand and cached per device and
// range; nothing derived is ever persisted.
type DashboardService struct {
	source dashboardSnapshotSource
	cache  *CacheService
	logger *zap.Logger
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(source dashboardSnapshotSource, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{source: source, cache: cache, logger: logger, cfg: cfg}
}

// Dashboard returns the composed payload for one device and time range and
// indicates cache utilisation.
func (s *DashboardService) Dashboard(ctx context.Context, deviceID string, from, to *time.Time) (*dto.DashboardResponse, bool, error) {
	if deviceID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "deviceId is required")
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}

	cacheKey := dashboardCacheKey(deviceID, from, to)
	var cached dto.DashboardResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	snapshots, err := s.loadSanitized(ctx, deviceID, from, to)
	if err != nil {
		return nil, false, err
	}

	response := &dto.DashboardResponse{
		DeviceID:   deviceID,
		Hourly:     safety.ReduceHourly(snapshots),
		TimeSeries: safety.TimeSeries(snapshots),
		Snapshots:  len(snapshots),
	}

	// A precomputed daily summary, when present, overrides the raw-snapshot
	// reduction for the distribution and the safety score.
	if stats := s.dailyOverride(ctx, deviceID); stats != nil {
		response.Distribution = safety.DistributionFromStats(*stats)
		response.Safety = safety.StatsFromDaily(*stats)
	} else {
		daily := safety.ReduceDaily(snapshots)
		yawns, drowsiness, critical := safety.Totals(daily)
		response.Distribution = safety.Distribution(yawns, drowsiness, critical)
		response.Safety = safety.Stats(snapshots)
	}

	if err := s.cache.Set(ctx, cacheKey, response, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard payload", zap.String("device_id", deviceID), zap.Error(err))
	}
	return response, false, nil
}

// Safety returns only the summary-card stats for a device.
func (s *DashboardService) Safety(ctx context.Context, deviceID string, from, to *time.Time) (*dto.SafetyResponse, error) {
	if deviceID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deviceId is required")
	}

	if stats := s.dailyOverride(ctx, deviceID); stats != nil {
		return &dto.SafetyResponse{DeviceID: deviceID, Safety: safety.StatsFromDaily(*stats)}, nil
	}

	snapshots, err := s.loadSanitized(ctx, deviceID, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.SafetyResponse{DeviceID: deviceID, Safety: safety.Stats(snapshots)}, nil
}

func (s *DashboardService) loadSanitized(ctx context.Context, deviceID string, from, to *time.Time) ([]models.Snapshot, error) {
	snapshots, err := s.source.List(ctx, models.SnapshotFilter{DeviceID: deviceID, From: from, To: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load snapshots")
	}
	return safety.Sanitize(snapshots), nil
}

func (s *DashboardService) dailyOverride(ctx context.Context, deviceID string) *models.DailyStats {
	stats, err := s.source.LatestDailyStats(ctx, deviceID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to load daily stats override", zap.String("device_id", deviceID), zap.Error(err))
		}
		return nil
	}
	return stats
}

func dashboardCacheKey(deviceID string, from, to *time.Time) string {
	fromPart, toPart := "-", "-"
	if from != nil {
		fromPart = from.UTC().Format(time.RFC3339)
	}
	if to != nil {
		toPart = to.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("dashboard:%s:%s:%s", deviceID, fromPart, toPart)
}
