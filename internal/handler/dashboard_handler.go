package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/driveguard/driveguard-api/internal/dto"
	"github.com/driveguard/driveguard-api/internal/middleware"
	"github.com/driveguard/driveguard-api/internal/models"
	appErrors "github.com/driveguard/driveguard-api/pkg/errors"
	"github.com/driveguard/driveguard-api/pkg/response"
)

type dashboardService interface {
	Dashboard(ctx context.Context, deviceID string, from, to *time.Time) (*dto.DashboardResponse, bool, error)
	Safety(ctx context.Context, deviceID string, from, to *time.Time) (*dto.SafetyResponse, error)
}

// DashboardHandler exposes chart-ready monitoring endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Dashboard godoc
// @Summary Get dashboard payload
// @Description Composed distribution, hourly activity, safety score, and time series for one device
// @Tags Dashboard
// @Produce json
// @Param deviceId query string false "Device ID (defaults to the caller's device)"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	deviceID, err := resolveDeviceID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := parseTimeRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	res, cacheHit, err := h.service.Dashboard(c.Request.Context(), deviceID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, res, nil, meta)
}

// Safety godoc
// @Summary Get safety summary
// @Description Safety score, label, and event totals for one device
// @Tags Dashboard
// @Produce json
// @Param deviceId query string false "Device ID (defaults to the caller's device)"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/safety [get]
func (h *DashboardHandler) Safety(c *gin.Context) {
	deviceID, err := resolveDeviceID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := parseTimeRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Safety(c.Request.Context(), deviceID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// resolveDeviceID picks the device from the query string, falling back to the
// caller's own device. Drivers may only query their own device.
func resolveDeviceID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	deviceID := c.Query("deviceId")
	if deviceID == "" {
		if claims == nil || claims.DeviceID == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "deviceId is required")
		}
		return claims.DeviceID, nil
	}
	if claims != nil && claims.Role != models.RoleAdmin && claims.DeviceID != deviceID {
		return "", appErrors.Clone(appErrors.ErrForbidden, "cannot access another device")
	}
	return deviceID, nil
}

func parseTimeRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid from parameter")
		}
		from = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid to parameter")
		}
		to = &parsed
	}
	return from, to, nil
}
