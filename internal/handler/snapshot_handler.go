package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/driveguard/driveguard-api/internal/models"
	appErrors "github.com/driveguard/driveguard-api/pkg/errors"
	"github.com/driveguard/driveguard-api/pkg/response"
)

type snapshotService interface {
	Ingest(ctx context.Context, deviceID string, snapshots []models.Snapshot) (int, error)
	List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error)
}

// SnapshotHandler receives monitoring snapshots from devices and serves the
// raw record listing.
type SnapshotHandler struct {
	service snapshotService
}

// NewSnapshotHandler constructs the snapshot handler.
func NewSnapshotHandler(svc snapshotService) *SnapshotHandler {
	return &SnapshotHandler{service: svc}
}

type ingestRequest struct {
	DeviceID  string            `json:"deviceId"`
	Snapshots []models.Snapshot `json:"snapshots" binding:"required"`
}

type ingestResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

// Ingest godoc
// @Summary Ingest monitoring snapshots
// @Description Accepts a batch of raw snapshots, sanitizes them, and stores the survivors
// @Tags Snapshots
// @Accept json
// @Produce json
// @Param payload body ingestRequest true "Snapshot batch"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /snapshots [post]
func (h *SnapshotHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid snapshot payload"))
		return
	}

	claims := claimsFromContext(c)
	deviceID := req.DeviceID
	if deviceID == "" && claims != nil {
		deviceID = claims.DeviceID
	}
	if claims != nil && claims.Role != models.RoleAdmin && deviceID != claims.DeviceID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot ingest for another device"))
		return
	}

	accepted, err := h.service.Ingest(c.Request.Context(), deviceID, req.Snapshots)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, ingestResponse{
		Accepted: accepted,
		Dropped:  len(req.Snapshots) - accepted,
	}, nil)
}

// List godoc
// @Summary List stored snapshots
// @Description Sanitized snapshots for one device within an optional time range
// @Tags Snapshots
// @Produce json
// @Param deviceId query string false "Device ID (defaults to the caller's device)"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Param limit query int false "Maximum records to return"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /snapshots [get]
func (h *SnapshotHandler) List(c *gin.Context) {
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

	filter := models.SnapshotFilter{DeviceID: deviceID, From: from, To: to}
	if raw := c.Query("limit"); raw != "" {
		limit, convErr := strconv.Atoi(raw)
		if convErr != nil || limit < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit parameter"))
			return
		}
		filter.Limit = limit
	}

	snapshots, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshots, nil)
}
