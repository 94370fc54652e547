package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveguard/driveguard-api/internal/middleware"
	"github.com/driveguard/driveguard-api/internal/models"
)

type snapshotServiceMock struct {
	accepted  int
	ingestErr error
	listResp  []models.Snapshot
	listErr   error

	ingestedDevice string
	ingestedBatch  []models.Snapshot
	listFilter     models.SnapshotFilter
}

func (m *snapshotServiceMock) Ingest(ctx context.Context, deviceID string, snapshots []models.Snapshot) (int, error) {
	m.ingestedDevice = deviceID
	m.ingestedBatch = snapshots
	return m.accepted, m.ingestErr
}

func (m *snapshotServiceMock) List(ctx context.Context, filter models.SnapshotFilter) ([]models.Snapshot, error) {
	m.listFilter = filter
	return m.listResp, m.listErr
}

func TestSnapshotHandlerIngest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &snapshotServiceMock{accepted: 2}
	handler := NewSnapshotHandler(mockSvc)

	payload, _ := json.Marshal(ingestRequest{
		DeviceID: "dev-1",
		Snapshots: []models.Snapshot{
			{Timestamp: time.Now(), EAR: 0.3, Status: models.StatusNormal},
			{Timestamp: time.Now(), EAR: 0.2, Status: models.StatusDrowsiness},
			{EAR: 0.1},
		},
	})
	c, w := newGinContext(http.MethodPost, "/snapshots", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Ingest(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "dev-1", mockSvc.ingestedDevice)
	assert.Len(t, mockSvc.ingestedBatch, 3)
	assert.Contains(t, w.Body.String(), `"accepted":2`)
	assert.Contains(t, w.Body.String(), `"dropped":1`)
}

func TestSnapshotHandlerIngestDefaultsToOwnDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &snapshotServiceMock{accepted: 1}
	handler := NewSnapshotHandler(mockSvc)

	payload, _ := json.Marshal(ingestRequest{
		Snapshots: []models.Snapshot{{Timestamp: time.Now(), EAR: 0.3}},
	})
	c, w := newGinContext(http.MethodPost, "/snapshots", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Ingest(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "dev-1", mockSvc.ingestedDevice)
}

func TestSnapshotHandlerIngestBlocksForeignDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSnapshotHandler(&snapshotServiceMock{})

	payload, _ := json.Marshal(ingestRequest{
		DeviceID:  "other-device",
		Snapshots: []models.Snapshot{{Timestamp: time.Now()}},
	})
	c, w := newGinContext(http.MethodPost, "/snapshots", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Ingest(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSnapshotHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &snapshotServiceMock{
		listResp: []models.Snapshot{{DeviceID: "dev-1", Timestamp: time.Now(), EAR: 0.3}},
	}
	handler := NewSnapshotHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/snapshots?deviceId=dev-1&limit=10", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev-1", mockSvc.listFilter.DeviceID)
	assert.Equal(t, 10, mockSvc.listFilter.Limit)
}

func TestSnapshotHandlerListRejectsBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSnapshotHandler(&snapshotServiceMock{})

	c, w := newGinContext(http.MethodGet, "/snapshots?deviceId=dev-1&limit=lots", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
