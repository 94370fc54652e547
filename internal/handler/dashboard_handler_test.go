package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveguard/driveguard-api/internal/dto"
	"github.com/driveguard/driveguard-api/internal/middleware"
	"github.com/driveguard/driveguard-api/internal/models"
)

type dashboardServiceMock struct {
	dashboardResp *dto.DashboardResponse
	dashboardErr  error
	cacheHit      bool
	safetyResp    *dto.SafetyResponse
	safetyErr     error

	requestedDevice string
	requestedFrom   *time.Time
	requestedTo     *time.Time
}

func (m *dashboardServiceMock) Dashboard(ctx context.Context, deviceID string, from, to *time.Time) (*dto.DashboardResponse, bool, error) {
	m.requestedDevice = deviceID
	m.requestedFrom = from
	m.requestedTo = to
	return m.dashboardResp, m.cacheHit, m.dashboardErr
}

func (m *dashboardServiceMock) Safety(ctx context.Context, deviceID string, from, to *time.Time) (*dto.SafetyResponse, error) {
	m.requestedDevice = deviceID
	return m.safetyResp, m.safetyErr
}

func TestDashboardHandlerDashboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dashboardServiceMock{
		dashboardResp: &dto.DashboardResponse{DeviceID: "dev-1", Snapshots: 4},
		cacheHit:      true,
	}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard?deviceId=dev-1&from=2026-03-14T00:00:00Z", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Dashboard(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev-1", mockSvc.requestedDevice)
	require.NotNil(t, mockSvc.requestedFrom)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), mockSvc.requestedFrom.UTC())
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)
}

func TestDashboardHandlerDefaultsToOwnDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dashboardServiceMock{dashboardResp: &dto.DashboardResponse{DeviceID: "dev-1"}}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Dashboard(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev-1", mockSvc.requestedDevice)
}

func TestDashboardHandlerBlocksForeignDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&dashboardServiceMock{})

	c, w := newGinContext(http.MethodGet, "/dashboard?deviceId=other-device", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Dashboard(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestDashboardHandlerAdminCanQueryAnyDevice(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dashboardServiceMock{dashboardResp: &dto.DashboardResponse{DeviceID: "other-device"}}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard?deviceId=other-device", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Dashboard(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "other-device", mockSvc.requestedDevice)
}

func TestDashboardHandlerRejectsBadTimeParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&dashboardServiceMock{})

	c, w := newGinContext(http.MethodGet, "/dashboard?deviceId=dev-1&from=yesterday", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Dashboard(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardHandlerSafety(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &dashboardServiceMock{
		safetyResp: &dto.SafetyResponse{DeviceID: "dev-1", Safety: models.SafetyStats{Score: 72, Status: "Good"}},
	}
	handler := NewDashboardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/dashboard/safety?deviceId=dev-1", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", DeviceID: "dev-1", Role: models.RoleDriver})

	handler.Safety(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Good")
}
