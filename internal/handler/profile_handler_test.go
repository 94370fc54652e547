package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driveguard/driveguard-api/internal/middleware"
	"github.com/driveguard/driveguard-api/internal/models"
)

type profileServiceMock struct {
	getResp    *models.Profile
	getErr     error
	listResp   []models.Profile
	pagination *models.Pagination
	listErr    error
	deleteErr  error

	deletedID    string
	deletedActor string
	listFilter   models.ProfileFilter
}

func (m *profileServiceMock) Get(ctx context.Context, id string) (*models.Profile, error) {
	return m.getResp, m.getErr
}

func (m *profileServiceMock) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, *models.Pagination, error) {
	m.listFilter = filter
	return m.listResp, m.pagination, m.listErr
}

func (m *profileServiceMock) Delete(ctx context.Context, id, actorID string) error {
	m.deletedID = id
	m.deletedActor = actorID
	return m.deleteErr
}

func TestProfileHandlerGetOwnProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &profileServiceMock{
		getResp: &models.Profile{ID: "p1", Email: "driver@example.com"},
	}
	handler := NewProfileHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/profiles/p1", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", Role: models.RoleDriver})

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "driver@example.com")
}

func TestProfileHandlerGetBlocksForeignProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProfileHandler(&profileServiceMock{})

	c, w := newGinContext(http.MethodGet, "/profiles/p2", nil)
	c.Params = gin.Params{{Key: "id", Value: "p2"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "p1", Role: models.RoleDriver})

	handler.Get(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestProfileHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &profileServiceMock{
		listResp:   []models.Profile{{ID: "p1"}, {ID: "p2"}},
		pagination: &models.Pagination{Page: 1, PageSize: 20, TotalCount: 2},
	}
	handler := NewProfileHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/profiles?search=driver&page=2&page_size=5", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "driver", mockSvc.listFilter.Search)
	assert.Equal(t, 2, mockSvc.listFilter.Page)
	assert.Equal(t, 5, mockSvc.listFilter.PageSize)
}

func TestProfileHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &profileServiceMock{}
	handler := NewProfileHandler(mockSvc)

	c, w := newGinContext(http.MethodDelete, "/profiles/p2", nil)
	c.Params = gin.Params{{Key: "id", Value: "p2"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin", Role: models.RoleAdmin})

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "p2", mockSvc.deletedID)
	assert.Equal(t, "admin", mockSvc.deletedActor)
}
