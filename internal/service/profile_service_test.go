package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/driveguard/driveguard-api/internal/models"
	appErrors "github.com/driveguard/driveguard-api/pkg/errors"
)

type mockAdminRepo struct {
	profiles map[string]*models.Profile
	listed   []models.Profile
	total    int

	revoked []string
	deleted []string
	audits  []models.AuditLog

	listFilter models.ProfileFilter
}

func newMockAdminRepo() *mockAdminRepo {
	return &mockAdminRepo{profiles: make(map[string]*models.Profile)}
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	profile, ok := m.profiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return profile, nil
}

func (m *mockAdminRepo) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	m.listFilter = filter
	return m.listed, m.total, nil
}

func (m *mockAdminRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.profiles[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.profiles, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockAdminRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockAdminRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func TestProfileServiceGetNotFound(t *testing.T) {
	svc := NewProfileService(newMockAdminRepo(), nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProfileServiceListClampsPaging(t *testing.T) {
	repo := newMockAdminRepo()
	repo.listed = []models.Profile{{ID: "p1"}}
	repo.total = 1
	svc := NewProfileService(repo, nil, zap.NewNop())

	_, pagination, err := svc.List(context.Background(), models.ProfileFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listFilter.Page)
	assert.Equal(t, 20, repo.listFilter.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestProfileServiceDeleteRevokesSessionsAndAudits(t *testing.T) {
	repo := newMockAdminRepo()
	repo.profiles["p1"] = &models.Profile{ID: "p1", Email: "driver@example.com"}

	events := NewAuthEvents()
	var published []AuthEvent
	unsubscribe := events.Subscribe(func(e AuthEvent) { published = append(published, e) })
	defer unsubscribe()

	svc := NewProfileService(repo, events, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "p1", "admin"))
	assert.Equal(t, []string{"p1"}, repo.revoked)
	assert.Equal(t, []string{"p1"}, repo.deleted)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionProfileDelete, repo.audits[0].Action)
	require.Len(t, published, 1)
	assert.Equal(t, "driver@example.com", published[0].Email)
}

func TestProfileServiceDeleteMissing(t *testing.T) {
	svc := NewProfileService(newMockAdminRepo(), nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing", "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
