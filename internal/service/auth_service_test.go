package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/driveguard/driveguard-api/internal/models"
	appErrors "github.com/driveguard/driveguard-api/pkg/errors"
)

type mockProfileRepo struct {
	profilesByEmail  map[string]*models.Profile
	profilesByDevice map[string]*models.Profile
	profilesByID     map[string]*models.Profile
	refreshTokens    map[string]*models.RefreshToken
	auditLogs        []*models.AuditLog
	lastLoginUpdated bool
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{
		profilesByEmail:  make(map[string]*models.Profile),
		profilesByDevice: make(map[string]*models.Profile),
		profilesByID:     make(map[string]*models.Profile),
		refreshTokens:    make(map[string]*models.RefreshToken),
	}
}

func (m *mockProfileRepo) add(p *models.Profile) {
	m.profilesByEmail[p.Email] = p
	m.profilesByDevice[p.DeviceID] = p
	m.profilesByID[p.ID] = p
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = "generated-id"
	}
	m.add(profile)
	return nil
}

func (m *mockProfileRepo) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if p, ok := m.profilesByEmail[email]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindByDeviceID(ctx context.Context, deviceID string) (*models.Profile, error) {
	if p, ok := m.profilesByDevice[deviceID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := m.profilesByID[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockProfileRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if p, ok := m.profilesByID[id]; ok {
		p.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockProfileRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, token := range m.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *mockProfileRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockProfileRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if rt, ok := m.refreshTokens[token]; ok {
		return rt, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockProfileRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newTestAuthService(repo *mockProfileRepo, events *AuthEvents) *AuthService {
	return NewAuthService(repo, events, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "driveguard-test",
	})
}

func TestAuthServiceRegisterSuccess(t *testing.T) {
	repo := newMockProfileRepo()
	events := NewAuthEvents()
	var received []AuthEvent
	events.Subscribe(func(e AuthEvent) { received = append(received, e) })
	svc := newTestAuthService(repo, events)

	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "driver@example.com",
		Password: "password",
		FullName: "Test Driver",
		DeviceID: "dev-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleDriver, res.User.Role)
	assert.Equal(t, "dev-1", res.User.DeviceID)
	require.Len(t, received, 1)
	assert.Equal(t, models.AuditActionRegister, received[0].Action)
	require.NotEmpty(t, repo.auditLogs)
	assert.Equal(t, models.AuditActionRegister, repo.auditLogs[0].Action)
}

func TestAuthServiceRegisterEmailTaken(t *testing.T) {
	repo := newMockProfileRepo()
	repo.add(&models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-other"})
	svc := newTestAuthService(repo, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "driver@example.com",
		Password: "password",
		FullName: "Test Driver",
		DeviceID: "dev-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmailTaken.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterDeviceTaken(t *testing.T) {
	repo := newMockProfileRepo()
	repo.add(&models.Profile{ID: "p1", Email: "other@example.com", DeviceID: "dev-1"})
	svc := newTestAuthService(repo, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "driver@example.com",
		Password: "password",
		FullName: "Test Driver",
		DeviceID: "dev-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDeviceTaken.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := newMockProfileRepo()
	repo.add(&models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-1", PasswordHash: string(hash), Active: true, Role: models.RoleDriver})
	svc := newTestAuthService(repo, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "driver@example.com", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := newMockProfileRepo()
	repo.add(&models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-1", PasswordHash: string(hash), Active: true})
	svc := newTestAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "driver@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := newMockProfileRepo()
	repo.add(&models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-1", PasswordHash: string(hash), Active: false})
	svc := newTestAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "driver@example.com", Password: "password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := newMockProfileRepo()
	profile := &models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-1", Active: true, Role: models.RoleDriver}
	repo.add(profile)
	repo.refreshTokens["old-token"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "p1",
		Token:     "old-token",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	svc := newTestAuthService(repo, nil)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "old-token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
}

func TestAuthServiceRefreshExpired(t *testing.T) {
	repo := newMockProfileRepo()
	repo.add(&models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-1", Active: true})
	repo.refreshTokens["stale"] = &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "p1",
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	svc := newTestAuthService(repo, nil)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutOwnershipCheck(t *testing.T) {
	repo := newMockProfileRepo()
	repo.refreshTokens["token"] = &models.RefreshToken{ID: "rt-1", UserID: "p1", Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestAuthService(repo, nil)

	err := svc.Logout(context.Background(), "token", "someone-else", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), "token", "p1", "", ""))
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.DefaultCost)
	repo := newMockProfileRepo()
	repo.add(&models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-1", PasswordHash: string(hash), Active: true})
	repo.refreshTokens["session"] = &models.RefreshToken{ID: "rt-1", UserID: "p1", Token: "session", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newTestAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "p1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "new-pass"})
	require.Error(t, err)

	err = svc.ChangePassword(context.Background(), "p1", models.ChangePasswordRequest{OldPassword: "old-pass", NewPassword: "new-pass"})
	require.NoError(t, err)
	assert.True(t, repo.refreshTokens["session"].Revoked)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.profilesByID["p1"].PasswordHash), []byte("new-pass")))
}

func TestAuthServiceValidateToken(t *testing.T) {
	repo := newMockProfileRepo()
	profile := &models.Profile{ID: "p1", Email: "driver@example.com", DeviceID: "dev-1", Active: true, Role: models.RoleDriver}
	repo.add(profile)
	svc := newTestAuthService(repo, nil)

	res, err := svc.issueTokens(context.Background(), profile, "", "")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.UserID)
	assert.Equal(t, "dev-1", claims.DeviceID)
	assert.Equal(t, models.RoleDriver, claims.Role)

	_, err = svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
