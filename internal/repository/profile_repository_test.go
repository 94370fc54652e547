package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/driveguard/driveguard-api/internal/models"
)

func newProfileRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProfileRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO profiles")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile := &models.Profile{
		Email:        "driver@example.com",
		PasswordHash: "hash",
		FullName:     "Test Driver",
		DeviceID:     "dev-1",
		Role:         models.RoleDriver,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), profile))
	require.NotEmpty(t, profile.ID)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "device_id", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow(profile.ID, profile.Email, profile.PasswordHash, profile.FullName, profile.DeviceID, profile.Role, true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash")).
		WithArgs(profile.Email).
		WillReturnRows(rows)

	found, err := repo.FindByEmail(context.Background(), profile.Email)
	require.NoError(t, err)
	require.Equal(t, profile.ID, found.ID)
	require.Equal(t, "dev-1", found.DeviceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash")).
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryListWithSearch(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "device_id", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("user-1", "driver@example.com", "hash", "Test Driver", "dev-1", "DRIVER", true, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash")).
		WithArgs("%driver%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("%driver%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	profiles, total, err := repo.List(context.Background(), models.ProfileFilter{Search: "Driver", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles")).
		WithArgs("user-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "user-404")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.CreateRefreshToken(context.Background(), &models.RefreshToken{
		ID:        "rt-1",
		UserID:    "user-1",
		Token:     "opaque",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}))

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent"}).
		AddRow("rt-1", "user-1", "opaque", now.Add(time.Hour), now, false, nil, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token")).
		WithArgs("opaque").
		WillReturnRows(rows)

	stored, err := repo.FindRefreshToken(context.Background(), "opaque")
	require.NoError(t, err)
	require.Equal(t, "rt-1", stored.ID)
	require.False(t, stored.Revoked)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE")).
		WithArgs("rt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "rt-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}
