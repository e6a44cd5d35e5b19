package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icpl-digital/bi-portal-api/internal/models"
)

func newActivityMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestActivityRepositoryCreateBindsDetailsAsJSONText(t *testing.T) {
	db, mock, cleanup := newActivityMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	userID := "u-1"
	entityID := "r-1"
	// details must reach the driver as JSON text, not a byte slice,
	// so Postgres can coerce it into the jsonb column
	mock.ExpectExec("INSERT INTO activity_logs").
		WithArgs(sqlmock.AnyArg(), userID, models.ActivityTogglePin, "preference", entityID,
			`{"pinned":true}`, "10.0.0.1", "test-agent", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.ActivityLog{
		UserID:     &userID,
		Action:     models.ActivityTogglePin,
		EntityType: "preference",
		EntityID:   &entityID,
		Details:    models.ActivityDetails(`{"pinned":true}`),
		IPAddress:  "10.0.0.1",
		UserAgent:  "test-agent",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryCreateEmptyDetailsBindsNull(t *testing.T) {
	db, mock, cleanup := newActivityMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	userID := "u-1"
	mock.ExpectExec("INSERT INTO activity_logs").
		WithArgs(sqlmock.AnyArg(), userID, models.ActivityLogout, "session", nil,
			nil, "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.ActivityLog{
		UserID:     &userID,
		Action:     models.ActivityLogout,
		EntityType: "session",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListRecentScansDetails(t *testing.T) {
	db, mock, cleanup := newActivityMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, user_id, action, entity_type, entity_id, details, ip_address, user_agent, created_at\\s+FROM activity_logs ORDER BY created_at DESC LIMIT \\$1").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "entity_type", "entity_id", "details", "ip_address", "user_agent", "created_at"}).
			AddRow("a-1", "u-1", models.ActivityReorder, "preference", nil, []byte(`{"count":3}`), "10.0.0.1", "test-agent", now))

	logs, err := repo.ListRecent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActivityDetails(`{"count":3}`), logs[0].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}
