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

func newAccessMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAccessRepositoryGrant(t *testing.T) {
	db, mock, cleanup := newAccessMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	mock.ExpectExec("INSERT INTO user_report_access .+ ON CONFLICT \\(user_id, report_id\\) DO NOTHING").
		WithArgs(sqlmock.AnyArg(), "user-1", "report-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	grantedBy := "admin-1"
	err := repo.Grant(context.Background(), &models.ReportAccess{UserID: "user-1", ReportID: "report-1", GrantedBy: &grantedBy})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRepositoryGrantDuplicateIsSilent(t *testing.T) {
	db, mock, cleanup := newAccessMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	// conflict path: zero rows affected, still no error
	mock.ExpectExec("INSERT INTO user_report_access").
		WithArgs(sqlmock.AnyArg(), "user-1", "report-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Grant(context.Background(), &models.ReportAccess{UserID: "user-1", ReportID: "report-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRepositoryRevokeMissingIsSilent(t *testing.T) {
	db, mock, cleanup := newAccessMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	mock.ExpectExec("DELETE FROM user_report_access WHERE user_id = \\$1 AND report_id = \\$2").
		WithArgs("user-1", "report-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), "user-1", "report-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRepositoryExists(t *testing.T) {
	db, mock, cleanup := newAccessMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("user-1", "report-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.Exists(context.Background(), "user-1", "report-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRepositoryReportIDsForUser(t *testing.T) {
	db, mock, cleanup := newAccessMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	mock.ExpectQuery("SELECT report_id FROM user_report_access WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"report_id"}).AddRow("report-1").AddRow("report-2"))

	ids, err := repo.ReportIDsForUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"report-1", "report-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newAccessMock(t)
	defer cleanup()
	repo := NewAccessRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, user_id, report_id, granted_by, granted_at FROM user_report_access ORDER BY granted_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "report_id", "granted_by", "granted_at"}).
			AddRow("a-1", "user-1", "report-1", "admin-1", now))

	grants, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "user-1", grants[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
