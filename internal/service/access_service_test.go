package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

type accessRepoStub struct {
	grants   map[string]bool
	grantErr error
}

func grantKey(userID, reportID string) string { return userID + ":" + reportID }

func (s *accessRepoStub) Grant(ctx context.Context, access *models.ReportAccess) error {
	if s.grantErr != nil {
		return s.grantErr
	}
	if s.grants == nil {
		s.grants = make(map[string]bool)
	}
	s.grants[grantKey(access.UserID, access.ReportID)] = true
	return nil
}

func (s *accessRepoStub) Revoke(ctx context.Context, userID, reportID string) error {
	delete(s.grants, grantKey(userID, reportID))
	return nil
}

func (s *accessRepoStub) Exists(ctx context.Context, userID, reportID string) (bool, error) {
	return s.grants[grantKey(userID, reportID)], nil
}

func (s *accessRepoStub) ReportIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for key, ok := range s.grants {
		if ok && key[:len(userID)+1] == userID+":" {
			ids = append(ids, key[len(userID)+1:])
		}
	}
	return ids, nil
}

func (s *accessRepoStub) UserIDsForReport(ctx context.Context, reportID string) ([]string, error) {
	return nil, nil
}

func (s *accessRepoStub) ListAll(ctx context.Context) ([]models.ReportAccess, error) {
	return nil, nil
}

type reportRepoStub struct {
	reports map[string]models.Report
}

func (s *reportRepoStub) FindByID(ctx context.Context, id string) (*models.Report, error) {
	if r, ok := s.reports[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reportRepoStub) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	var out []models.Report
	for _, r := range s.reports {
		if filter.Active != nil && r.IsActive != *filter.Active {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *reportRepoStub) ListActiveByIDs(ctx context.Context, ids []string) ([]models.Report, error) {
	var out []models.Report
	for _, id := range ids {
		if r, ok := s.reports[id]; ok && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

type userRepoStub struct {
	users map[string]models.User
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func newAccessFixture() (*accessRepoStub, *reportRepoStub, *userRepoStub, *AccessService) {
	access := &accessRepoStub{grants: map[string]bool{}}
	reports := &reportRepoStub{reports: map[string]models.Report{
		"r-1": {ID: "r-1", Name: "Sales", IsActive: true},
		"r-2": {ID: "r-2", Name: "Finance", IsActive: true},
		"r-3": {ID: "r-3", Name: "Archived", IsActive: false},
	}}
	users := &userRepoStub{users: map[string]models.User{
		"u-1":   {ID: "u-1", Role: models.RoleUser, IsActive: true},
		"admin": {ID: "admin", Role: models.RoleAdmin, IsActive: true},
	}}
	svc := NewAccessService(access, reports, users, nil, &activityStub{}, zap.NewNop())
	return access, reports, users, svc
}

func TestListAccessibleReportsAdminSeesAllActive(t *testing.T) {
	_, _, _, svc := newAccessFixture()

	admin := &models.User{ID: "admin", Role: models.RoleAdmin, IsActive: true}
	reports, err := svc.ListAccessibleReports(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
	for _, r := range reports {
		assert.True(t, r.IsActive)
	}
}

func TestListAccessibleReportsUserNeedsGrants(t *testing.T) {
	access, _, _, svc := newAccessFixture()

	user := &models.User{ID: "u-1", Role: models.RoleUser, IsActive: true}
	reports, err := svc.ListAccessibleReports(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, reports)

	access.grants[grantKey("u-1", "r-1")] = true
	reports, err = svc.ListAccessibleReports(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "r-1", reports[0].ID)
}

func TestListAccessibleReportsExcludesInactive(t *testing.T) {
	access, _, _, svc := newAccessFixture()
	access.grants[grantKey("u-1", "r-3")] = true

	user := &models.User{ID: "u-1", Role: models.RoleUser, IsActive: true}
	reports, err := svc.ListAccessibleReports(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestHasAccessUnknownReportIsNotFound(t *testing.T) {
	_, _, _, svc := newAccessFixture()

	user := &models.User{ID: "u-1", Role: models.RoleUser, IsActive: true}
	_, err := svc.HasAccess(context.Background(), user, "r-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHasAccessInactiveReportIsNotFound(t *testing.T) {
	access, _, _, svc := newAccessFixture()
	access.grants[grantKey("u-1", "r-3")] = true

	user := &models.User{ID: "u-1", Role: models.RoleUser, IsActive: true}
	_, err := svc.HasAccess(context.Background(), user, "r-3")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHasAccessWithoutGrantIsFalseNoError(t *testing.T) {
	_, _, _, svc := newAccessFixture()

	user := &models.User{ID: "u-1", Role: models.RoleUser, IsActive: true}
	ok, err := svc.HasAccess(context.Background(), user, "r-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasAccessAdminImplicit(t *testing.T) {
	_, _, _, svc := newAccessFixture()

	admin := &models.User{ID: "admin", Role: models.RoleAdmin, IsActive: true}
	ok, err := svc.HasAccess(context.Background(), admin, "r-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantUnknownUserIsNotFound(t *testing.T) {
	_, _, _, svc := newAccessFixture()

	err := svc.Grant(context.Background(), "u-missing", "r-1", "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGrantThenRevoke(t *testing.T) {
	access, _, _, svc := newAccessFixture()

	require.NoError(t, svc.Grant(context.Background(), "u-1", "r-1", "admin"))
	assert.True(t, access.grants[grantKey("u-1", "r-1")])

	require.NoError(t, svc.Revoke(context.Background(), "u-1", "r-1", "admin"))
	assert.False(t, access.grants[grantKey("u-1", "r-1")])

	// revoking again stays silent
	require.NoError(t, svc.Revoke(context.Background(), "u-1", "r-1", "admin"))
}

func TestSetAllForUserEnablesEveryActiveReport(t *testing.T) {
	access, _, _, svc := newAccessFixture()

	result, err := svc.SetAllForUser(context.Background(), "u-1", true, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Granted)
	assert.Empty(t, result.Failed)
	assert.True(t, access.grants[grantKey("u-1", "r-1")])
	assert.True(t, access.grants[grantKey("u-1", "r-2")])
}

func TestSetAllForUserDisableRevokesAll(t *testing.T) {
	access, _, _, svc := newAccessFixture()
	access.grants[grantKey("u-1", "r-1")] = true
	access.grants[grantKey("u-1", "r-2")] = true

	result, err := svc.SetAllForUser(context.Background(), "u-1", false, "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Revoked)
	assert.False(t, access.grants[grantKey("u-1", "r-1")])
}

func TestSetAllForUserReportsFailures(t *testing.T) {
	access, _, _, svc := newAccessFixture()
	access.grantErr = errors.New("boom")

	result, err := svc.SetAllForUser(context.Background(), "u-1", true, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Granted)
	assert.Len(t, result.Failed, 2)
}
