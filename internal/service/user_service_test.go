package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

type adminUserRepoStub struct {
	users map[string]models.User
}

func (s *adminUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *adminUserRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (s *adminUserRepoStub) Update(ctx context.Context, user *models.User) error {
	s.users[user.ID] = *user
	return nil
}

func newUserFixture() (*adminUserRepoStub, *UserService) {
	repo := &adminUserRepoStub{users: map[string]models.User{
		"admin": {ID: "admin", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true},
		"u-1":   {ID: "u-1", Email: "bob@example.com", Role: models.RoleUser, IsActive: true},
	}}
	return repo, NewUserService(repo, &activityStub{}, zap.NewNop())
}

func TestUserUpdatePromotesToAdmin(t *testing.T) {
	repo, svc := newUserFixture()

	role := models.RoleAdmin
	updated, err := svc.Update(context.Background(), "u-1", &UpdateUserRequest{Role: &role}, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	assert.Equal(t, models.RoleAdmin, repo.users["u-1"].Role)
}

func TestUserUpdateCannotDeactivateSelf(t *testing.T) {
	_, svc := newUserFixture()

	inactive := false
	_, err := svc.Update(context.Background(), "admin", &UpdateUserRequest{IsActive: &inactive}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateCannotDemoteSelf(t *testing.T) {
	_, svc := newUserFixture()

	role := models.RoleUser
	_, err := svc.Update(context.Background(), "admin", &UpdateUserRequest{Role: &role}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserUpdateRejectsUnknownRole(t *testing.T) {
	_, svc := newUserFixture()

	role := models.UserRole("owner")
	_, err := svc.Update(context.Background(), "u-1", &UpdateUserRequest{Role: &role}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserListClampsPageSize(t *testing.T) {
	_, svc := newUserFixture()

	_, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 0, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}
