package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
}

// UpdateUserRequest is the admin payload for changing role, department or
// active state. Admins never set names or emails; those come from sign-in.
type UpdateUserRequest struct {
	Role       *models.UserRole `json:"role" validate:"omitempty,oneof=admin user"`
	Department *string          `json:"department" validate:"omitempty,max=255"`
	IsActive   *bool            `json:"is_active"`
}

// UserService is the admin view over portal users.
type UserService struct {
	users     userRepository
	activity  activityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users userRepository, activity activityRecorder, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, activity: activity, validator: validator.New(), logger: logger}
}

// List returns users matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Update applies admin edits. An admin cannot deactivate or demote their own
// account, which keeps at least one working admin session alive.
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest, actorID string) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if id == actorID {
		if req.IsActive != nil && !*req.IsActive {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot deactivate your own account")
		}
		if req.Role != nil && *req.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot demote your own account")
		}
	}

	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Department != nil {
		user.Department = req.Department
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.record(ctx, actorID, id, map[string]interface{}{
		"role":      user.Role,
		"is_active": user.IsActive,
	})
	return user, nil
}

func (s *UserService) record(ctx context.Context, actorID, entityID string, details interface{}) {
	if s.activity == nil {
		return
	}
	payload, _ := json.Marshal(details)
	if err := s.activity.Record(ctx, &models.ActivityLog{
		UserID:     &actorID,
		Action:     models.ActivityUserUpdate,
		EntityType: "user",
		EntityID:   &entityID,
		Details:    models.ActivityDetails(payload),
	}); err != nil {
		s.logger.Warn("failed to record activity", zap.Error(err))
	}
}
