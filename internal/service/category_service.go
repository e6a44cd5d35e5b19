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

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

type categoryReportCounter interface {
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryRequest is the admin payload for both create and update.
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Icon        string  `json:"icon" validate:"omitempty,max=64"`
	SortOrder   int     `json:"sort_order" validate:"gte=0"`
}

// CategoryService manages sidebar categories.
type CategoryService struct {
	categories categoryRepository
	reports    categoryReportCounter
	cache      menuCache
	activity   activityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCategoryService builds the service.
func NewCategoryService(categories categoryRepository, reports categoryReportCounter, cache menuCache, activity activityRecorder, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categories: categories,
		reports:    reports,
		cache:      cache,
		activity:   activity,
		validator:  validator.New(),
		logger:     logger,
	}
}

// List returns all categories in sidebar order.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// GetByID returns one category.
func (s *CategoryService) GetByID(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category, nil
}

// Create adds a category.
func (s *CategoryService) Create(ctx context.Context, req *CategoryRequest, actorID string) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		SortOrder:   req.SortOrder,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	s.invalidateMenus(ctx)
	s.record(ctx, actorID, models.ActivityCategoryCreate, category.ID, map[string]string{"name": category.Name})
	return category, nil
}

// Update replaces the editable fields of a category.
func (s *CategoryService) Update(ctx context.Context, id string, req *CategoryRequest, actorID string) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	category.Name = req.Name
	category.Description = req.Description
	category.Icon = req.Icon
	category.SortOrder = req.SortOrder
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}

	s.invalidateMenus(ctx)
	s.record(ctx, actorID, models.ActivityCategoryUpdate, category.ID, map[string]string{"name": category.Name})
	return category, nil
}

// Delete removes a category. A category still referenced by reports is
// refused with CATEGORY_IN_USE; reports must be moved or deleted first.
func (s *CategoryService) Delete(ctx context.Context, id string, actorID string) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	count, err := s.reports.CountByCategory(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count category reports")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrCategoryInUse, "")
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}

	s.invalidateMenus(ctx)
	s.record(ctx, actorID, models.ActivityCategoryDelete, id, map[string]string{"name": category.Name})
	return nil
}

func (s *CategoryService) invalidateMenus(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "menu:*"); err != nil {
		s.logger.Warn("failed to invalidate menu cache", zap.Error(err))
	}
}

func (s *CategoryService) record(ctx context.Context, actorID, action, entityID string, details interface{}) {
	if s.activity == nil {
		return
	}
	payload, _ := json.Marshal(details)
	if err := s.activity.Record(ctx, &models.ActivityLog{
		UserID:     &actorID,
		Action:     action,
		EntityType: "category",
		EntityID:   &entityID,
		Details:    models.ActivityDetails(payload),
	}); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
