package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	"github.com/icpl-digital/bi-portal-api/pkg/embedurl"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

type reportRepository interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	FindWithCategory(ctx context.Context, id string) (*models.ReportWithCategory, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	Create(ctx context.Context, report *models.Report) error
	Update(ctx context.Context, report *models.Report) error
	Delete(ctx context.Context, id string) error
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

type reportCategoryRepository interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
}

type reportAccessChecker interface {
	HasAccess(ctx context.Context, user *models.User, reportID string) (bool, error)
}

type menuCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateReportRequest is the admin payload for adding a catalog entry.
type CreateReportRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	EmbedURL    string  `json:"embed_url" validate:"required,url"`
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	SortOrder   int     `json:"sort_order" validate:"gte=0"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateReportRequest mirrors the create payload for edits.
type UpdateReportRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	EmbedURL    string  `json:"embed_url" validate:"required,url"`
	CategoryID  *string `json:"category_id" validate:"omitempty,uuid"`
	SortOrder   int     `json:"sort_order" validate:"gte=0"`
	IsActive    *bool   `json:"is_active"`
}

// ReportService is the catalog side of the portal: admin CRUD plus the
// viewer lookup that hands a cleaned embed URL to the frontend.
type ReportService struct {
	reports    reportRepository
	categories reportCategoryRepository
	access     reportAccessChecker
	cache      menuCache
	activity   activityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReportService builds the service.
func NewReportService(reports reportRepository, categories reportCategoryRepository, access reportAccessChecker, cache menuCache, activity activityRecorder, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:    reports,
		categories: categories,
		access:     access,
		cache:      cache,
		activity:   activity,
		validator:  validator.New(),
		logger:     logger,
	}
}

// GetForViewer loads one report for display, enforcing access and returning
// the embed URL with the navigation pane disabled. Inactive and unknown
// reports both come back NOT_FOUND; a live report without a grant is
// FORBIDDEN so the frontend can show a request-access message.
func (s *ReportService) GetForViewer(ctx context.Context, user *models.User, id string) (*models.ReportWithCategory, error) {
	ok, err := s.access.HasAccess(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to report")
	}

	report, err := s.reports.FindWithCategory(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	report.EmbedURL = embedurl.Clean(report.EmbedURL)
	return report, nil
}

// GetByID loads one report for the admin console, inactive rows included.
func (s *ReportService) GetByID(ctx context.Context, id string) (*models.ReportWithCategory, error) {
	report, err := s.reports.FindWithCategory(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	return report, nil
}

// List returns catalog reports for the admin console.
func (s *ReportService) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	reports, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// Create adds a catalog entry. The referenced category must exist.
func (s *ReportService) Create(ctx context.Context, req *CreateReportRequest, actorID string) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	report := &models.Report{
		Name:        req.Name,
		Description: req.Description,
		EmbedURL:    req.EmbedURL,
		CategoryID:  req.CategoryID,
		SortOrder:   req.SortOrder,
		IsActive:    active,
		CreatedBy:   &actorID,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.invalidateMenus(ctx)
	s.record(ctx, actorID, models.ActivityReportCreate, report.ID, map[string]string{"name": report.Name})
	return report, nil
}

// Update replaces the editable fields of a catalog entry.
func (s *ReportService) Update(ctx context.Context, id string, req *UpdateReportRequest, actorID string) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	report.Name = req.Name
	report.Description = req.Description
	report.EmbedURL = req.EmbedURL
	report.CategoryID = req.CategoryID
	report.SortOrder = req.SortOrder
	if req.IsActive != nil {
		report.IsActive = *req.IsActive
	}
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}

	s.invalidateMenus(ctx)
	s.record(ctx, actorID, models.ActivityReportUpdate, report.ID, map[string]string{"name": report.Name})
	return report, nil
}

// Delete removes a report together with its grant and preference rows in one
// transaction, so a failed delete leaves everything in place.
func (s *ReportService) Delete(ctx context.Context, id string, actorID string) error {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	if err := s.reports.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}

	s.invalidateMenus(ctx)
	s.record(ctx, actorID, models.ActivityReportDelete, id, map[string]string{"name": report.Name})
	return nil
}

func (s *ReportService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "category does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return nil
}

func (s *ReportService) invalidateMenus(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "menu:*"); err != nil {
		s.logger.Warn("failed to invalidate menu cache", zap.Error(err))
	}
}

func (s *ReportService) record(ctx context.Context, actorID, action, entityID string, details interface{}) {
	if s.activity == nil {
		return
	}
	payload, _ := json.Marshal(details)
	if err := s.activity.Record(ctx, &models.ActivityLog{
		UserID:     &actorID,
		Action:     action,
		EntityType: "report",
		EntityID:   &entityID,
		Details:    models.ActivityDetails(payload),
	}); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
