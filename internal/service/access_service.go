package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

type accessRepository interface {
	Grant(ctx context.Context, access *models.ReportAccess) error
	Revoke(ctx context.Context, userID, reportID string) error
	Exists(ctx context.Context, userID, reportID string) (bool, error)
	ReportIDsForUser(ctx context.Context, userID string) ([]string, error)
	UserIDsForReport(ctx context.Context, reportID string) ([]string, error)
	ListAll(ctx context.Context) ([]models.ReportAccess, error)
}

type accessReportRepository interface {
	FindByID(ctx context.Context, id string) (*models.Report, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	ListActiveByIDs(ctx context.Context, ids []string) ([]models.Report, error)
}

type accessUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AccessService resolves who may view which reports and mutates grants.
//
// Authorization rule: an admin may view every active report without a grant
// row; everyone else needs an explicit grant. The rule is applied uniformly
// across the viewer, sidebar and matrix surfaces.
type AccessService struct {
	access   accessRepository
	reports  accessReportRepository
	users    accessUserRepository
	cache    menuCache
	activity activityRecorder
	logger   *zap.Logger
}

// NewAccessService builds the service.
func NewAccessService(access accessRepository, reports accessReportRepository, users accessUserRepository, cache menuCache, activity activityRecorder, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{access: access, reports: reports, users: users, cache: cache, activity: activity, logger: logger}
}

// ListAccessibleReports returns the active reports the user may view, in
// catalog order. Display ordering is the preference engine's concern.
func (s *AccessService) ListAccessibleReports(ctx context.Context, user *models.User) ([]models.Report, error) {
	if user == nil {
		return nil, appErrors.ErrUnauthorized
	}

	if user.IsAdmin() {
		active := true
		reports, err := s.reports.List(ctx, models.ReportFilter{Active: &active})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
		}
		return reports, nil
	}

	ids, err := s.access.ReportIDsForUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grants")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	reports, err := s.reports.ListActiveByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// HasAccess reports whether the user may view the report. A missing or
// inactive report yields NOT_FOUND; a live report without a grant yields
// false with no error so callers can render a distinct forbidden state.
func (s *AccessService) HasAccess(ctx context.Context, user *models.User, reportID string) (bool, error) {
	if user == nil {
		return false, appErrors.ErrUnauthorized
	}

	report, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	if !report.IsActive {
		return false, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}

	if user.IsAdmin() {
		return true, nil
	}

	exists, err := s.access.Exists(ctx, user.ID, reportID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check access")
	}
	return exists, nil
}

// Grant inserts a grant for the pair. Granting twice is a silent success.
func (s *AccessService) Grant(ctx context.Context, userID, reportID, grantedBy string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if _, err := s.reports.FindByID(ctx, reportID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	access := &models.ReportAccess{UserID: userID, ReportID: reportID, GrantedBy: &grantedBy}
	if err := s.access.Grant(ctx, access); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant access")
	}

	s.invalidateMenu(ctx, userID)
	s.record(ctx, grantedBy, models.ActivityAccessGrant, "access", userID+":"+reportID, map[string]string{
		"user_id":   userID,
		"report_id": reportID,
	})
	return nil
}

// Revoke removes the grant for the pair. Revoking a missing grant is a
// silent success.
func (s *AccessService) Revoke(ctx context.Context, userID, reportID, revokedBy string) error {
	if err := s.access.Revoke(ctx, userID, reportID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke access")
	}

	s.invalidateMenu(ctx, userID)
	s.record(ctx, revokedBy, models.ActivityAccessRevoke, "access", userID+":"+reportID, map[string]string{
		"user_id":   userID,
		"report_id": reportID,
	})
	return nil
}

// SetAllForUser toggles the full matrix row for a user: enabling grants every
// active report, disabling revokes every grant. The batch is issued as
// individual grant/revoke calls, so a failure leaves a mixed state; the
// result names the report ids that failed and callers re-read the grants.
func (s *AccessService) SetAllForUser(ctx context.Context, userID string, enabled bool, actorID string) (*models.BulkAccessResult, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	active := true
	reports, err := s.reports.List(ctx, models.ReportFilter{Active: &active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	result := &models.BulkAccessResult{}
	for _, report := range reports {
		if enabled {
			access := &models.ReportAccess{UserID: userID, ReportID: report.ID, GrantedBy: &actorID}
			if err := s.access.Grant(ctx, access); err != nil {
				s.logger.Warn("bulk grant failed", zap.String("user_id", userID), zap.String("report_id", report.ID), zap.Error(err))
				result.Failed = append(result.Failed, report.ID)
				continue
			}
			result.Granted++
		} else {
			if err := s.access.Revoke(ctx, userID, report.ID); err != nil {
				s.logger.Warn("bulk revoke failed", zap.String("user_id", userID), zap.String("report_id", report.ID), zap.Error(err))
				result.Failed = append(result.Failed, report.ID)
				continue
			}
			result.Revoked++
		}
	}

	s.invalidateMenu(ctx, userID)

	action := models.ActivityAccessGrant
	if !enabled {
		action = models.ActivityAccessRevoke
	}
	s.record(ctx, actorID, action, "access", userID, map[string]interface{}{
		"bulk":    true,
		"granted": result.Granted,
		"revoked": result.Revoked,
		"failed":  len(result.Failed),
	})
	return result, nil
}

// GrantsForUser returns the report ids the user holds grants for.
func (s *AccessService) GrantsForUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.access.ReportIDsForUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grants")
	}
	return ids, nil
}

// UsersForReport returns the user ids holding a grant for the report.
func (s *AccessService) UsersForReport(ctx context.Context, reportID string) ([]string, error) {
	ids, err := s.access.UserIDsForReport(ctx, reportID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grant holders")
	}
	return ids, nil
}

// ListAll returns every grant row for the admin matrix.
func (s *AccessService) ListAll(ctx context.Context) ([]models.ReportAccess, error) {
	grants, err := s.access.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grants")
	}
	return grants, nil
}

func (s *AccessService) invalidateMenu(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "menu:"+userID); err != nil {
		s.logger.Warn("failed to invalidate menu cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *AccessService) record(ctx context.Context, actorID, action, entityType, entityID string, details interface{}) {
	if s.activity == nil {
		return
	}
	payload, _ := json.Marshal(details)
	if err := s.activity.Record(ctx, &models.ActivityLog{
		UserID:     &actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		Details:    models.ActivityDetails(payload),
	}); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
