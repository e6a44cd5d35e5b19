package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

type preferenceRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.ReportPreference, error)
	Get(ctx context.Context, userID, reportID string) (*models.ReportPreference, error)
	Upsert(ctx context.Context, pref *models.ReportPreference) error
	UpsertRank(ctx context.Context, userID, reportID string, rank int) error
}

type accessibleReportLister interface {
	ListAccessibleReports(ctx context.Context, user *models.User) ([]models.Report, error)
	HasAccess(ctx context.Context, user *models.User, reportID string) (bool, error)
}

// PreferenceService owns per-user personalization: pinning, drag ordering and
// the display sort applied to every report list a user sees.
type PreferenceService struct {
	prefs    preferenceRepository
	access   accessibleReportLister
	cache    menuCache
	activity activityRecorder
	logger   *zap.Logger
}

// NewPreferenceService builds the service.
func NewPreferenceService(prefs preferenceRepository, access accessibleReportLister, cache menuCache, activity activityRecorder, logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{prefs: prefs, access: access, cache: cache, activity: activity, logger: logger}
}

// SortReports orders reports for display: pinned first, then by manual rank
// ascending with unranked reports last, then by name under Thai collation so
// mixed Thai and Latin names interleave the way users expect. The sort is
// stable, so equal keys keep catalog order. Reports without a preference row
// get the zero preference (unpinned, unranked).
func SortReports(reports []models.Report, prefs []models.ReportPreference) []models.SortedReport {
	byReport := make(map[string]models.ReportPreference, len(prefs))
	for _, p := range prefs {
		byReport[p.ReportID] = p
	}

	out := make([]models.SortedReport, 0, len(reports))
	for _, r := range reports {
		item := models.SortedReport{Report: r, SortRank: models.SentinelRank}
		if p, ok := byReport[r.ID]; ok {
			item.IsPinned = p.IsPinned
			item.SortRank = p.SortRank
		}
		out = append(out, item)
	}

	// collate.Collator carries an internal buffer, so build one per call.
	collator := collate.New(language.Thai)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if a.SortRank != b.SortRank {
			return a.SortRank < b.SortRank
		}
		return collator.CompareString(a.Name, b.Name) < 0
	})
	return out
}

// SortedReports returns the caller's accessible reports in display order.
func (s *PreferenceService) SortedReports(ctx context.Context, user *models.User) ([]models.SortedReport, error) {
	reports, err := s.access.ListAccessibleReports(ctx, user)
	if err != nil {
		return nil, err
	}

	prefs, err := s.prefs.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list preferences")
	}
	return SortReports(reports, prefs), nil
}

// TogglePin flips the pin flag for the caller's view of a report. A report
// without a preference row gets one, pinned with rank 0, so a fresh pin
// lands ahead of previously ranked pins.
func (s *PreferenceService) TogglePin(ctx context.Context, user *models.User, reportID string) (*models.ReportPreference, error) {
	ok, err := s.access.HasAccess(ctx, user, reportID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to report")
	}

	pref, err := s.prefs.Get(ctx, user.ID, reportID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference")
	}
	if pref == nil {
		pref = &models.ReportPreference{UserID: user.ID, ReportID: reportID}
	}
	pref.IsPinned = !pref.IsPinned

	if err := s.prefs.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preference")
	}

	s.invalidateMenu(ctx, user.ID)
	s.recordPref(ctx, user.ID, models.ActivityTogglePin, reportID, map[string]interface{}{"pinned": pref.IsPinned})
	return pref, nil
}

// Reorder records a full manual ordering for the caller. Ranks are assigned
// by position in the given slice; pin flags are untouched. Report ids the
// caller cannot access are skipped rather than failing the batch.
func (s *PreferenceService) Reorder(ctx context.Context, user *models.User, reportIDs []string) error {
	if len(reportIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "report_ids must not be empty")
	}

	accessible, err := s.access.ListAccessibleReports(ctx, user)
	if err != nil {
		return err
	}
	allowed := make(map[string]bool, len(accessible))
	for _, r := range accessible {
		allowed[r.ID] = true
	}

	rank := 0
	for _, id := range reportIDs {
		if !allowed[id] {
			s.logger.Debug("reorder skipped inaccessible report", zap.String("user_id", user.ID), zap.String("report_id", id))
			continue
		}
		if err := s.prefs.UpsertRank(ctx, user.ID, id, rank); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save order")
		}
		rank++
	}

	s.invalidateMenu(ctx, user.ID)
	s.recordPref(ctx, user.ID, models.ActivityReorder, "", map[string]interface{}{"count": rank})
	return nil
}

func (s *PreferenceService) invalidateMenu(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "menu:"+userID); err != nil {
		s.logger.Warn("failed to invalidate menu cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *PreferenceService) recordPref(ctx context.Context, userID, action, reportID string, details interface{}) {
	if s.activity == nil {
		return
	}
	payload, _ := json.Marshal(details)
	entry := &models.ActivityLog{UserID: &userID, Action: action, EntityType: "preference", Details: models.ActivityDetails(payload)}
	if reportID != "" {
		entry.EntityID = &reportID
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
