package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

type menuCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type menuCategoryLister interface {
	List(ctx context.Context) ([]models.Category, error)
}

type sortedReportLister interface {
	SortedReports(ctx context.Context, user *models.User) ([]models.SortedReport, error)
}

// MenuService assembles the per-user sidebar and the dashboard counters.
// The sidebar is cached per user; any catalog, grant or preference mutation
// invalidates the whole menu keyspace.
type MenuService struct {
	prefs      sortedReportLister
	categories menuCategoryLister
	cache      menuCacheStore
	cacheTTL   time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewMenuService builds the service. A zero TTL disables caching.
func NewMenuService(prefs sortedReportLister, categories menuCategoryLister, cache menuCacheStore, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *MenuService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuService{prefs: prefs, categories: categories, cache: cache, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

func menuCacheKey(userID string) string { return "menu:" + userID }

// Menu returns the caller's sidebar: accessible reports in display order,
// grouped under their categories. Reports without a category land in a
// trailing "Uncategorized" group.
func (s *MenuService) Menu(ctx context.Context, user *models.User) ([]models.MenuCategory, error) {
	if s.cache != nil && s.cacheTTL > 0 {
		var cached []models.MenuCategory
		if err := s.cache.Get(ctx, menuCacheKey(user.ID), &cached); err == nil {
			s.metrics.RecordMenuCache(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("menu cache read failed", zap.String("user_id", user.ID), zap.Error(err))
		}
		s.metrics.RecordMenuCache(false)
	}

	reports, err := s.prefs.SortedReports(ctx, user)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}

	menu := buildMenu(reports, categories)

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, menuCacheKey(user.ID), menu, s.cacheTTL); err != nil {
			s.logger.Warn("menu cache write failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return menu, nil
}

// buildMenu groups already-sorted reports under their categories. Category
// order follows the admin sort_order; report order inside a group keeps the
// display sort. Empty groups are dropped.
func buildMenu(reports []models.SortedReport, categories []models.Category) []models.MenuCategory {
	groups := make(map[string][]models.MenuReport)
	for _, r := range reports {
		key := ""
		if r.CategoryID != nil {
			key = *r.CategoryID
		}
		groups[key] = append(groups[key], models.MenuReport{ID: r.ID, Name: r.Name, IsPinned: r.IsPinned})
	}

	menu := make([]models.MenuCategory, 0, len(categories)+1)
	for _, c := range categories {
		items, ok := groups[c.ID]
		if !ok {
			continue
		}
		menu = append(menu, models.MenuCategory{
			ID:        c.ID,
			Name:      c.Name,
			Icon:      c.Icon,
			SortOrder: c.SortOrder,
			Reports:   items,
		})
		delete(groups, c.ID)
	}
	sort.SliceStable(menu, func(i, j int) bool { return menu[i].SortOrder < menu[j].SortOrder })

	if items, ok := groups[""]; ok {
		menu = append(menu, models.MenuCategory{Name: "Uncategorized", Reports: items})
	}
	return menu
}

// Dashboard returns the landing page counters for the caller.
func (s *MenuService) Dashboard(ctx context.Context, user *models.User) (*models.DashboardSummary, error) {
	reports, err := s.prefs.SortedReports(ctx, user)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{ReportCount: len(reports), Department: user.Department}
	seen := make(map[string]bool)
	for _, r := range reports {
		if r.IsPinned {
			summary.PinnedCount++
		}
		if r.CategoryID != nil && !seen[*r.CategoryID] {
			seen[*r.CategoryID] = true
			summary.CategoryCount++
		}
	}
	return summary, nil
}
