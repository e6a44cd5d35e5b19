package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/icpl-digital/bi-portal-api/internal/models"
)

// ReportRepository provides database access for the report catalog.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, name, description, embed_url, category_id, sort_order, is_active, created_by, created_at, updated_at`

// FindByID returns a report by identifier.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 LIMIT 1`
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find report by id: %w", err)
	}
	return &report, nil
}

// FindWithCategory returns a report together with its category, when set.
func (r *ReportRepository) FindWithCategory(ctx context.Context, id string) (*models.ReportWithCategory, error) {
	report, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &models.ReportWithCategory{Report: *report}
	if report.CategoryID == nil {
		return out, nil
	}

	const query = `SELECT id, name, description, icon, sort_order FROM categories WHERE id = $1 LIMIT 1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, *report.CategoryID); err != nil {
		if err == sql.ErrNoRows {
			return out, nil
		}
		return nil, fmt.Errorf("find report category: %w", err)
	}
	out.Category = &category
	return out, nil
}

// List returns catalog reports matching the filter, ordered by sort_order.
func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE 1=1`
	var args []interface{}

	if filter.Active != nil {
		query += fmt.Sprintf(" AND is_active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		query += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query += " ORDER BY sort_order ASC, name ASC"

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ListActiveByIDs returns the active reports among the given identifiers.
func (r *ReportRepository) ListActiveByIDs(ctx context.Context, ids []string) ([]models.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+reportColumns+` FROM reports WHERE is_active = TRUE AND id IN (?) ORDER BY sort_order ASC`, ids)
	if err != nil {
		return nil, fmt.Errorf("build reports by ids query: %w", err)
	}
	query = r.db.Rebind(query)

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports by ids: %w", err)
	}
	return reports, nil
}

// Create inserts a new catalog report.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now

	const query = `INSERT INTO reports (id, name, description, embed_url, category_id, sort_order, is_active, created_by, created_at, updated_at)
		VALUES (:id, :name, :description, :embed_url, :category_id, :sort_order, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// Update updates the mutable fields of a report.
func (r *ReportRepository) Update(ctx context.Context, report *models.Report) error {
	report.UpdatedAt = time.Now().UTC()
	const query = `UPDATE reports SET name = :name, description = :description, embed_url = :embed_url,
		category_id = :category_id, sort_order = :sort_order, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}

// Delete removes a report and its dependent grant and preference rows in a
// single transaction, so a failed step never leaves orphaned access.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete report: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_report_access WHERE report_id = $1`, id); err != nil {
		return fmt.Errorf("delete report access rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_report_preferences WHERE report_id = $1`, id); err != nil {
		return fmt.Errorf("delete report preference rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete report: %w", err)
	}
	return nil
}

// CountByCategory returns how many reports still reference a category.
func (r *ReportRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	const query = `SELECT COUNT(*) FROM reports WHERE category_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, categoryID); err != nil {
		return 0, fmt.Errorf("count reports by category: %w", err)
	}
	return count, nil
}
