package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/icpl-digital/bi-portal-api/internal/models"
)

// AccessRepository persists user↔report grants.
type AccessRepository struct {
	db *sqlx.DB
}

// NewAccessRepository constructs the repository.
func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// Grant inserts a grant row. Granting an existing pair is a silent success.
func (r *AccessRepository) Grant(ctx context.Context, access *models.ReportAccess) error {
	if access.ID == "" {
		access.ID = uuid.NewString()
	}
	if access.GrantedAt.IsZero() {
		access.GrantedAt = time.Now().UTC()
	}

	const query = `INSERT INTO user_report_access (id, user_id, report_id, granted_by, granted_at)
		VALUES (:id, :user_id, :report_id, :granted_by, :granted_at)
		ON CONFLICT (user_id, report_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, access); err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	return nil
}

// Revoke deletes the grant for the pair. Revoking a missing grant is a
// silent success.
func (r *AccessRepository) Revoke(ctx context.Context, userID, reportID string) error {
	const query = `DELETE FROM user_report_access WHERE user_id = $1 AND report_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, reportID); err != nil {
		return fmt.Errorf("revoke access: %w", err)
	}
	return nil
}

// Exists reports whether a grant row exists for the exact pair.
func (r *AccessRepository) Exists(ctx context.Context, userID, reportID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_report_access WHERE user_id = $1 AND report_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, reportID); err != nil {
		return false, fmt.Errorf("check access: %w", err)
	}
	return exists, nil
}

// ReportIDsForUser returns the report ids the user holds grants for.
func (r *AccessRepository) ReportIDsForUser(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT report_id FROM user_report_access WHERE user_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list report ids for user: %w", err)
	}
	return ids, nil
}

// UserIDsForReport returns the user ids holding a grant for the report.
func (r *AccessRepository) UserIDsForReport(ctx context.Context, reportID string) ([]string, error) {
	const query = `SELECT user_id FROM user_report_access WHERE report_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, reportID); err != nil {
		return nil, fmt.Errorf("list user ids for report: %w", err)
	}
	return ids, nil
}

// ListAll returns every grant row, most recent first, for the admin matrix.
func (r *AccessRepository) ListAll(ctx context.Context) ([]models.ReportAccess, error) {
	const query = `SELECT id, user_id, report_id, granted_by, granted_at FROM user_report_access ORDER BY granted_at DESC`
	var grants []models.ReportAccess
	if err := r.db.SelectContext(ctx, &grants, query); err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	return grants, nil
}
