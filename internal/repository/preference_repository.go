package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/icpl-digital/bi-portal-api/internal/models"
)

// PreferenceRepository persists per-user report personalization.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListByUser returns all preference rows for a user.
func (r *PreferenceRepository) ListByUser(ctx context.Context, userID string) ([]models.ReportPreference, error) {
	const query = `SELECT id, user_id, report_id, is_pinned, sort_rank, updated_at FROM user_report_preferences WHERE user_id = $1`
	var prefs []models.ReportPreference
	if err := r.db.SelectContext(ctx, &prefs, query, userID); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Get returns the preference row for the pair.
func (r *PreferenceRepository) Get(ctx context.Context, userID, reportID string) (*models.ReportPreference, error) {
	const query = `SELECT id, user_id, report_id, is_pinned, sort_rank, updated_at FROM user_report_preferences WHERE user_id = $1 AND report_id = $2 LIMIT 1`
	var pref models.ReportPreference
	if err := r.db.GetContext(ctx, &pref, query, userID, reportID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &pref, nil
}

// Upsert creates or fully replaces the preference for the pair.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.ReportPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	pref.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO user_report_preferences (id, user_id, report_id, is_pinned, sort_rank, updated_at)
		VALUES (:id, :user_id, :report_id, :is_pinned, :sort_rank, :updated_at)
		ON CONFLICT (user_id, report_id) DO UPDATE
		SET is_pinned = EXCLUDED.is_pinned,
		    sort_rank = EXCLUDED.sort_rank,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// UpsertRank sets only the manual rank for the pair; an existing pin flag is
// untouched, a missing row is created unpinned.
func (r *PreferenceRepository) UpsertRank(ctx context.Context, userID, reportID string, rank int) error {
	const query = `INSERT INTO user_report_preferences (id, user_id, report_id, is_pinned, sort_rank, updated_at)
		VALUES ($1, $2, $3, FALSE, $4, $5)
		ON CONFLICT (user_id, report_id) DO UPDATE
		SET sort_rank = EXCLUDED.sort_rank,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, reportID, rank, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert preference rank: %w", err)
	}
	return nil
}
