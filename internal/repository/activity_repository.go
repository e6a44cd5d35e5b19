package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/icpl-digital/bi-portal-api/internal/models"
)

// ActivityRepository persists the portal audit trail.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create stores an activity log entry.
func (r *ActivityRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, details, ip_address, user_agent, created_at)
		VALUES (:id, :user_id, :action, :entity_type, :entity_id, :details, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create activity log: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries across all users.
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	const query = `SELECT id, user_id, action, entity_type, entity_id, details, ip_address, user_agent, created_at
		FROM activity_logs ORDER BY created_at DESC LIMIT $1`
	var logs []models.ActivityLog
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	return logs, nil
}

// ListByUser returns the newest entries for one user.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	const query = `SELECT id, user_id, action, entity_type, entity_id, details, ip_address, user_agent, created_at
		FROM activity_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	var logs []models.ActivityLog
	if err := r.db.SelectContext(ctx, &logs, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list user activity: %w", err)
	}
	return logs, nil
}
