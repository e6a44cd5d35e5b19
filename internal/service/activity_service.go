package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

// activityRecorder is the write side shared by the other services.
type activityRecorder interface {
	Record(ctx context.Context, entry *models.ActivityLog) error
}

type requestMetaKey struct{}

// RequestMeta carries the client address and agent of the request that
// triggered an audit entry.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta attaches request metadata for the audit trail.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}

type activityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error)
}

// ActivityService records and serves the audit trail.
type ActivityService struct {
	repo         activityRepository
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// NewActivityService builds the service. Limits of zero fall back to 50/500.
func NewActivityService(repo activityRepository, defaultLimit, maxLimit int, logger *zap.Logger) *ActivityService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit <= 0 {
		maxLimit = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, defaultLimit: defaultLimit, maxLimit: maxLimit, logger: logger}
}

// Record appends one audit entry, filling in the client address and agent
// from the request context when the caller left them empty.
func (s *ActivityService) Record(ctx context.Context, entry *models.ActivityLog) error {
	if meta, ok := requestMetaFrom(ctx); ok {
		if entry.IPAddress == "" {
			entry.IPAddress = meta.IPAddress
		}
		if entry.UserAgent == "" {
			entry.UserAgent = meta.UserAgent
		}
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record activity")
	}
	return nil
}

// ListRecent returns the newest entries, clamping limit to the configured cap.
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	entries, err := s.repo.ListRecent(ctx, s.clamp(limit))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	return entries, nil
}

// ListByUser returns the newest entries for one user.
func (s *ActivityService) ListByUser(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	entries, err := s.repo.ListByUser(ctx, userID, s.clamp(limit))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	return entries, nil
}

func (s *ActivityService) clamp(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
