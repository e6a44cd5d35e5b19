package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
	"golang.org/x/sync/singleflight"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	"github.com/icpl-digital/bi-portal-api/pkg/config"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
)

const graphMeURL = "https://graph.microsoft.com/v1.0/me"

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

type oauthStateStore interface {
	Save(ctx context.Context, state, returnTo string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (string, bool, error)
}

// AuthService runs the Microsoft sign-in flow and owns session tokens.
// Sessions are stateless JWTs; user rows are created on first successful
// sign-in and refreshed from the identity provider on every sign-in.
type AuthService struct {
	users    authUserRepository
	states   oauthStateStore
	activity activityRecorder
	oauth    *oauth2.Config
	session  config.SessionConfig
	stateTTL time.Duration
	identity singleflight.Group
	logger   *zap.Logger
}

// NewAuthService builds the service from the OAuth and session config.
func NewAuthService(users authUserRepository, states oauthStateStore, activity activityRecorder, cfg *config.Config, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Endpoint:     microsoft.AzureADEndpoint(cfg.OAuth.TenantID),
		Scopes:       []string{"openid", "profile", "email", "User.Read"},
	}
	return &AuthService{
		users:    users,
		states:   states,
		activity: activity,
		oauth:    oauthCfg,
		session:  cfg.Session,
		stateTTL: cfg.OAuth.StateTTL,
		logger:   logger,
	}
}

// LoginURL stores a one-time state and returns the provider authorize URL.
// returnTo is remembered with the state so the callback can land the user
// back on the page they started from.
func (s *AuthService) LoginURL(ctx context.Context, returnTo string) (string, error) {
	state := uuid.New().String()
	if err := s.states.Save(ctx, state, returnTo, s.stateTTL); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save login state")
	}
	return s.oauth.AuthCodeURL(state), nil
}

// HandleCallback finishes the code exchange: the state must match a pending
// login, the provider profile is upserted by email, and an inactive account
// is turned away before any session is issued. Returns the session token,
// the signed-in user and the remembered return path.
func (s *AuthService) HandleCallback(ctx context.Context, state, code string) (string, *models.User, string, error) {
	returnTo, found, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check login state")
	}
	if !found {
		return "", nil, "", appErrors.Clone(appErrors.ErrOAuthFailed, "invalid or expired login state")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("code exchange failed", zap.Error(err))
		return "", nil, "", appErrors.Wrap(err, appErrors.ErrOAuthFailed.Code, appErrors.ErrOAuthFailed.Status, "code exchange failed")
	}

	info, err := s.fetchUserInfo(ctx, token)
	if err != nil {
		return "", nil, "", err
	}

	email := info.Email
	if email == "" {
		email = info.Principal
	}
	if email == "" {
		return "", nil, "", appErrors.Clone(appErrors.ErrOAuthFailed, "provider returned no email")
	}

	user, err := s.users.UpsertByEmail(ctx, &models.User{
		Email:       email,
		DisplayName: info.DisplayName,
		Role:        models.RoleUser,
		IsActive:    true,
	})
	if err != nil {
		return "", nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert user")
	}
	if !user.IsActive {
		return "", nil, "", appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	sessionToken, err := s.issueToken(user, now)
	if err != nil {
		return "", nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session")
	}

	s.record(ctx, user.ID, models.ActivityLogin)
	return sessionToken, user, returnTo, nil
}

// ValidateSession parses and verifies a session token.
func (s *AuthService) ValidateSession(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.session.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session")
	}
	return claims, nil
}

// Me resolves the fresh identity behind a session. Concurrent calls for the
// same user collapse into one database read, which matters when a dashboard
// fires several authenticated requests at once on load.
func (s *AuthService) Me(ctx context.Context, claims *models.SessionClaims) (*models.Identity, error) {
	v, err, _ := s.identity.Do(claims.UserID, func() (interface{}, error) {
		return s.users.FindByID(ctx, claims.UserID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	user := v.(*models.User)
	if !user.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	expiresIn := int64(0)
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			expiresIn = int64(remaining.Seconds())
		}
	}
	return &models.Identity{User: *user, SessionExpiresIn: expiresIn}, nil
}

// Logout records the sign-out; the handler clears the cookie.
func (s *AuthService) Logout(ctx context.Context, claims *models.SessionClaims) {
	if claims != nil {
		s.record(ctx, claims.UserID, models.ActivityLogout)
	}
}

// CookieName returns the configured session cookie name.
func (s *AuthService) CookieName() string { return s.session.CookieName }

// CookieMaxAge returns the session lifetime in seconds.
func (s *AuthService) CookieMaxAge() int { return int(s.session.Expiration.Seconds()) }

// CookieSecure reports whether the cookie requires HTTPS.
func (s *AuthService) CookieSecure() bool { return s.session.Secure }

func (s *AuthService) issueToken(user *models.User, now time.Time) (string, error) {
	claims := &models.SessionClaims{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.session.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.session.Secret))
}

func (s *AuthService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.OAuthUserInfo, error) {
	client := s.oauth.Client(ctx, token)
	resp, err := client.Get(graphMeURL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOAuthFailed.Code, appErrors.ErrOAuthFailed.Status, "failed to fetch profile")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrOAuthFailed, fmt.Sprintf("profile request returned %d", resp.StatusCode))
	}

	info := &models.OAuthUserInfo{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrOAuthFailed.Code, appErrors.ErrOAuthFailed.Status, "failed to decode profile")
	}
	return info, nil
}

func (s *AuthService) record(ctx context.Context, userID, action string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, &models.ActivityLog{UserID: &userID, Action: action, EntityType: "session"}); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", action), zap.Error(err))
	}
}
