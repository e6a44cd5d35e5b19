package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	"github.com/icpl-digital/bi-portal-api/internal/service"
	"github.com/icpl-digital/bi-portal-api/pkg/config"
)

type authUsersFake struct{}

func (authUsersFake) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (authUsersFake) UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error) {
	return user, nil
}

func (authUsersFake) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

type statesFake struct {
	saved map[string]string
}

func (f *statesFake) Save(ctx context.Context, state, returnTo string, ttl time.Duration) error {
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[state] = returnTo
	return nil
}

func (f *statesFake) Consume(ctx context.Context, state string) (string, bool, error) {
	returnTo, ok := f.saved[state]
	delete(f.saved, state)
	return returnTo, ok, nil
}

func newAuthHandler() (*statesFake, *AuthHandler) {
	cfg := &config.Config{
		BaseURL: "http://localhost:3000",
		OAuth: config.OAuthConfig{
			ClientID:    "client",
			TenantID:    "tenant",
			RedirectURL: "http://localhost:8080/api/auth/callback",
			StateTTL:    10 * time.Minute,
		},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			CookieName: "portal_session",
			Expiration: time.Hour,
		},
	}
	states := &statesFake{}
	svc := service.NewAuthService(authUsersFake{}, states, nil, cfg, zap.NewNop())
	return states, NewAuthHandler(svc, nil, cfg.BaseURL)
}

func TestAuthHandlerLoginRedirectsToProvider(t *testing.T) {
	gin.SetMode(gin.TestMode)
	states, handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/login?return_to=/reports/r-1", nil)

	handler.Login(c)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "login.microsoftonline.com")
	require.Len(t, states.saved, 1)
	for _, returnTo := range states.saved {
		assert.Equal(t, "/reports/r-1", returnTo)
	}
}

func TestAuthHandlerLoginDropsOffsiteReturnTo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	states, handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/login?return_to=//evil.example.com", nil)

	handler.Login(c)

	assert.Equal(t, http.StatusFound, rec.Code)
	for _, returnTo := range states.saved {
		assert.Empty(t, returnTo)
	}
}

func TestAuthHandlerCallbackProviderError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)

	handler.Callback(c)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:3000/login?error=oauth_failed", rec.Header().Get("Location"))
}

func TestAuthHandlerCallbackUnknownState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/callback?state=bogus&code=abc", nil)

	handler.Callback(c)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:3000/login?error=oauth_failed", rec.Header().Get("Location"))
}

func TestAuthHandlerMeUnauthorizedWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newAuthHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSanitizeReturnTo(t *testing.T) {
	assert.Equal(t, "/reports", sanitizeReturnTo("/reports"))
	assert.Empty(t, sanitizeReturnTo("https://evil.example.com"))
	assert.Empty(t, sanitizeReturnTo("//evil.example.com"))
	assert.Empty(t, sanitizeReturnTo(""))
}
