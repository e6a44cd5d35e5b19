package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	"github.com/icpl-digital/bi-portal-api/internal/service"
	"github.com/icpl-digital/bi-portal-api/pkg/config"
)

type finderStub struct {
	users map[string]models.User
}

func (f *finderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func sessionFixture() (*finderStub, gin.HandlerFunc, *service.AuthService) {
	cfg := &config.Config{
		OAuth: config.OAuthConfig{ClientID: "client", TenantID: "tenant", StateTTL: time.Minute},
		Session: config.SessionConfig{
			Secret:     "test-secret",
			CookieName: "portal_session",
			Expiration: time.Hour,
		},
	}
	finder := &finderStub{users: map[string]models.User{
		"u-1": {ID: "u-1", Email: "alice@example.com", Role: models.RoleUser, IsActive: true},
		"u-2": {ID: "u-2", Email: "bob@example.com", Role: models.RoleUser, IsActive: false},
	}}
	authSvc := service.NewAuthService(nil, nil, nil, cfg, zap.NewNop())
	return finder, Session(authSvc, finder), authSvc
}

func signSessionToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &models.SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func runSession(t *testing.T, mw gin.HandlerFunc, setup func(*http.Request)) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/reports", nil)
	if setup != nil {
		setup(c.Request)
	}
	mw(c)
	return rec, c
}

func TestSessionRejectsMissingToken(t *testing.T) {
	_, mw, _ := sessionFixture()

	rec, c := runSession(t, mw, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, c.IsAborted())
}

func TestSessionAcceptsCookie(t *testing.T) {
	_, mw, _ := sessionFixture()
	token := signSessionToken(t, "u-1")

	rec, c := runSession(t, mw, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "portal_session", Value: token})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.IsAborted())
	user, ok := c.Get(ContextUserKey)
	require.True(t, ok)
	assert.Equal(t, "u-1", user.(*models.User).ID)
}

func TestSessionAcceptsBearerHeader(t *testing.T) {
	_, mw, _ := sessionFixture()
	token := signSessionToken(t, "u-1")

	rec, c := runSession(t, mw, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.IsAborted())
}

func TestSessionRejectsInactiveUser(t *testing.T) {
	_, mw, _ := sessionFixture()
	token := signSessionToken(t, "u-2")

	rec, _ := runSession(t, mw, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "portal_session", Value: token})
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionRejectsDeletedUser(t *testing.T) {
	_, mw, _ := sessionFixture()
	token := signSessionToken(t, "gone")

	rec, _ := runSession(t, mw, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "portal_session", Value: token})
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := RequireAdmin()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	c.Set(ContextUserKey, &models.User{ID: "u-1", Role: models.RoleUser, IsActive: true})
	mw(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	c.Set(ContextUserKey, &models.User{ID: "a-1", Role: models.RoleAdmin, IsActive: true})
	mw(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.IsAborted())
}
