package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icpl-digital/bi-portal-api/internal/middleware"
	"github.com/icpl-digital/bi-portal-api/internal/models"
	"github.com/icpl-digital/bi-portal-api/internal/service"
)

type prefRepoFake struct {
	prefs map[string]models.ReportPreference
}

func fakeKey(userID, reportID string) string { return userID + ":" + reportID }

func (f *prefRepoFake) ListByUser(ctx context.Context, userID string) ([]models.ReportPreference, error) {
	var out []models.ReportPreference
	for _, p := range f.prefs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *prefRepoFake) Get(ctx context.Context, userID, reportID string) (*models.ReportPreference, error) {
	if p, ok := f.prefs[fakeKey(userID, reportID)]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *prefRepoFake) Upsert(ctx context.Context, pref *models.ReportPreference) error {
	if f.prefs == nil {
		f.prefs = make(map[string]models.ReportPreference)
	}
	f.prefs[fakeKey(pref.UserID, pref.ReportID)] = *pref
	return nil
}

func (f *prefRepoFake) UpsertRank(ctx context.Context, userID, reportID string, rank int) error {
	if f.prefs == nil {
		f.prefs = make(map[string]models.ReportPreference)
	}
	key := fakeKey(userID, reportID)
	p := f.prefs[key]
	p.UserID = userID
	p.ReportID = reportID
	p.SortRank = rank
	f.prefs[key] = p
	return nil
}

type accessFake struct {
	reports []models.Report
}

func (f *accessFake) ListAccessibleReports(ctx context.Context, user *models.User) ([]models.Report, error) {
	return f.reports, nil
}

func (f *accessFake) HasAccess(ctx context.Context, user *models.User, reportID string) (bool, error) {
	for _, r := range f.reports {
		if r.ID == reportID {
			return true, nil
		}
	}
	return false, nil
}

func newPreferenceHandler(reports ...models.Report) (*prefRepoFake, *PreferenceHandler) {
	repo := &prefRepoFake{}
	svc := service.NewPreferenceService(repo, &accessFake{reports: reports}, nil, nil, zap.NewNop())
	return repo, NewPreferenceHandler(svc)
}

func testUser() *models.User {
	return &models.User{ID: "u-1", Email: "alice@example.com", Role: models.RoleUser, IsActive: true}
}

func TestPreferenceHandlerTogglePin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, handler := newPreferenceHandler(models.Report{ID: "r-1", Name: "Sales", IsActive: true})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/reports/r-1/pin", nil)
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}
	c.Set(middleware.ContextUserKey, testUser())

	handler.TogglePin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	pref, ok := repo.prefs[fakeKey("u-1", "r-1")]
	require.True(t, ok)
	assert.True(t, pref.IsPinned)
}

func TestPreferenceHandlerTogglePinForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newPreferenceHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/reports/r-9/pin", nil)
	c.Params = gin.Params{{Key: "id", Value: "r-9"}}
	c.Set(middleware.ContextUserKey, testUser())

	handler.TogglePin(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPreferenceHandlerReorder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo, handler := newPreferenceHandler(
		models.Report{ID: "r-1", Name: "A", IsActive: true},
		models.Report{ID: "r-2", Name: "B", IsActive: true},
	)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserKey, testUser()) })
	r.PUT("/preferences/order", handler.Reorder)

	body := `{"report_ids":["r-2","r-1"]}`
	req := httptest.NewRequest(http.MethodPut, "/preferences/order", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, repo.prefs[fakeKey("u-1", "r-2")].SortRank)
	assert.Equal(t, 1, repo.prefs[fakeKey("u-1", "r-1")].SortRank)
}

func TestPreferenceHandlerReorderBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newPreferenceHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/preferences/order", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, testUser())

	handler.Reorder(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope struct {
		Error map[string]interface{} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Error["code"])
}
