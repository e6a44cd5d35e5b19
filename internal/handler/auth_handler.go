package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/icpl-digital/bi-portal-api/internal/service"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
	"github.com/icpl-digital/bi-portal-api/pkg/response"
)

// AuthHandler runs the sign-in flow and session endpoints.
type AuthHandler struct {
	service *service.AuthService
	metrics *service.MetricsService
	baseURL string
}

// NewAuthHandler constructs an auth handler. baseURL is where browser
// redirects land after the callback.
func NewAuthHandler(svc *service.AuthService, metrics *service.MetricsService, baseURL string) *AuthHandler {
	return &AuthHandler{service: svc, metrics: metrics, baseURL: strings.TrimRight(baseURL, "/")}
}

// Login godoc
// @Summary Start Microsoft sign-in
// @Tags Auth
// @Param return_to query string false "Path to land on after sign-in"
// @Success 302
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	returnTo := sanitizeReturnTo(c.Query("return_to"))
	url, err := h.service.LoginURL(c.Request.Context(), returnTo)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback godoc
// @Summary Finish Microsoft sign-in
// @Tags Auth
// @Param state query string true "Opaque login state"
// @Param code query string true "Authorization code"
// @Success 302
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		h.metrics.RecordLogin("provider_error")
		h.redirectLoginError(c, "oauth_failed")
		return
	}

	token, _, returnTo, err := h.service.HandleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		h.metrics.RecordLogin("failed")
		h.redirectLoginError(c, shortErrorCode(err))
		return
	}

	h.metrics.RecordLogin("success")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.service.CookieName(), token, h.service.CookieMaxAge(), "/", "", h.service.CookieSecure(), true)

	if returnTo == "" {
		returnTo = "/"
	}
	c.Redirect(http.StatusFound, h.baseURL+returnTo)
}

// Logout godoc
// @Summary Sign out
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), claimsFromContext(c))
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.service.CookieName(), "", -1, "/", "", h.service.CookieSecure(), true)
	response.NoContent(c)
}

// Me godoc
// @Summary Current identity
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	identity, err := h.service.Me(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identity, nil)
}

func (h *AuthHandler) redirectLoginError(c *gin.Context, code string) {
	c.Redirect(http.StatusFound, h.baseURL+"/login?error="+code)
}

// sanitizeReturnTo keeps redirects on-site: relative paths only, no
// protocol-relative URLs.
func sanitizeReturnTo(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return ""
	}
	return raw
}

func shortErrorCode(err error) string {
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case appErrors.ErrInactiveAccount.Code:
		return "account_inactive"
	case appErrors.ErrOAuthFailed.Code:
		return "oauth_failed"
	default:
		return "server_error"
	}
}
