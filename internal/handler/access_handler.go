package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/icpl-digital/bi-portal-api/internal/service"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
	"github.com/icpl-digital/bi-portal-api/pkg/response"
)

// AccessHandler serves the admin access matrix.
type AccessHandler struct {
	service *service.AccessService
}

// NewAccessHandler constructs an access handler.
func NewAccessHandler(svc *service.AccessService) *AccessHandler {
	return &AccessHandler{service: svc}
}

// BulkAccessRequest toggles a whole matrix row.
type BulkAccessRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ListAll godoc
// @Summary List all grants
// @Tags Admin Access
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/access [get]
func (h *AccessHandler) ListAll(c *gin.Context) {
	grants, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grants, nil)
}

// GrantsForUser godoc
// @Summary List a user's granted report ids
// @Tags Admin Access
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/access [get]
func (h *AccessHandler) GrantsForUser(c *gin.Context) {
	ids, err := h.service.GrantsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// UsersForReport godoc
// @Summary List user ids holding a grant for a report
// @Tags Admin Access
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/{id}/access [get]
func (h *AccessHandler) UsersForReport(c *gin.Context) {
	ids, err := h.service.UsersForReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// Grant godoc
// @Summary Grant a report to a user
// @Tags Admin Access
// @Param id path string true "User ID"
// @Param reportID path string true "Report ID"
// @Success 204
// @Router /admin/users/{id}/access/{reportID} [post]
func (h *AccessHandler) Grant(c *gin.Context) {
	if err := h.service.Grant(c.Request.Context(), c.Param("id"), c.Param("reportID"), userFromContext(c).ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Revoke godoc
// @Summary Revoke a report from a user
// @Tags Admin Access
// @Param id path string true "User ID"
// @Param reportID path string true "Report ID"
// @Success 204
// @Router /admin/users/{id}/access/{reportID} [delete]
func (h *AccessHandler) Revoke(c *gin.Context) {
	if err := h.service.Revoke(c.Request.Context(), c.Param("id"), c.Param("reportID"), userFromContext(c).ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetAll godoc
// @Summary Toggle every report for a user
// @Tags Admin Access
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body BulkAccessRequest true "Enable or disable all"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/access [put]
func (h *AccessHandler) SetAll(c *gin.Context) {
	var req BulkAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.SetAllForUser(c.Request.Context(), c.Param("id"), *req.Enabled, userFromContext(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
