package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/icpl-digital/bi-portal-api/internal/service"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
	"github.com/icpl-digital/bi-portal-api/pkg/response"
)

// PreferenceHandler serves the personalization endpoints.
type PreferenceHandler struct {
	service *service.PreferenceService
}

// NewPreferenceHandler constructs a preference handler.
func NewPreferenceHandler(svc *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{service: svc}
}

// ReorderRequest is the full manual ordering, first id displayed first.
type ReorderRequest struct {
	ReportIDs []string `json:"report_ids" binding:"required"`
}

// TogglePin godoc
// @Summary Toggle a report pin
// @Tags Preferences
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/pin [post]
func (h *PreferenceHandler) TogglePin(c *gin.Context) {
	pref, err := h.service.TogglePin(c.Request.Context(), userFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pref, nil)
}

// Reorder godoc
// @Summary Save my report order
// @Tags Preferences
// @Accept json
// @Param payload body ReorderRequest true "Ordered report ids"
// @Success 204
// @Router /preferences/order [put]
func (h *PreferenceHandler) Reorder(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.Reorder(c.Request.Context(), userFromContext(c), req.ReportIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
