package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/icpl-digital/bi-portal-api/internal/service"
	"github.com/icpl-digital/bi-portal-api/pkg/response"
)

// MenuHandler serves the sidebar and dashboard endpoints.
type MenuHandler struct {
	service *service.MenuService
}

// NewMenuHandler constructs a menu handler.
func NewMenuHandler(svc *service.MenuService) *MenuHandler {
	return &MenuHandler{service: svc}
}

// Menu godoc
// @Summary My sidebar menu
// @Tags Menu
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /menu [get]
func (h *MenuHandler) Menu(c *gin.Context) {
	menu, err := h.service.Menu(c.Request.Context(), userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, menu, nil)
}

// Dashboard godoc
// @Summary My dashboard summary
// @Tags Menu
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *MenuHandler) Dashboard(c *gin.Context) {
	summary, err := h.service.Dashboard(c.Request.Context(), userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
