package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/icpl-digital/bi-portal-api/internal/service"
	"github.com/icpl-digital/bi-portal-api/pkg/response"
)

// ActivityHandler serves the admin audit trail.
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler constructs an activity handler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary Recent activity
// @Tags Admin Activity
// @Produce json
// @Param limit query int false "Max entries"
// @Param user_id query string false "Filter by user"
// @Success 200 {object} response.Envelope
// @Router /admin/activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	var err error
	var entries interface{}
	if userID := c.Query("user_id"); userID != "" {
		entries, err = h.service.ListByUser(c.Request.Context(), userID, limit)
	} else {
		entries, err = h.service.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
