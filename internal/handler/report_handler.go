package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/icpl-digital/bi-portal-api/internal/models"
	"github.com/icpl-digital/bi-portal-api/internal/service"
	appErrors "github.com/icpl-digital/bi-portal-api/pkg/errors"
	"github.com/icpl-digital/bi-portal-api/pkg/response"
)

// ReportHandler serves the viewer and admin report endpoints.
type ReportHandler struct {
	reports *service.ReportService
	prefs   *service.PreferenceService
	metrics *service.MetricsService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(reports *service.ReportService, prefs *service.PreferenceService, metrics *service.MetricsService) *ReportHandler {
	return &ReportHandler{reports: reports, prefs: prefs, metrics: metrics}
}

// ListForViewer godoc
// @Summary List my reports in display order
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) ListForViewer(c *gin.Context) {
	reports, err := h.prefs.SortedReports(c.Request.Context(), userFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// GetForViewer godoc
// @Summary Open one report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) GetForViewer(c *gin.Context) {
	report, err := h.reports.GetForViewer(c.Request.Context(), userFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordReportView()
	response.JSON(c, http.StatusOK, report, nil)
}

// List godoc
// @Summary List catalog reports
// @Tags Admin Reports
// @Produce json
// @Param active query bool false "Filter by active state"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /admin/reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	var filter models.ReportFilter
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}
	filter.Search = strings.TrimSpace(c.Query("search"))

	reports, err := h.reports.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get catalog report by id
// @Tags Admin Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Create report
// @Tags Admin Reports
// @Accept json
// @Produce json
// @Param payload body service.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Router /admin/reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req service.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Create(c.Request.Context(), &req, userFromContext(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Update godoc
// @Summary Update report
// @Tags Admin Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body service.UpdateReportRequest true "Report payload"
// @Success 200 {object} response.Envelope
// @Router /admin/reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	var req service.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.reports.Update(c.Request.Context(), c.Param("id"), &req, userFromContext(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete report
// @Tags Admin Reports
// @Param id path string true "Report ID"
// @Success 204
// @Router /admin/reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id"), userFromContext(c).ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
