package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medpal-dev/medpal-api/internal/dto"
	"github.com/medpal-dev/medpal-api/internal/models"
	appErrors "github.com/medpal-dev/medpal-api/pkg/errors"
	"github.com/medpal-dev/medpal-api/pkg/response"
)

type reportService interface {
	Create(ctx context.Context, ownerID string, req dto.CreateReportRequest) (string, error)
	List(ctx context.Context, ownerID string) ([]models.Report, error)
	Get(ctx context.Context, ownerID, id string) (*models.Report, error)
	Update(ctx context.Context, ownerID, id string, req dto.UpdateReportRequest) (*models.Report, error)
	Delete(ctx context.Context, ownerID, id string) error
	ExportCSV(ctx context.Context, ownerID string) ([]byte, error)
	ExportPDF(ctx context.Context, ownerID, id string) ([]byte, error)
}

// ReportHandler exposes the report CRUD endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler builds a new handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// List godoc
// @Summary List the caller's reports, most recent first
// @Tags Reports
// @Produce json
// @Success 200 {array} models.Report
// @Failure 401 {object} map[string]string
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.service.List(c.Request.Context(), ownerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports)
}

// Create godoc
// @Summary Save a report with its extracted text
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} dto.CreateReportResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}

	id, err := h.service.Create(c.Request.Context(), ownerID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CreateReportResponse{ID: id})
}

// Get godoc
// @Summary Fetch one report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} models.Report
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Update godoc
// @Summary Update report metadata (title, category, tags)
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.UpdateReportRequest true "Fields to update"
// @Success 200 {object} models.Report
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reports/{id} [patch]
func (h *ReportHandler) Update(c *gin.Context) {
	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	report, err := h.service.Update(c.Request.Context(), ownerID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Delete godoc
// @Summary Delete a report
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} dto.DeleteReportResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteReportResponse{Success: true})
}

// ExportCSV godoc
// @Summary Download the caller's reports as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {string} string
// @Failure 401 {object} map[string]string
// @Router /reports/export [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	rendered, err := h.service.ExportCSV(c.Request.Context(), ownerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("reports-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, "text/csv", rendered)
}

// ExportPDF godoc
// @Summary Download one report as PDF
// @Tags Reports
// @Produce application/pdf
// @Param id path string true "Report ID"
// @Success 200 {string} string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reports/{id}/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	id := c.Param("id")
	rendered, err := h.service.ExportPDF(c.Request.Context(), ownerID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", rendered)
}
