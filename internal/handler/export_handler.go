package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-ledger-api/internal/service"
	"github.com/noah-isme/course-ledger-api/pkg/response"
)

// ExportHandler serves rendered roster and certificate downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Roster godoc
// @Summary Download a course roster as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path int true "Course ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/roster.csv [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.exports.RosterCSV(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=course-%d-roster.csv", courseID))
	c.Data(http.StatusOK, "text/csv", payload)
}

// Certificate godoc
// @Summary Download a completion certificate as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path int true "Course ID"
// @Param student query string true "Student ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/certificate.pdf [get]
func (h *ExportHandler) Certificate(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID := c.Query("student")
	payload, err := h.exports.CertificatePDF(c.Request.Context(), courseID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=course-%d-%s-certificate.pdf", courseID, studentID))
	c.Data(http.StatusOK, "application/pdf", payload)
}
