package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-ledger-api/internal/service"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
	"github.com/noah-isme/course-ledger-api/pkg/response"
)

// FinalizationHandler exposes the terminal reconciliation endpoint.
type FinalizationHandler struct {
	finalization *service.FinalizationService
}

// NewFinalizationHandler constructs FinalizationHandler.
func NewFinalizationHandler(finalization *service.FinalizationService) *FinalizationHandler {
	return &FinalizationHandler{finalization: finalization}
}

// Finalize godoc
// @Summary Finalize a course
// @Description Reclaims unsold and failed seats, relabels the metadata reference and flags the course as finalized
// @Tags Finalization
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.FinalizeCourseRequest true "Finalization payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/finalize [post]
func (h *FinalizationHandler) Finalize(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.FinalizeCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.finalization.FinalizeCourse(c.Request.Context(), claims.UserID, courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
