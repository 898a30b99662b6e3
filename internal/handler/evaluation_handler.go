package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-ledger-api/internal/service"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
	"github.com/noah-isme/course-ledger-api/pkg/response"
)

// EvaluationHandler exposes the evaluation log endpoints.
type EvaluationHandler struct {
	evaluations *service.EvaluationService
}

// NewEvaluationHandler constructs EvaluationHandler.
func NewEvaluationHandler(evaluations *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

// Create godoc
// @Summary Record a mark for a student
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.EvaluateRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id}/evaluations [post]
func (h *EvaluationHandler) Create(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entry, err := h.evaluations.Evaluate(c.Request.Context(), claims.UserID, courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// List godoc
// @Summary List a course's evaluation entries in recorded order
// @Tags Evaluations
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/evaluations [get]
func (h *EvaluationHandler) List(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.evaluations.GetEvaluations(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// PassedCount godoc
// @Summary Get a course's running pass counter
// @Tags Evaluations
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/passed-count [get]
func (h *EvaluationHandler) PassedCount(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	count, err := h.evaluations.GetPassedCount(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_id": courseID, "passed_count": count}, nil)
}
