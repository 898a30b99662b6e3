package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-ledger-api/internal/service"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
	"github.com/noah-isme/course-ledger-api/pkg/response"
)

// EvaluatorHandler exposes evaluator assignment endpoints.
type EvaluatorHandler struct {
	evaluators *service.EvaluatorService
}

// NewEvaluatorHandler constructs EvaluatorHandler.
func NewEvaluatorHandler(evaluators *service.EvaluatorService) *EvaluatorHandler {
	return &EvaluatorHandler{evaluators: evaluators}
}

// Assign godoc
// @Summary Assign an evaluator to a course
// @Tags Evaluators
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.AssignEvaluatorRequest true "Evaluator payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/evaluators [post]
func (h *EvaluatorHandler) Assign(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AssignEvaluatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.evaluators.Assign(c.Request.Context(), courseID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"course_id": courseID, "evaluator_id": req.EvaluatorID})
}

// Unassign godoc
// @Summary Remove an evaluator from a course
// @Tags Evaluators
// @Produce json
// @Param id path int true "Course ID"
// @Param evaluatorId path string true "Evaluator ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/evaluators/{evaluatorId} [delete]
func (h *EvaluatorHandler) Unassign(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.evaluators.Unassign(c.Request.Context(), courseID, c.Param("evaluatorId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List a course's evaluators
// @Tags Evaluators
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/evaluators [get]
func (h *EvaluatorHandler) List(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	evaluators, err := h.evaluators.List(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluators, nil)
}

// SetMaxEvaluators godoc
// @Summary Update the process-wide evaluator capacity
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.SetMaxEvaluatorsRequest true "Capacity payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/max-evaluators [put]
func (h *EvaluatorHandler) SetMaxEvaluators(c *gin.Context) {
	var req service.SetMaxEvaluatorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.evaluators.SetMaxEvaluators(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"max_evaluators": req.Amount}, nil)
}
