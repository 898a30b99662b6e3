package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-ledger-api/internal/service"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
	"github.com/noah-isme/course-ledger-api/pkg/response"
)

// EnrollmentHandler exposes the seat ledger endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Purchase godoc
// @Summary Purchase one seat in a course
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.PurchaseSeatRequest true "Purchase payload"
// @Success 201 {object} response.Envelope
// @Failure 402 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/purchase [post]
func (h *EnrollmentHandler) Purchase(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.PurchaseSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	enrollment, err := h.enrollments.PurchaseSeat(c.Request.Context(), claims.UserID, courseID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Transfer godoc
// @Summary Transfer one seat unit from the creator to a student
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.TransferSeatRequest true "Transfer payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/transfer [post]
func (h *EnrollmentHandler) Transfer(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TransferSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.enrollments.TransferSeat(c.Request.Context(), courseID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_id": courseID, "student_id": req.StudentID}, nil)
}

// Reclaim godoc
// @Summary Batch reclaim seats across courses
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.ReclaimSeatsRequest true "Reclaim payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/reclaim [post]
func (h *EnrollmentHandler) Reclaim(c *gin.Context) {
	var req service.ReclaimSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.enrollments.ReclaimSeats(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"reclaimed": len(req.CourseIDs)}, nil)
}

// Students godoc
// @Summary List a course's enrolled students in purchase order
// @Tags Enrollments
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *EnrollmentHandler) Students(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.enrollments.GetEnrolledStudents(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// CoursesForStudent godoc
// @Summary List a student's courses in purchase order
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/courses [get]
func (h *EnrollmentHandler) CoursesForStudent(c *gin.Context) {
	courses, err := h.enrollments.GetCoursesForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}
