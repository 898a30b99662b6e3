package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-ledger-api/internal/service"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
	"github.com/noah-isme/course-ledger-api/pkg/response"
)

// CourseHandler exposes the course registry endpoints.
type CourseHandler struct {
	courses *service.CourseService
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService) *CourseHandler {
	return &CourseHandler{courses: courses}
}

// Create godoc
// @Summary Batch create or top up courses
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCoursesRequest true "Course batch payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.courses.CreateCourses(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"processed": count})
}

// SetMetadata godoc
// @Summary Overwrite a course's metadata reference
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param payload body service.SetMetadataRequest true "Metadata payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/metadata [put]
func (h *CourseHandler) SetMetadata(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SetMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.courses.SetCertificateMetadata(c.Request.Context(), courseID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_id": courseID, "metadata_ref": req.MetadataRef}, nil)
}

// Get godoc
// @Summary Get course detail with counters
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.courses.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetSeats godoc
// @Summary Get a course's created-seat counter
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/seats [get]
func (h *CourseHandler) GetSeats(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	seats, err := h.courses.GetCreatedSeats(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_id": courseID, "seats_created": seats}, nil)
}

// GetFee godoc
// @Summary Get a course's fee
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/fee [get]
func (h *CourseHandler) GetFee(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	fee, err := h.courses.GetFee(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_id": courseID, "fee": fee}, nil)
}

// GetCreator godoc
// @Summary Get a course's creator identity
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/creator [get]
func (h *CourseHandler) GetCreator(c *gin.Context) {
	courseID, err := courseIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	creator, err := h.courses.GetCreator(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_id": courseID, "creator": creator}, nil)
}
