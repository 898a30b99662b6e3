package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-ledger-api/internal/events"
	"github.com/noah-isme/course-ledger-api/internal/models"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

type evaluationRepository interface {
	Append(ctx context.Context, entry *models.EvaluationEntry) error
	ListByCourse(ctx context.Context, courseID int64) ([]models.EvaluationEntry, error)
	CountByCourse(ctx context.Context, courseID int64) (int64, error)
	PassedCount(ctx context.Context, courseID int64) (int64, error)
}

type evaluationEnrollmentReader interface {
	ListCoursesForStudent(ctx context.Context, studentID string) ([]int64, error)
}

type assignmentChecker interface {
	IsAssigned(ctx context.Context, courseID int64, evaluatorID string) (bool, error)
}

// EvaluateRequest records one mark for a student in a course.
type EvaluateRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Mark      int    `json:"mark"`
}

// EvaluationService owns the per-course evaluation log. Entries are filed
// under the course they were recorded for; the student's enrollment list is
// scanned only to prove the registration exists.
type EvaluationService struct {
	repo        evaluationRepository
	enrollments evaluationEnrollmentReader
	assignments assignmentChecker
	locker      *CourseLocker
	publisher   *events.Publisher
	cache       *CacheService

	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(repo evaluationRepository, enrollments evaluationEnrollmentReader, assignments assignmentChecker, locker *CourseLocker, publisher *events.Publisher, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewCourseLocker()
	}
	return &EvaluationService{
		repo:        repo,
		enrollments: enrollments,
		assignments: assignments,
		locker:      locker,
		publisher:   publisher,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Evaluate appends an evaluation entry for the student. The caller must be
// an evaluator assigned to the course and the student must hold at least one
// enrollment in it.
func (s *EvaluationService) Evaluate(ctx context.Context, evaluatorID string, courseID int64, req EvaluateRequest) (*models.EvaluationEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}

	assigned, err := s.assignments.IsAssigned(ctx, courseID, evaluatorID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrEvaluatorNotAuthorized, fmt.Sprintf("evaluator %s is not assigned to course %d", evaluatorID, courseID))
	}

	if req.Mark < 1 || req.Mark > 10 {
		return nil, appErrors.Clone(appErrors.ErrIllegalMark, fmt.Sprintf("mark %d out of range [1,10]", req.Mark))
	}

	courses, err := s.enrollments.ListCoursesForStudent(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoCoursesForUser, fmt.Sprintf("student %s has no enrolled courses", req.StudentID))
	}
	registered := false
	for _, id := range courses {
		if id == courseID {
			registered = true
			break
		}
	}
	if !registered {
		return nil, appErrors.Clone(appErrors.ErrCourseNotRegistered, fmt.Sprintf("student %s is not registered in course %d", req.StudentID, courseID))
	}

	unlock := s.locker.Lock(courseID)
	defer unlock()

	entry := &models.EvaluationEntry{
		CourseID:    courseID,
		StudentID:   req.StudentID,
		EvaluatorID: evaluatorID,
		Mark:        req.Mark,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record evaluation")
	}

	s.cache.Invalidate(ctx, fmt.Sprintf("course:%d*", courseID))
	s.publisher.EvaluationCompleted(ctx, events.EvaluationCompleted{
		CourseID:  courseID,
		StudentID: req.StudentID,
		Mark:      req.Mark,
		At:        time.Now().UTC(),
	})
	return entry, nil
}

// GetEvaluations returns a course's evaluation entries in recorded order.
func (s *EvaluationService) GetEvaluations(ctx context.Context, courseID int64) ([]models.EvaluationEntry, error) {
	entries, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return entries, nil
}

// GetEvaluationCount returns the number of recorded entries for a course.
func (s *EvaluationService) GetEvaluationCount(ctx context.Context, courseID int64) (int64, error) {
	count, err := s.repo.CountByCourse(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count evaluations")
	}
	return count, nil
}

// GetPassedCount returns the running pass counter of a course.
func (s *EvaluationService) GetPassedCount(ctx context.Context, courseID int64) (int64, error) {
	count, err := s.repo.PassedCount(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count passing evaluations")
	}
	return count, nil
}
