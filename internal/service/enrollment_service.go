package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-ledger-api/internal/custody"
	"github.com/noah-isme/course-ledger-api/internal/models"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ListStudentsByCourse(ctx context.Context, courseID int64) ([]string, error)
	ListCoursesForStudent(ctx context.Context, studentID string) ([]int64, error)
	CountByCourse(ctx context.Context, courseID int64) (int64, error)
	ExistsByStudentAndCourse(ctx context.Context, studentID string, courseID int64) (bool, error)
}

type seatCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	GetCreatedSeats(ctx context.Context, id int64) (int64, error)
	ReclaimSeats(ctx context.Context, id int64, count int64) error
}

type paymentRecorder interface {
	Create(ctx context.Context, payment *models.Payment) error
}

// PurchaseSeatRequest carries the payment attached to a purchase.
type PurchaseSeatRequest struct {
	Payment int64 `json:"payment" validate:"gte=0"`
}

// TransferSeatRequest moves one seat unit from the course creator's custody
// to a student.
type TransferSeatRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// ReclaimSeatsRequest batch-reclaims seats; the slices are parallel arrays.
type ReclaimSeatsRequest struct {
	CourseIDs []int64 `json:"course_ids" validate:"required,min=1"`
	Counts    []int64 `json:"counts" validate:"required"`
}

// EnrollmentService owns purchased-seat counters and the enrollment lists.
// Purchases deliberately skip any availability check against the seat
// counter, so overselling is possible; finalization reconciles the excess.
type EnrollmentService struct {
	repo     enrollmentRepository
	courses  seatCourseRepository
	payments paymentRecorder
	vault    custody.Vault
	locker   *CourseLocker
	cache    *CacheService
	metrics  *MetricsService

	validator           *validator.Validate
	logger              *zap.Logger
	compatDoubleReclaim bool
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses seatCourseRepository, payments paymentRecorder, vault custody.Vault, locker *CourseLocker, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, compatDoubleReclaim bool) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewCourseLocker()
	}
	return &EnrollmentService{
		repo:                repo,
		courses:             courses,
		payments:            payments,
		vault:               vault,
		locker:              locker,
		cache:               cache,
		metrics:             metrics,
		validator:           validate,
		logger:              logger,
		compatDoubleReclaim: compatDoubleReclaim,
	}
}

// PurchaseSeat records one seat purchase for the student. Repeat purchases
// are legal and counted separately.
func (s *EnrollmentService) PurchaseSeat(ctx context.Context, studentID string, courseID int64, req PurchaseSeatRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid purchase payload")
	}

	unlock := s.locker.Lock(courseID)
	defer unlock()

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if req.Payment < course.Fee {
		return nil, appErrors.Clone(appErrors.ErrInsufficientPayment, fmt.Sprintf("course %d requires %d, got %d", courseID, course.Fee, req.Payment))
	}

	payment := &models.Payment{CourseID: courseID, StudentID: studentID, Amount: req.Payment}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect payment")
	}

	enrollment := &models.Enrollment{CourseID: courseID, StudentID: studentID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record enrollment")
	}

	s.metrics.RecordSeatsSold(1)
	s.cache.Invalidate(ctx, fmt.Sprintf("course:%d*", courseID))
	return enrollment, nil
}

// TransferSeat moves one seat unit from the course creator's custody to the
// student. Ledger counters are untouched.
func (s *EnrollmentService) TransferSeat(ctx context.Context, courseID int64, req TransferSeatRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer payload")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrCourseNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return s.vault.Transfer(ctx, course.Creator, req.StudentID, courseID, 1)
}

// ReclaimSeats decrements seat counters for the given courses and destroys
// the corresponding units held by the caller.
func (s *EnrollmentService) ReclaimSeats(ctx context.Context, caller string, req ReclaimSeatsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reclaim payload")
	}
	if len(req.CourseIDs) != len(req.Counts) {
		return appErrors.Clone(appErrors.ErrParamLengthMismatch, "course ids and counts must have equal lengths")
	}

	unlock := s.locker.LockMany(req.CourseIDs)
	defer unlock()

	// Validate every decrement before any mutation.
	for i, courseID := range req.CourseIDs {
		if req.Counts[i] < 0 {
			return appErrors.Clone(appErrors.ErrValidation, "counts must be non-negative")
		}
		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrCourseNotFound, fmt.Sprintf("course %d not found", courseID))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if course.SeatsCreated < req.Counts[i] {
			return appErrors.Clone(appErrors.ErrSeatUnderflow, fmt.Sprintf("course %d has %d seats, cannot reclaim %d", courseID, course.SeatsCreated, req.Counts[i]))
		}
	}

	if err := s.vault.BurnBatch(ctx, caller, req.CourseIDs, req.Counts); err != nil {
		return err
	}

	var total int64
	for i, courseID := range req.CourseIDs {
		if req.Counts[i] == 0 {
			continue
		}
		if err := s.courses.ReclaimSeats(ctx, courseID, req.Counts[i]); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrSeatUnderflow, fmt.Sprintf("course %d seat counter underflow", courseID))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reclaim seats")
		}
		total += req.Counts[i]
		s.cache.Invalidate(ctx, fmt.Sprintf("course:%d*", courseID))
	}
	s.metrics.RecordSeatsReclaimed(total)
	return nil
}

// ReclaimFailedStudentSeat destroys a failing student's units and shrinks
// the course's seat counter.
func (s *EnrollmentService) ReclaimFailedStudentSeat(ctx context.Context, courseID int64, studentID string, count int64) error {
	if count <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "count must be positive")
	}

	unlock := s.locker.Lock(courseID)
	defer unlock()

	if err := reclaimFailedSeat(ctx, s.courses, s.vault, s.compatDoubleReclaim, courseID, studentID, count); err != nil {
		return err
	}
	s.metrics.RecordSeatsReclaimed(count)
	s.cache.Invalidate(ctx, fmt.Sprintf("course:%d*", courseID))
	return nil
}

// GetEnrolledStudents returns a course's students in purchase order.
func (s *EnrollmentService) GetEnrolledStudents(ctx context.Context, courseID int64) ([]string, error) {
	students, err := s.repo.ListStudentsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// GetCoursesForStudent returns the student's courses in purchase order.
func (s *EnrollmentService) GetCoursesForStudent(ctx context.Context, studentID string) ([]int64, error) {
	courses, err := s.repo.ListCoursesForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// GetPurchasedSeats returns the purchased-seat counter of a course.
func (s *EnrollmentService) GetPurchasedSeats(ctx context.Context, courseID int64) (int64, error) {
	count, err := s.repo.CountByCourse(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count purchases")
	}
	return count, nil
}

// reclaimFailedSeat burns the student's units and decrements the seat
// counter. The caller must hold the course lock. With compat enabled the
// counter shrinks twice per reclaimed seat, matching the source system's
// double decrement.
func reclaimFailedSeat(ctx context.Context, courses seatCourseRepository, vault custody.Vault, compatDouble bool, courseID int64, studentID string, count int64) error {
	delta := count
	if compatDouble {
		delta = 2 * count
	}

	seats, err := courses.GetCreatedSeats(ctx, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read seat counter")
	}
	if seats < delta {
		return appErrors.Clone(appErrors.ErrSeatUnderflow, fmt.Sprintf("course %d has %d seats, cannot reclaim %d", courseID, seats, delta))
	}

	if err := vault.Burn(ctx, studentID, courseID, count); err != nil {
		return err
	}
	if err := courses.ReclaimSeats(ctx, courseID, delta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrSeatUnderflow, fmt.Sprintf("course %d seat counter underflow", courseID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reclaim failed seat")
	}
	return nil
}
