package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-ledger-api/internal/custody"
	"github.com/noah-isme/course-ledger-api/internal/events"
	"github.com/noah-isme/course-ledger-api/internal/models"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

type finalizationCourseRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ApplyFinalization(ctx context.Context, id int64, seatsReclaimed int64, metadataRef string, certify bool) error
}

type finalizationEnrollmentReader interface {
	CountByCourse(ctx context.Context, courseID int64) (int64, error)
}

type finalizationEvaluationReader interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.EvaluationEntry, error)
}

// FinalizeCourseRequest carries the certificate metadata reference applied
// when at least one student passes.
type FinalizeCourseRequest struct {
	CertificateMetadataRef string `json:"certificate_metadata_ref" validate:"required"`
}

// FinalizationService reconciles a course's seat counters against its
// evaluation log: unsold seats and failing students' seats are reclaimed,
// passing students keep theirs under the relabeled metadata reference. The
// transition is one-way per course; the finalized flag makes repeats fail
// instead of double-reclaiming.
type FinalizationService struct {
	courses     finalizationCourseRepository
	enrollments finalizationEnrollmentReader
	evaluations finalizationEvaluationReader
	vault       custody.Vault
	locker      *CourseLocker
	publisher   *events.Publisher
	cache       *CacheService
	metrics     *MetricsService

	logger              *zap.Logger
	compatDoubleReclaim bool
}

// NewFinalizationService constructs FinalizationService.
func NewFinalizationService(courses finalizationCourseRepository, enrollments finalizationEnrollmentReader, evaluations finalizationEvaluationReader, vault custody.Vault, locker *CourseLocker, publisher *events.Publisher, cache *CacheService, metrics *MetricsService, logger *zap.Logger, compatDoubleReclaim bool) *FinalizationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewCourseLocker()
	}
	return &FinalizationService{
		courses:             courses,
		enrollments:         enrollments,
		evaluations:         evaluations,
		vault:               vault,
		locker:              locker,
		publisher:           publisher,
		cache:               cache,
		metrics:             metrics,
		logger:              logger,
		compatDoubleReclaim: compatDoubleReclaim,
	}
}

// FinalizeCourse runs the terminal reconciliation for a course. The caller
// identity receives the unsold-seat burn instruction.
func (s *FinalizationService) FinalizeCourse(ctx context.Context, caller string, courseID int64, req FinalizeCourseRequest) (*models.FinalizationResult, error) {
	if req.CertificateMetadataRef == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "certificate metadata reference is required")
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
	if course.Finalized {
		return nil, appErrors.Clone(appErrors.ErrFinalized, fmt.Sprintf("course %d is already finalized", courseID))
	}

	purchased, err := s.enrollments.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count purchases")
	}
	if course.SeatsCreated < purchased {
		return nil, appErrors.Clone(appErrors.ErrSeatUnderflow, fmt.Sprintf("course %d oversold: %d seats created, %d purchased", courseID, course.SeatsCreated, purchased))
	}
	unsold := course.SeatsCreated - purchased

	entries, err := s.evaluations.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluations")
	}

	var failing []models.EvaluationEntry
	var passing int64
	for _, entry := range entries {
		if entry.Mark >= models.CertificateThreshold {
			passing++
		} else {
			failing = append(failing, entry)
		}
	}

	failedDelta := int64(len(failing))
	if s.compatDoubleReclaim {
		failedDelta *= 2
	}
	totalReclaim := unsold + failedDelta
	if course.SeatsCreated < totalReclaim {
		return nil, appErrors.Clone(appErrors.ErrSeatUnderflow, fmt.Sprintf("course %d has %d seats, reconciliation needs %d", courseID, course.SeatsCreated, totalReclaim))
	}

	// Custody first: an external failure aborts before any counter commits.
	if unsold > 0 {
		if err := s.vault.BurnBatch(ctx, caller, []int64{courseID}, []int64{unsold}); err != nil {
			return nil, err
		}
	}
	for _, entry := range failing {
		if err := s.vault.Burn(ctx, entry.StudentID, courseID, 1); err != nil {
			return nil, err
		}
	}

	if err := s.courses.ApplyFinalization(ctx, courseID, totalReclaim, req.CertificateMetadataRef, passing > 0); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrFinalized, fmt.Sprintf("course %d finalization rejected", courseID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply finalization")
	}

	s.metrics.RecordSeatsReclaimed(totalReclaim)
	s.metrics.RecordCertificatesIssued(passing)
	s.cache.Invalidate(ctx, fmt.Sprintf("course:%d*", courseID))
	s.publisher.CourseFinalized(ctx, events.CourseFinalized{
		CourseID:           courseID,
		UnsoldReclaimed:    unsold,
		FailedReclaimed:    int64(len(failing)),
		CertificatesIssued: passing,
		At:                 time.Now().UTC(),
	})
	s.logger.Info("course finalized",
		zap.Int64("course_id", courseID),
		zap.Int64("unsold_reclaimed", unsold),
		zap.Int64("failed_reclaimed", int64(len(failing))),
		zap.Int64("certificates_issued", passing))

	result := &models.FinalizationResult{
		CourseID:           courseID,
		UnsoldReclaimed:    unsold,
		FailedReclaimed:    int64(len(failing)),
		CertificatesIssued: passing,
		MetadataRef:        course.MetadataRef,
	}
	if passing > 0 {
		result.MetadataRef = req.CertificateMetadataRef
	}
	return result, nil
}
