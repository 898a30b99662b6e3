package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-ledger-api/internal/models"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
	"github.com/noah-isme/course-ledger-api/pkg/export"
)

type exportCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type exportEnrollmentReader interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error)
}

type passingEvaluationFinder interface {
	FindPassing(ctx context.Context, courseID int64, studentID string) (*models.EvaluationEntry, error)
}

type rosterRenderer interface {
	Render(courseID int64, rows []export.RosterRow) ([]byte, error)
}

type certificateRenderer interface {
	Render(cert export.Certificate) ([]byte, error)
}

// ExportService renders course rosters and completion certificates.
type ExportService struct {
	courses     exportCourseReader
	enrollments exportEnrollmentReader
	evaluations passingEvaluationFinder
	roster      rosterRenderer
	certificate certificateRenderer
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(courses exportCourseReader, enrollments exportEnrollmentReader, evaluations passingEvaluationFinder, roster rosterRenderer, certificate certificateRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if roster == nil {
		roster = export.NewRosterCSVExporter()
	}
	if certificate == nil {
		certificate = export.NewCertificatePDFExporter()
	}
	return &ExportService{
		courses:     courses,
		enrollments: enrollments,
		evaluations: evaluations,
		roster:      roster,
		certificate: certificate,
		logger:      logger,
	}
}

// RosterCSV renders a course's enrollment roster in purchase order.
func (s *ExportService) RosterCSV(ctx context.Context, courseID int64) ([]byte, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollments, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	rows := make([]export.RosterRow, 0, len(enrollments))
	for _, e := range enrollments {
		rows = append(rows, export.RosterRow{StudentID: e.StudentID, PurchasedAt: e.PurchasedAt})
	}

	payload, err := s.roster.Render(courseID, rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return payload, nil
}

// CertificatePDF renders a completion certificate for a passing student of a
// finalized course.
func (s *ExportService) CertificatePDF(ctx context.Context, courseID int64, studentID string) ([]byte, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is required")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Finalized {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %d is not finalized", courseID))
	}

	entry, err := s.evaluations.FindPassing(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no passing evaluation for student %s in course %d", studentID, courseID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}

	payload, err := s.certificate.Render(export.Certificate{
		CourseID:    courseID,
		StudentID:   studentID,
		Mark:        entry.Mark,
		MetadataRef: course.MetadataRef,
		IssuedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return payload, nil
}
