package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-ledger-api/internal/models"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

func newFinalizationService(courses *fakeCourseRepo, enrollments *fakeEnrollmentRepo, evaluations *fakeEvaluationRepo, vault *fakeVault, compat bool) *FinalizationService {
	return NewFinalizationService(courses, enrollments, evaluations, vault, NewCourseLocker(), nil, nil, nil, nil, compat)
}

func TestFinalizationServiceFinalizeCourse(t *testing.T) {
	courses := newFakeCourseRepo(&models.Course{ID: 1, SeatsCreated: 3, MetadataRef: "seat/1", Creator: "admin-1"})
	enrollments := &fakeEnrollmentRepo{rows: []models.Enrollment{
		{ID: "enroll-1", CourseID: 1, StudentID: "stud-1"},
		{ID: "enroll-2", CourseID: 1, StudentID: "stud-2"},
	}}
	evaluations := &fakeEvaluationRepo{entries: []models.EvaluationEntry{
		{ID: "eval-1", CourseID: 1, StudentID: "stud-1", EvaluatorID: "eval-a", Mark: 8},
		{ID: "eval-2", CourseID: 1, StudentID: "stud-2", EvaluatorID: "eval-a", Mark: 4},
	}}
	vault := &fakeVault{}
	svc := newFinalizationService(courses, enrollments, evaluations, vault, false)

	result, err := svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.NoError(t, err)

	// 1 unsold seat plus 1 failing student.
	assert.Equal(t, int64(1), result.UnsoldReclaimed)
	assert.Equal(t, int64(1), result.FailedReclaimed)
	assert.Equal(t, int64(1), result.CertificatesIssued)
	assert.Equal(t, "cert/1", result.MetadataRef)

	course, err := courses.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, course.Finalized)
	assert.Equal(t, int64(1), course.SeatsCreated)
	assert.Equal(t, "cert/1", course.MetadataRef)

	assert.Equal(t, int64(1), vault.burned("admin-1", 1))
	assert.Equal(t, int64(1), vault.burned("stud-2", 1))
	assert.Zero(t, vault.burned("stud-1", 1))
}

func TestFinalizationServiceFinalizeTwice(t *testing.T) {
	courses := newFakeCourseRepo(&models.Course{ID: 1, SeatsCreated: 2, Creator: "admin-1"})
	svc := newFinalizationService(courses, &fakeEnrollmentRepo{}, &fakeEvaluationRepo{}, &fakeVault{}, false)

	_, err := svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.NoError(t, err)

	_, err = svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrFinalized))
}

func TestFinalizationServiceNoPassingKeepsMetadataRef(t *testing.T) {
	courses := newFakeCourseRepo(&models.Course{ID: 1, SeatsCreated: 1, MetadataRef: "seat/1", Creator: "admin-1"})
	enrollments := &fakeEnrollmentRepo{rows: []models.Enrollment{
		{ID: "enroll-1", CourseID: 1, StudentID: "stud-1"},
	}}
	evaluations := &fakeEvaluationRepo{entries: []models.EvaluationEntry{
		{ID: "eval-1", CourseID: 1, StudentID: "stud-1", EvaluatorID: "eval-a", Mark: 3},
	}}
	svc := newFinalizationService(courses, enrollments, evaluations, &fakeVault{}, false)

	result, err := svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.NoError(t, err)
	assert.Zero(t, result.CertificatesIssued)
	assert.Equal(t, "seat/1", result.MetadataRef)

	course, _ := courses.FindByID(context.Background(), 1)
	assert.Equal(t, "seat/1", course.MetadataRef)
	assert.True(t, course.Finalized)
	assert.Zero(t, course.SeatsCreated)
}

func TestFinalizationServiceOversoldCourse(t *testing.T) {
	courses := newFakeCourseRepo(&models.Course{ID: 1, SeatsCreated: 1, Creator: "admin-1"})
	enrollments := &fakeEnrollmentRepo{rows: []models.Enrollment{
		{ID: "enroll-1", CourseID: 1, StudentID: "stud-1"},
		{ID: "enroll-2", CourseID: 1, StudentID: "stud-2"},
	}}
	vault := &fakeVault{}
	svc := newFinalizationService(courses, enrollments, &fakeEvaluationRepo{}, vault, false)

	_, err := svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrSeatUnderflow))

	course, _ := courses.FindByID(context.Background(), 1)
	assert.False(t, course.Finalized)
	assert.Empty(t, vault.calls)
}

func TestFinalizationServiceUnknownCourse(t *testing.T) {
	svc := newFinalizationService(newFakeCourseRepo(), &fakeEnrollmentRepo{}, &fakeEvaluationRepo{}, &fakeVault{}, false)

	_, err := svc.FinalizeCourse(context.Background(), "admin-1", 42, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCourseNotFound))
}

func TestFinalizationServiceMissingMetadataRef(t *testing.T) {
	courses := newFakeCourseRepo(&models.Course{ID: 1, SeatsCreated: 1, Creator: "admin-1"})
	svc := newFinalizationService(courses, &fakeEnrollmentRepo{}, &fakeEvaluationRepo{}, &fakeVault{}, false)

	_, err := svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestFinalizationServiceCompatDoublesFailedReclaim(t *testing.T) {
	courses := newFakeCourseRepo(&models.Course{ID: 1, SeatsCreated: 4, Creator: "admin-1"})
	enrollments := &fakeEnrollmentRepo{rows: []models.Enrollment{
		{ID: "enroll-1", CourseID: 1, StudentID: "stud-1"},
		{ID: "enroll-2", CourseID: 1, StudentID: "stud-2"},
	}}
	evaluations := &fakeEvaluationRepo{entries: []models.EvaluationEntry{
		{ID: "eval-1", CourseID: 1, StudentID: "stud-1", EvaluatorID: "eval-a", Mark: 8},
		{ID: "eval-2", CourseID: 1, StudentID: "stud-2", EvaluatorID: "eval-a", Mark: 4},
	}}
	vault := &fakeVault{}
	svc := newFinalizationService(courses, enrollments, evaluations, vault, true)

	result, err := svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.FailedReclaimed)

	// 2 unsold plus a doubled decrement for the single failing student;
	// custody still burns one unit per failed seat.
	course, _ := courses.FindByID(context.Background(), 1)
	assert.Zero(t, course.SeatsCreated)
	assert.Equal(t, int64(1), vault.burned("stud-2", 1))
}

func TestFinalizationServiceCustodyFailureAborts(t *testing.T) {
	courses := newFakeCourseRepo(&models.Course{ID: 1, SeatsCreated: 3, Creator: "admin-1"})
	enrollments := &fakeEnrollmentRepo{rows: []models.Enrollment{
		{ID: "enroll-1", CourseID: 1, StudentID: "stud-1"},
	}}
	vault := &fakeVault{batchErr: errors.New("custody unavailable")}
	svc := newFinalizationService(courses, enrollments, &fakeEvaluationRepo{}, vault, false)

	_, err := svc.FinalizeCourse(context.Background(), "admin-1", 1, FinalizeCourseRequest{CertificateMetadataRef: "cert/1"})
	require.Error(t, err)

	course, _ := courses.FindByID(context.Background(), 1)
	assert.False(t, course.Finalized)
	assert.Equal(t, int64(3), course.SeatsCreated)
}
