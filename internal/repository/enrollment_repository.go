package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-ledger-api/internal/models"
)

// EnrollmentRepository handles persistence of purchased seats. Each row is
// one purchase event; counters and the ordered student/course lists all
// derive from the same rows, so they cannot drift apart.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create persists a purchase event.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.PurchasedAt.IsZero() {
		enrollment.PurchasedAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, course_id, student_id, purchased_at)
        VALUES (:id, :course_id, :student_id, :purchased_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ListStudentsByCourse returns the enrolled students of a course in
// purchase order, duplicates included.
func (r *EnrollmentRepository) ListStudentsByCourse(ctx context.Context, courseID int64) ([]string, error) {
	const query = `SELECT student_id FROM enrollments WHERE course_id = $1 ORDER BY purchased_at, id`
	var students []string
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

// ListCoursesForStudent returns the student's purchased courses in purchase
// order, duplicates included.
func (r *EnrollmentRepository) ListCoursesForStudent(ctx context.Context, studentID string) ([]int64, error) {
	const query = `SELECT course_id FROM enrollments WHERE student_id = $1 ORDER BY purchased_at, id`
	var courses []int64
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}

// CountByCourse returns the purchased-seat counter of a course.
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// ExistsByStudentAndCourse reports whether the student holds at least one
// seat in the course.
func (r *EnrollmentRepository) ExistsByStudentAndCourse(ctx context.Context, studentID string, courseID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// ListByCourse returns the full purchase rows for a course, in purchase
// order. Used by roster exports.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error) {
	const query = `SELECT id, course_id, student_id, purchased_at FROM enrollments WHERE course_id = $1 ORDER BY purchased_at, id`
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}
