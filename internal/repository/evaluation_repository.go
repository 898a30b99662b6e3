package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-ledger-api/internal/models"
)

// EvaluationRepository handles the append-only evaluation log. Entries are
// filed under the course they were recorded for; the running pass counter
// derives from the same rows.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// Append records an evaluation entry.
func (r *EvaluationRepository) Append(ctx context.Context, entry *models.EvaluationEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO evaluations (id, course_id, student_id, evaluator_id, mark, recorded_at)
        VALUES (:id, :course_id, :student_id, :evaluator_id, :mark, :recorded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append evaluation: %w", err)
	}
	return nil
}

// ListByCourse returns a course's evaluation entries in recorded order.
func (r *EvaluationRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.EvaluationEntry, error) {
	const query = `SELECT id, course_id, student_id, evaluator_id, mark, recorded_at
        FROM evaluations WHERE course_id = $1 ORDER BY recorded_at, id`
	var entries []models.EvaluationEntry
	if err := r.db.SelectContext(ctx, &entries, query, courseID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return entries, nil
}

// CountByCourse returns the number of recorded entries for a course.
func (r *EvaluationRepository) CountByCourse(ctx context.Context, courseID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM evaluations WHERE course_id = $1`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	return count, nil
}

// PassedCount returns the running pass counter of a course.
func (r *EvaluationRepository) PassedCount(ctx context.Context, courseID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM evaluations WHERE course_id = $1 AND mark > $2`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, courseID, models.PassCountThreshold); err != nil {
		return 0, fmt.Errorf("count passed evaluations: %w", err)
	}
	return count, nil
}

// FindPassing returns the student's best passing entry for a course, used
// when rendering certificates.
func (r *EvaluationRepository) FindPassing(ctx context.Context, courseID int64, studentID string) (*models.EvaluationEntry, error) {
	const query = `SELECT id, course_id, student_id, evaluator_id, mark, recorded_at
        FROM evaluations WHERE course_id = $1 AND student_id = $2 AND mark >= $3
        ORDER BY mark DESC, recorded_at LIMIT 1`
	var entry models.EvaluationEntry
	if err := r.db.GetContext(ctx, &entry, query, courseID, studentID, models.CertificateThreshold); err != nil {
		return nil, err
	}
	return &entry, nil
}
