package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-ledger-api/internal/models"
)

// EvaluatorRepository handles the bounded evaluator set per course.
type EvaluatorRepository struct {
	db *sqlx.DB
}

// NewEvaluatorRepository constructs the repository.
func NewEvaluatorRepository(db *sqlx.DB) *EvaluatorRepository {
	return &EvaluatorRepository{db: db}
}

// Add inserts an evaluator into a course's set.
func (r *EvaluatorRepository) Add(ctx context.Context, courseID int64, evaluatorID string) error {
	const query = `INSERT INTO course_evaluators (course_id, evaluator_id, assigned_at) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, courseID, evaluatorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add evaluator: %w", err)
	}
	return nil
}

// Remove deletes an evaluator from a course's set. Returns sql.ErrNoRows
// when the evaluator was not assigned.
func (r *EvaluatorRepository) Remove(ctx context.Context, courseID int64, evaluatorID string) error {
	const query = `DELETE FROM course_evaluators WHERE course_id = $1 AND evaluator_id = $2`
	res, err := r.db.ExecContext(ctx, query, courseID, evaluatorID)
	if err != nil {
		return fmt.Errorf("remove evaluator: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove evaluator: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByCourse returns a course's evaluators in assignment order.
func (r *EvaluatorRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.CourseEvaluator, error) {
	const query = `SELECT course_id, evaluator_id, assigned_at FROM course_evaluators WHERE course_id = $1 ORDER BY assigned_at, evaluator_id`
	var evaluators []models.CourseEvaluator
	if err := r.db.SelectContext(ctx, &evaluators, query, courseID); err != nil {
		return nil, fmt.Errorf("list evaluators: %w", err)
	}
	return evaluators, nil
}

// CountByCourse returns the size of a course's evaluator set.
func (r *EvaluatorRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM course_evaluators WHERE course_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count evaluators: %w", err)
	}
	return count, nil
}

// Exists reports whether the evaluator is assigned to the course.
func (r *EvaluatorRepository) Exists(ctx context.Context, courseID int64, evaluatorID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM course_evaluators WHERE course_id = $1 AND evaluator_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, courseID, evaluatorID); err != nil {
		return false, fmt.Errorf("check evaluator: %w", err)
	}
	return exists, nil
}
