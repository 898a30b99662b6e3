package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-ledger-api/internal/models"
)

// PaymentRepository holds collected purchase fees until they are swept.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create records a collected payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CollectedAt.IsZero() {
		payment.CollectedAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, course_id, student_id, amount, swept, collected_at)
        VALUES (:id, :course_id, :student_id, :amount, :swept, :collected_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// SweepAll marks every unswept payment as swept and returns the amounts
// moved, all in one transaction.
func (r *PaymentRepository) SweepAll(ctx context.Context) (int64, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin sweep: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE payments SET swept = TRUE WHERE swept = FALSE RETURNING amount`
	rows, err := tx.QueryxContext(ctx, query)
	if err != nil {
		return 0, 0, fmt.Errorf("sweep payments: %w", err)
	}

	var total int64
	var count int
	for rows.Next() {
		var amount int64
		if err := rows.Scan(&amount); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("scan swept amount: %w", err)
		}
		total += amount
		count++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("sweep payments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit sweep: %w", err)
	}
	return total, count, nil
}
