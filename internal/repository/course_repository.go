package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-ledger-api/internal/models"
)

// CourseSeed is one entry of a batch create/top-up.
type CourseSeed struct {
	ID          int64
	Seats       int64
	MetadataRef string
	Fee         int64
}

// CourseRepository handles persistence of course definitions and seat
// counters.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// UpsertBatch creates or tops up the given courses in one transaction and
// returns the number of entries processed. Existing courses accumulate
// seats; fee, metadata and creator are overwritten.
func (r *CourseRepository) UpsertBatch(ctx context.Context, seeds []CourseSeed, creator string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin course batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO courses (id, fee, seats_created, metadata_ref, creator, finalized, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
        ON CONFLICT (id) DO UPDATE SET
            seats_created = courses.seats_created + EXCLUDED.seats_created,
            fee = EXCLUDED.fee,
            metadata_ref = EXCLUDED.metadata_ref,
            creator = EXCLUDED.creator,
            updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	for _, seed := range seeds {
		if _, err := tx.ExecContext(ctx, query, seed.ID, seed.Fee, seed.Seats, seed.MetadataRef, creator, now); err != nil {
			return 0, fmt.Errorf("upsert course %d: %w", seed.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit course batch: %w", err)
	}
	return len(seeds), nil
}

// FindByID returns a course by its handle.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, fee, seats_created, metadata_ref, creator, finalized, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course with its derived ledger counters.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.fee, c.seats_created, c.metadata_ref, c.creator, c.finalized, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS purchased_seats,
        (SELECT COUNT(*) FROM evaluations v WHERE v.course_id = c.id AND v.mark > $2) AS passed_count
        FROM courses c WHERE c.id = $1`
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id, models.PassCountThreshold); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SetMetadataRef overwrites the metadata reference of an existing course.
func (r *CourseRepository) SetMetadataRef(ctx context.Context, id int64, ref string) error {
	const query = `UPDATE courses SET metadata_ref = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, ref, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set course metadata: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set course metadata: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetCreatedSeats returns the seat counter, zero for unknown courses.
func (r *CourseRepository) GetCreatedSeats(ctx context.Context, id int64) (int64, error) {
	const query = `SELECT COALESCE((SELECT seats_created FROM courses WHERE id = $1), 0)`
	var seats int64
	if err := r.db.GetContext(ctx, &seats, query, id); err != nil {
		return 0, fmt.Errorf("get created seats: %w", err)
	}
	return seats, nil
}

// GetFee returns the course fee, zero for unknown courses.
func (r *CourseRepository) GetFee(ctx context.Context, id int64) (int64, error) {
	const query = `SELECT COALESCE((SELECT fee FROM courses WHERE id = $1), 0)`
	var fee int64
	if err := r.db.GetContext(ctx, &fee, query, id); err != nil {
		return 0, fmt.Errorf("get course fee: %w", err)
	}
	return fee, nil
}

// GetCreator returns the course creator, empty for unknown courses.
func (r *CourseRepository) GetCreator(ctx context.Context, id int64) (string, error) {
	const query = `SELECT COALESCE((SELECT creator FROM courses WHERE id = $1), '')`
	var creator string
	if err := r.db.GetContext(ctx, &creator, query, id); err != nil {
		return "", fmt.Errorf("get course creator: %w", err)
	}
	return creator, nil
}

// ReclaimSeats decrements the seat counter, refusing to drive it below
// zero. Returns sql.ErrNoRows when the course is missing or the decrement
// would underflow.
func (r *CourseRepository) ReclaimSeats(ctx context.Context, id int64, count int64) error {
	const query = `UPDATE courses SET seats_created = seats_created - $2, updated_at = $3
        WHERE id = $1 AND seats_created >= $2`
	res, err := r.db.ExecContext(ctx, query, id, count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reclaim seats: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reclaim seats: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApplyFinalization commits the terminal counter state of a course in one
// transaction: the total seat decrement, the relabeled metadata reference
// when a certificate is issued, and the finalized flag.
func (r *CourseRepository) ApplyFinalization(ctx context.Context, id int64, seatsReclaimed int64, metadataRef string, certify bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalization: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	const reclaim = `UPDATE courses SET seats_created = seats_created - $2, updated_at = $3
        WHERE id = $1 AND finalized = FALSE AND seats_created >= $2`
	res, err := tx.ExecContext(ctx, reclaim, id, seatsReclaimed, now)
	if err != nil {
		return fmt.Errorf("finalize seats: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize seats: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if certify {
		const relabel = `UPDATE courses SET metadata_ref = $2, updated_at = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, relabel, id, metadataRef, now); err != nil {
			return fmt.Errorf("finalize metadata: %w", err)
		}
	}

	const flag = `UPDATE courses SET finalized = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, flag, id, now); err != nil {
		return fmt.Errorf("finalize flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalization: %w", err)
	}
	return nil
}
