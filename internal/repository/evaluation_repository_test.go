package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-ledger-api/internal/models"
)

func newEvaluationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEvaluationRepositoryAppendAssignsID(t *testing.T) {
	db, mock, cleanup := newEvaluationRepoMock(t)
	defer cleanup()

	repo := NewEvaluationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO evaluations")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.EvaluationEntry{CourseID: 1, StudentID: "stud-1", EvaluatorID: "eval-1", Mark: 7}
	require.NoError(t, repo.Append(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.RecordedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryPassedCount(t *testing.T) {
	db, mock, cleanup := newEvaluationRepoMock(t)
	defer cleanup()

	repo := NewEvaluationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM evaluations WHERE course_id = $1 AND mark >")).
		WithArgs(int64(1), models.PassCountThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := repo.PassedCount(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryFindPassing(t *testing.T) {
	db, mock, cleanup := newEvaluationRepoMock(t)
	defer cleanup()

	repo := NewEvaluationRepository(db)
	rows := sqlmock.NewRows([]string{"id", "course_id", "student_id", "evaluator_id", "mark", "recorded_at"}).
		AddRow("eval-1", int64(1), "stud-1", "eval-a", 8, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, student_id, evaluator_id, mark, recorded_at")).
		WithArgs(int64(1), "stud-1", models.CertificateThreshold).
		WillReturnRows(rows)

	entry, err := repo.FindPassing(context.Background(), 1, "stud-1")
	require.NoError(t, err)
	require.Equal(t, 8, entry.Mark)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryFindPassingNoRows(t *testing.T) {
	db, mock, cleanup := newEvaluationRepoMock(t)
	defer cleanup()

	repo := NewEvaluationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, student_id, evaluator_id, mark, recorded_at")).
		WithArgs(int64(1), "stud-1", models.CertificateThreshold).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course_id", "student_id", "evaluator_id", "mark", "recorded_at"}))

	_, err := repo.FindPassing(context.Background(), 1, "stud-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
