package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-ledger-api/internal/models"
	"github.com/noah-isme/course-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

type evaluatorRepository interface {
	Add(ctx context.Context, courseID int64, evaluatorID string) error
	Remove(ctx context.Context, courseID int64, evaluatorID string) error
	ListByCourse(ctx context.Context, courseID int64) ([]models.CourseEvaluator, error)
	CountByCourse(ctx context.Context, courseID int64) (int, error)
	Exists(ctx context.Context, courseID int64, evaluatorID string) (bool, error)
}

type evaluatorCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type settingsStore interface {
	GetInt(ctx context.Context, key string) (int, bool, error)
	UpsertInt(ctx context.Context, key string, value int) error
}

type roleGranter interface {
	GrantRole(ctx context.Context, id string, role models.UserRole) error
}

// AssignEvaluatorRequest names the evaluator to add to a course's set.
type AssignEvaluatorRequest struct {
	EvaluatorID string `json:"evaluator_id" validate:"required"`
}

// SetMaxEvaluatorsRequest updates the process-wide evaluator cap.
type SetMaxEvaluatorsRequest struct {
	Amount int `json:"amount" validate:"required"`
}

// EvaluatorService owns the bounded evaluator set per course.
type EvaluatorService struct {
	repo           evaluatorRepository
	courses        evaluatorCourseReader
	settings       settingsStore
	roles          roleGranter
	locker         *CourseLocker
	validator      *validator.Validate
	logger         *zap.Logger
	defaultMaximum int
}

// NewEvaluatorService constructs EvaluatorService. defaultMaximum seeds the
// cap until an administrator overrides it.
func NewEvaluatorService(repo evaluatorRepository, courses evaluatorCourseReader, settings settingsStore, roles roleGranter, locker *CourseLocker, validate *validator.Validate, logger *zap.Logger, defaultMaximum int) *EvaluatorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewCourseLocker()
	}
	if defaultMaximum <= 0 {
		defaultMaximum = 5
	}
	return &EvaluatorService{repo: repo, courses: courses, settings: settings, roles: roles, locker: locker, validator: validate, logger: logger, defaultMaximum: defaultMaximum}
}

// Assign adds an evaluator to a course's set and grants the evaluator
// capability.
func (s *EvaluatorService) Assign(ctx context.Context, courseID int64, req AssignEvaluatorRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluator payload")
	}

	unlock := s.locker.Lock(courseID)
	defer unlock()

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrCourseNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	assigned, err := s.repo.Exists(ctx, courseID, req.EvaluatorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check evaluator set")
	}
	if assigned {
		return appErrors.ErrEvaluatorAlreadyAssigned
	}

	size, err := s.repo.CountByCourse(ctx, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count evaluators")
	}
	maximum, err := s.MaxEvaluators(ctx)
	if err != nil {
		return err
	}
	if size >= maximum {
		return appErrors.Clone(appErrors.ErrTooManyEvaluators, fmt.Sprintf("course %d already has %d of %d evaluators", courseID, size, maximum))
	}

	if err := s.repo.Add(ctx, courseID, req.EvaluatorID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add evaluator")
	}
	if err := s.roles.GrantRole(ctx, req.EvaluatorID, models.RoleEvaluator); err != nil {
		s.logger.Warn("failed to grant evaluator role", zap.String("evaluator", req.EvaluatorID), zap.Error(err))
	}
	return nil
}

// Unassign removes an evaluator from a course's set. The capability grant
// is repeated on removal, mirroring the source system.
func (s *EvaluatorService) Unassign(ctx context.Context, courseID int64, evaluatorID string) error {
	unlock := s.locker.Lock(courseID)
	defer unlock()

	if err := s.repo.Remove(ctx, courseID, evaluatorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrEvaluatorNotAssigned
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove evaluator")
	}
	if err := s.roles.GrantRole(ctx, evaluatorID, models.RoleEvaluator); err != nil {
		s.logger.Warn("failed to grant evaluator role", zap.String("evaluator", evaluatorID), zap.Error(err))
	}
	return nil
}

// List returns the evaluator set of an existing course.
func (s *EvaluatorService) List(ctx context.Context, courseID int64) ([]models.CourseEvaluator, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	evaluators, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluators")
	}
	return evaluators, nil
}

// IsAssigned reports whether the evaluator belongs to a course's set.
func (s *EvaluatorService) IsAssigned(ctx context.Context, courseID int64, evaluatorID string) (bool, error) {
	assigned, err := s.repo.Exists(ctx, courseID, evaluatorID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check evaluator set")
	}
	return assigned, nil
}

// SetMaxEvaluators updates the process-wide cap. Zero is rejected; the new
// cap takes effect immediately for every course, including those already
// above it (existing assignments stay, new ones are blocked).
func (s *EvaluatorService) SetMaxEvaluators(ctx context.Context, req SetMaxEvaluatorsRequest) error {
	if req.Amount <= 0 {
		return appErrors.ErrInvalidCapacity
	}
	if err := s.settings.UpsertInt(ctx, repository.SettingMaxEvaluators, req.Amount); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update evaluator cap")
	}
	s.logger.Info("evaluator cap updated", zap.Int("amount", req.Amount))
	return nil
}

// MaxEvaluators returns the current process-wide cap.
func (s *EvaluatorService) MaxEvaluators(ctx context.Context) (int, error) {
	value, found, err := s.settings.GetInt(ctx, repository.SettingMaxEvaluators)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read evaluator cap")
	}
	if !found {
		return s.defaultMaximum, nil
	}
	return value, nil
}
