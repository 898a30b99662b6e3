package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-ledger-api/internal/custody"
	"github.com/noah-isme/course-ledger-api/internal/models"
	"github.com/noah-isme/course-ledger-api/internal/repository"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

type courseRepository interface {
	UpsertBatch(ctx context.Context, seeds []repository.CourseSeed, creator string) (int, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error)
	SetMetadataRef(ctx context.Context, id int64, ref string) error
	GetCreatedSeats(ctx context.Context, id int64) (int64, error)
	GetFee(ctx context.Context, id int64) (int64, error)
	GetCreator(ctx context.Context, id int64) (string, error)
}

// CreateCoursesRequest batch-creates or tops up courses. The four slices
// are parallel arrays keyed by index.
type CreateCoursesRequest struct {
	IDs          []int64  `json:"ids" validate:"required,min=1"`
	SeatCounts   []int64  `json:"seat_counts" validate:"required"`
	MetadataRefs []string `json:"metadata_refs" validate:"required"`
	Fees         []int64  `json:"fees" validate:"required"`
}

// SetMetadataRequest overwrites a course's metadata reference.
type SetMetadataRequest struct {
	MetadataRef string `json:"metadata_ref" validate:"required"`
}

// CourseService owns course definitions: fee, seat counter, metadata
// reference and creator identity.
type CourseService struct {
	repo      courseRepository
	vault     custody.Vault
	locker    *CourseLocker
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, vault custody.Vault, locker *CourseLocker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewCourseLocker()
	}
	return &CourseService{repo: repo, vault: vault, locker: locker, cache: cache, validator: validate, logger: logger}
}

// CreateCourses batch-creates or tops up courses for the calling
// administrator, who becomes custodian of the newly minted seat units.
// Returns the number of entries processed.
func (s *CourseService) CreateCourses(ctx context.Context, creator string, req CreateCoursesRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course batch payload")
	}
	n := len(req.IDs)
	if len(req.SeatCounts) != n || len(req.MetadataRefs) != n || len(req.Fees) != n {
		return 0, appErrors.Clone(appErrors.ErrParamLengthMismatch, "ids, seat counts, metadata refs and fees must have equal lengths")
	}
	for i, seats := range req.SeatCounts {
		if seats < 0 || req.Fees[i] < 0 {
			return 0, appErrors.Clone(appErrors.ErrValidation, "seat counts and fees must be non-negative")
		}
	}

	unlock := s.locker.LockMany(req.IDs)
	defer unlock()

	// Mint precedes the counter commit: a custody failure aborts the
	// whole operation with no counter mutation.
	if err := s.vault.MintBatch(ctx, creator, req.IDs, req.SeatCounts); err != nil {
		return 0, err
	}

	seeds := make([]repository.CourseSeed, n)
	for i := range req.IDs {
		seeds[i] = repository.CourseSeed{ID: req.IDs[i], Seats: req.SeatCounts[i], MetadataRef: req.MetadataRefs[i], Fee: req.Fees[i]}
	}
	processed, err := s.repo.UpsertBatch(ctx, seeds, creator)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create courses")
	}

	for _, id := range req.IDs {
		s.invalidate(ctx, id)
	}
	s.logger.Info("courses created", zap.Int("count", processed), zap.String("creator", creator))
	return processed, nil
}

// SetCertificateMetadata overwrites the metadata reference of an existing
// course. The reference is course-scoped: every remaining seat holder
// shares it.
func (s *CourseService) SetCertificateMetadata(ctx context.Context, courseID int64, req SetMetadataRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metadata payload")
	}

	unlock := s.locker.Lock(courseID)
	defer unlock()

	if err := s.repo.SetMetadataRef(ctx, courseID, req.MetadataRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrCourseNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set course metadata")
	}
	s.invalidate(ctx, courseID)
	return nil
}

// GetCourse returns a course with its derived counters.
func (s *CourseService) GetCourse(ctx context.Context, courseID int64) (*models.CourseDetail, error) {
	key := courseCacheKey(courseID)
	if s.cache.Enabled() {
		var cached models.CourseDetail
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}
	detail, err := s.repo.FindDetailByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCourseNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	_ = s.cache.Set(ctx, key, detail, 0)
	return detail, nil
}

// GetCreatedSeats returns the seat counter; unknown courses read as zero.
func (s *CourseService) GetCreatedSeats(ctx context.Context, courseID int64) (int64, error) {
	seats, err := s.repo.GetCreatedSeats(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read seat counter")
	}
	return seats, nil
}

// GetFee returns the course fee; unknown courses read as zero.
func (s *CourseService) GetFee(ctx context.Context, courseID int64) (int64, error) {
	fee, err := s.repo.GetFee(ctx, courseID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read course fee")
	}
	return fee, nil
}

// GetCreator returns the course creator; unknown courses read as empty.
func (s *CourseService) GetCreator(ctx context.Context, courseID int64) (string, error) {
	creator, err := s.repo.GetCreator(ctx, courseID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read course creator")
	}
	return creator, nil
}

func (s *CourseService) invalidate(ctx context.Context, courseID int64) {
	s.cache.Invalidate(ctx, fmt.Sprintf("course:%d*", courseID))
}

func courseCacheKey(courseID int64) string {
	return fmt.Sprintf("course:%d:detail", courseID)
}
