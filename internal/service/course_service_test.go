package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

func newCourseService(repo *fakeCourseRepo, vault *fakeVault) *CourseService {
	return NewCourseService(repo, vault, NewCourseLocker(), nil, validator.New(), zap.NewNop())
}

func TestCourseServiceCreateCourses(t *testing.T) {
	repo := newFakeCourseRepo()
	vault := &fakeVault{}
	svc := newCourseService(repo, vault)

	processed, err := svc.CreateCourses(context.Background(), "admin-1", CreateCoursesRequest{
		IDs:          []int64{1, 2},
		SeatCounts:   []int64{3, 5},
		MetadataRefs: []string{"a", "b"},
		Fees:         []int64{0, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	seats, err := svc.GetCreatedSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seats)

	seats, err = svc.GetCreatedSeats(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), seats)

	creator, err := svc.GetCreator(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", creator)

	require.Len(t, vault.calls, 2)
	assert.Equal(t, "mint", vault.calls[0].op)
	assert.Equal(t, "admin-1", vault.calls[0].owner)
}

func TestCourseServiceCreateCoursesTopUp(t *testing.T) {
	repo := newFakeCourseRepo()
	svc := newCourseService(repo, &fakeVault{})

	_, err := svc.CreateCourses(context.Background(), "admin-1", CreateCoursesRequest{
		IDs: []int64{7}, SeatCounts: []int64{3}, MetadataRefs: []string{"a"}, Fees: []int64{100},
	})
	require.NoError(t, err)
	_, err = svc.CreateCourses(context.Background(), "admin-1", CreateCoursesRequest{
		IDs: []int64{7}, SeatCounts: []int64{2}, MetadataRefs: []string{"a2"}, Fees: []int64{150},
	})
	require.NoError(t, err)

	seats, err := svc.GetCreatedSeats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5), seats)

	fee, err := svc.GetFee(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(150), fee)
}

func TestCourseServiceCreateCoursesLengthMismatch(t *testing.T) {
	vault := &fakeVault{}
	svc := newCourseService(newFakeCourseRepo(), vault)

	_, err := svc.CreateCourses(context.Background(), "admin-1", CreateCoursesRequest{
		IDs:          []int64{1, 2},
		SeatCounts:   []int64{3, 5},
		MetadataRefs: []string{"a"},
		Fees:         []int64{0, 0},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrParamLengthMismatch))
	assert.Empty(t, vault.calls)
}

func TestCourseServiceCreateCoursesCustodyFailure(t *testing.T) {
	repo := newFakeCourseRepo()
	vault := &fakeVault{mintErr: errors.New("vault unavailable")}
	svc := newCourseService(repo, vault)

	_, err := svc.CreateCourses(context.Background(), "admin-1", CreateCoursesRequest{
		IDs: []int64{1}, SeatCounts: []int64{3}, MetadataRefs: []string{"a"}, Fees: []int64{0},
	})
	require.Error(t, err)

	seats, err := svc.GetCreatedSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, seats)
}

func TestCourseServiceSetMetadataUnknownCourse(t *testing.T) {
	svc := newCourseService(newFakeCourseRepo(), &fakeVault{})

	err := svc.SetCertificateMetadata(context.Background(), 42, SetMetadataRequest{MetadataRef: "ref"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCourseNotFound))
}

func TestCourseServiceAccessorsDefaultToZero(t *testing.T) {
	svc := newCourseService(newFakeCourseRepo(), &fakeVault{})

	seats, err := svc.GetCreatedSeats(context.Background(), 99)
	require.NoError(t, err)
	assert.Zero(t, seats)

	fee, err := svc.GetFee(context.Background(), 99)
	require.NoError(t, err)
	assert.Zero(t, fee)

	creator, err := svc.GetCreator(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, creator)
}
