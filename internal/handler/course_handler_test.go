package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-ledger-api/internal/middleware"
	"github.com/noah-isme/course-ledger-api/internal/models"
	"github.com/noah-isme/course-ledger-api/internal/repository"
	"github.com/noah-isme/course-ledger-api/internal/service"
)

type courseRepoMock struct {
	courses map[int64]*models.Course
}

func (m *courseRepoMock) UpsertBatch(ctx context.Context, seeds []repository.CourseSeed, creator string) (int, error) {
	for _, seed := range seeds {
		c, ok := m.courses[seed.ID]
		if !ok {
			c = &models.Course{ID: seed.ID}
			m.courses[seed.ID] = c
		}
		c.SeatsCreated += seed.Seats
		c.Fee = seed.Fee
		c.MetadataRef = seed.MetadataRef
		c.Creator = creator
	}
	return len(seeds), nil
}

func (m *courseRepoMock) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (m *courseRepoMock) FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.CourseDetail{Course: *c}, nil
}

func (m *courseRepoMock) SetMetadataRef(ctx context.Context, id int64, ref string) error {
	c, ok := m.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.MetadataRef = ref
	return nil
}

func (m *courseRepoMock) GetCreatedSeats(ctx context.Context, id int64) (int64, error) {
	if c, ok := m.courses[id]; ok {
		return c.SeatsCreated, nil
	}
	return 0, nil
}

func (m *courseRepoMock) GetFee(ctx context.Context, id int64) (int64, error) {
	if c, ok := m.courses[id]; ok {
		return c.Fee, nil
	}
	return 0, nil
}

func (m *courseRepoMock) GetCreator(ctx context.Context, id int64) (string, error) {
	if c, ok := m.courses[id]; ok {
		return c.Creator, nil
	}
	return "", nil
}

type vaultMock struct{}

func (vaultMock) MintBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error {
	return nil
}

func (vaultMock) BurnBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error {
	return nil
}

func (vaultMock) Burn(ctx context.Context, owner string, courseID int64, quantity int64) error {
	return nil
}

func (vaultMock) Transfer(ctx context.Context, from, to string, courseID int64, quantity int64) error {
	return nil
}

func newCourseHandlerFixture() (*CourseHandler, *courseRepoMock) {
	repo := &courseRepoMock{courses: make(map[int64]*models.Course)}
	svc := service.NewCourseService(repo, vaultMock{}, nil, nil, nil, nil)
	return NewCourseHandler(svc), repo
}

func adminContext(t *testing.T, w *httptest.ResponseRecorder) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	return c
}

func TestCourseHandlerCreate(t *testing.T) {
	handler, repo := newCourseHandlerFixture()
	w := httptest.NewRecorder()
	c := adminContext(t, w)

	body, _ := json.Marshal(service.CreateCoursesRequest{
		IDs:          []int64{1, 2},
		SeatCounts:   []int64{3, 5},
		MetadataRefs: []string{"seat/1", "seat/2"},
		Fees:         []int64{100, 200},
	})
	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(3), repo.courses[1].SeatsCreated)
	assert.Equal(t, "admin-1", repo.courses[2].Creator)
}

func TestCourseHandlerCreateInvalidBody(t *testing.T) {
	handler, _ := newCourseHandlerFixture()
	w := httptest.NewRecorder()
	c := adminContext(t, w)

	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerCreateWithoutClaims(t *testing.T) {
	handler, _ := newCourseHandlerFixture()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(service.CreateCoursesRequest{
		IDs:          []int64{1},
		SeatCounts:   []int64{1},
		MetadataRefs: []string{"seat/1"},
		Fees:         []int64{0},
	})
	req, _ := http.NewRequest(http.MethodPost, "/courses", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCourseHandlerSetMetadataInvalidID(t *testing.T) {
	handler, _ := newCourseHandlerFixture()
	w := httptest.NewRecorder()
	c := adminContext(t, w)

	body, _ := json.Marshal(service.SetMetadataRequest{MetadataRef: "cert/1"})
	req, _ := http.NewRequest(http.MethodPut, "/courses/abc/metadata", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.SetMetadata(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseHandlerSetMetadataUnknownCourse(t *testing.T) {
	handler, _ := newCourseHandlerFixture()
	w := httptest.NewRecorder()
	c := adminContext(t, w)

	body, _ := json.Marshal(service.SetMetadataRequest{MetadataRef: "cert/1"})
	req, _ := http.NewRequest(http.MethodPut, "/courses/42/metadata", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	handler.SetMetadata(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandlerGetSeats(t *testing.T) {
	handler, repo := newCourseHandlerFixture()
	repo.courses[7] = &models.Course{ID: 7, SeatsCreated: 4}

	w := httptest.NewRecorder()
	c := adminContext(t, w)
	req, _ := http.NewRequest(http.MethodGet, "/courses/7/seats", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.GetSeats(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seats_created":4`)
}
