package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/noah-isme/course-ledger-api/internal/models"
	"github.com/noah-isme/course-ledger-api/internal/repository"
)

type fakeCourseRepo struct {
	courses   map[int64]*models.Course
	upsertErr error
}

func newFakeCourseRepo(courses ...*models.Course) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: make(map[int64]*models.Course)}
	for _, c := range courses {
		repo.courses[c.ID] = c
	}
	return repo
}

func (f *fakeCourseRepo) UpsertBatch(ctx context.Context, seeds []repository.CourseSeed, creator string) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	for _, seed := range seeds {
		c, ok := f.courses[seed.ID]
		if !ok {
			c = &models.Course{ID: seed.ID}
			f.courses[seed.ID] = c
		}
		c.SeatsCreated += seed.Seats
		c.MetadataRef = seed.MetadataRef
		c.Fee = seed.Fee
		c.Creator = creator
	}
	return len(seeds), nil
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCourseRepo) FindDetailByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.CourseDetail{Course: *c}, nil
}

func (f *fakeCourseRepo) SetMetadataRef(ctx context.Context, id int64, ref string) error {
	c, ok := f.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.MetadataRef = ref
	return nil
}

func (f *fakeCourseRepo) GetCreatedSeats(ctx context.Context, id int64) (int64, error) {
	if c, ok := f.courses[id]; ok {
		return c.SeatsCreated, nil
	}
	return 0, nil
}

func (f *fakeCourseRepo) GetFee(ctx context.Context, id int64) (int64, error) {
	if c, ok := f.courses[id]; ok {
		return c.Fee, nil
	}
	return 0, nil
}

func (f *fakeCourseRepo) GetCreator(ctx context.Context, id int64) (string, error) {
	if c, ok := f.courses[id]; ok {
		return c.Creator, nil
	}
	return "", nil
}

func (f *fakeCourseRepo) ReclaimSeats(ctx context.Context, id int64, count int64) error {
	c, ok := f.courses[id]
	if !ok || c.SeatsCreated < count {
		return sql.ErrNoRows
	}
	c.SeatsCreated -= count
	return nil
}

func (f *fakeCourseRepo) ApplyFinalization(ctx context.Context, id int64, seatsReclaimed int64, metadataRef string, certify bool) error {
	c, ok := f.courses[id]
	if !ok || c.Finalized || c.SeatsCreated < seatsReclaimed {
		return sql.ErrNoRows
	}
	c.SeatsCreated -= seatsReclaimed
	if certify {
		c.MetadataRef = metadataRef
	}
	c.Finalized = true
	return nil
}

type vaultCall struct {
	op       string
	owner    string
	to       string
	courseID int64
	quantity int64
}

type fakeVault struct {
	calls       []vaultCall
	mintErr     error
	burnErr     error
	batchErr    error
	transferErr error
}

func (f *fakeVault) MintBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error {
	if f.mintErr != nil {
		return f.mintErr
	}
	for i := range courseIDs {
		f.calls = append(f.calls, vaultCall{op: "mint", owner: owner, courseID: courseIDs[i], quantity: quantities[i]})
	}
	return nil
}

func (f *fakeVault) BurnBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	for i := range courseIDs {
		f.calls = append(f.calls, vaultCall{op: "burn", owner: owner, courseID: courseIDs[i], quantity: quantities[i]})
	}
	return nil
}

func (f *fakeVault) Burn(ctx context.Context, owner string, courseID int64, quantity int64) error {
	if f.burnErr != nil {
		return f.burnErr
	}
	f.calls = append(f.calls, vaultCall{op: "burn", owner: owner, courseID: courseID, quantity: quantity})
	return nil
}

func (f *fakeVault) Transfer(ctx context.Context, from, to string, courseID int64, quantity int64) error {
	if f.transferErr != nil {
		return f.transferErr
	}
	f.calls = append(f.calls, vaultCall{op: "transfer", owner: from, to: to, courseID: courseID, quantity: quantity})
	return nil
}

func (f *fakeVault) burned(owner string, courseID int64) int64 {
	var total int64
	for _, call := range f.calls {
		if call.op == "burn" && call.owner == owner && call.courseID == courseID {
			total += call.quantity
		}
	}
	return total
}

type fakeEnrollmentRepo struct {
	rows      []models.Enrollment
	createErr error
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if f.createErr != nil {
		return f.createErr
	}
	if enrollment.ID == "" {
		enrollment.ID = fmt.Sprintf("enroll-%d", len(f.rows)+1)
	}
	if enrollment.PurchasedAt.IsZero() {
		enrollment.PurchasedAt = time.Now().UTC()
	}
	f.rows = append(f.rows, *enrollment)
	return nil
}

func (f *fakeEnrollmentRepo) ListStudentsByCourse(ctx context.Context, courseID int64) ([]string, error) {
	var students []string
	for _, row := range f.rows {
		if row.CourseID == courseID {
			students = append(students, row.StudentID)
		}
	}
	return students, nil
}

func (f *fakeEnrollmentRepo) ListCoursesForStudent(ctx context.Context, studentID string) ([]int64, error) {
	var courses []int64
	for _, row := range f.rows {
		if row.StudentID == studentID {
			courses = append(courses, row.CourseID)
		}
	}
	return courses, nil
}

func (f *fakeEnrollmentRepo) CountByCourse(ctx context.Context, courseID int64) (int64, error) {
	var count int64
	for _, row := range f.rows {
		if row.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (f *fakeEnrollmentRepo) ExistsByStudentAndCourse(ctx context.Context, studentID string, courseID int64) (bool, error) {
	for _, row := range f.rows {
		if row.StudentID == studentID && row.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentRepo) ListByCourse(ctx context.Context, courseID int64) ([]models.Enrollment, error) {
	var rows []models.Enrollment
	for _, row := range f.rows {
		if row.CourseID == courseID {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type fakeEvaluationRepo struct {
	entries   []models.EvaluationEntry
	appendErr error
}

func (f *fakeEvaluationRepo) Append(ctx context.Context, entry *models.EvaluationEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("eval-%d", len(f.entries)+1)
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeEvaluationRepo) ListByCourse(ctx context.Context, courseID int64) ([]models.EvaluationEntry, error) {
	var entries []models.EvaluationEntry
	for _, e := range f.entries {
		if e.CourseID == courseID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (f *fakeEvaluationRepo) CountByCourse(ctx context.Context, courseID int64) (int64, error) {
	var count int64
	for _, e := range f.entries {
		if e.CourseID == courseID {
			count++
		}
	}
	return count, nil
}

func (f *fakeEvaluationRepo) PassedCount(ctx context.Context, courseID int64) (int64, error) {
	var count int64
	for _, e := range f.entries {
		if e.CourseID == courseID && e.Mark > models.PassCountThreshold {
			count++
		}
	}
	return count, nil
}

func (f *fakeEvaluationRepo) FindPassing(ctx context.Context, courseID int64, studentID string) (*models.EvaluationEntry, error) {
	var best *models.EvaluationEntry
	for i, e := range f.entries {
		if e.CourseID == courseID && e.StudentID == studentID && e.Mark >= models.CertificateThreshold {
			if best == nil || e.Mark > best.Mark {
				best = &f.entries[i]
			}
		}
	}
	if best == nil {
		return nil, sql.ErrNoRows
	}
	copied := *best
	return &copied, nil
}

type fakeEvaluatorRepo struct {
	sets map[int64][]string
}

func newFakeEvaluatorRepo() *fakeEvaluatorRepo {
	return &fakeEvaluatorRepo{sets: make(map[int64][]string)}
}

func (f *fakeEvaluatorRepo) Add(ctx context.Context, courseID int64, evaluatorID string) error {
	f.sets[courseID] = append(f.sets[courseID], evaluatorID)
	return nil
}

func (f *fakeEvaluatorRepo) Remove(ctx context.Context, courseID int64, evaluatorID string) error {
	set := f.sets[courseID]
	for i, id := range set {
		if id == evaluatorID {
			f.sets[courseID] = append(set[:i], set[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeEvaluatorRepo) ListByCourse(ctx context.Context, courseID int64) ([]models.CourseEvaluator, error) {
	var evaluators []models.CourseEvaluator
	for _, id := range f.sets[courseID] {
		evaluators = append(evaluators, models.CourseEvaluator{CourseID: courseID, EvaluatorID: id})
	}
	return evaluators, nil
}

func (f *fakeEvaluatorRepo) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	return len(f.sets[courseID]), nil
}

func (f *fakeEvaluatorRepo) Exists(ctx context.Context, courseID int64, evaluatorID string) (bool, error) {
	for _, id := range f.sets[courseID] {
		if id == evaluatorID {
			return true, nil
		}
	}
	return false, nil
}

type fakeSettings struct {
	values map[string]int
}

func (f *fakeSettings) GetInt(ctx context.Context, key string) (int, bool, error) {
	if f.values == nil {
		return 0, false, nil
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeSettings) UpsertInt(ctx context.Context, key string, value int) error {
	if f.values == nil {
		f.values = make(map[string]int)
	}
	f.values[key] = value
	return nil
}

type fakeRoles struct {
	granted []string
}

func (f *fakeRoles) GrantRole(ctx context.Context, id string, role models.UserRole) error {
	f.granted = append(f.granted, fmt.Sprintf("%s:%s", id, role))
	return nil
}

type fakePayments struct {
	payments  []models.Payment
	createErr error
}

func (f *fakePayments) Create(ctx context.Context, payment *models.Payment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.payments = append(f.payments, *payment)
	return nil
}

type fakeAssignments struct {
	assigned map[string]bool
}

func (f *fakeAssignments) IsAssigned(ctx context.Context, courseID int64, evaluatorID string) (bool, error) {
	return f.assigned[fmt.Sprintf("%d:%s", courseID, evaluatorID)], nil
}
