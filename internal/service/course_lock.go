package service

import (
	"sort"
	"sync"
)

// CourseLocker serializes state-mutating transitions per course. Operations
// touching different courses proceed independently; batch operations lock
// their courses in ascending id order so two overlapping batches cannot
// deadlock.
type CourseLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewCourseLocker constructs a locker.
func NewCourseLocker() *CourseLocker {
	return &CourseLocker{locks: make(map[int64]*sync.Mutex)}
}

// Lock acquires the mutex for one course and returns its release func.
func (l *CourseLocker) Lock(courseID int64) func() {
	m := l.mutexFor(courseID)
	m.Lock()
	return m.Unlock
}

// LockMany acquires the mutexes for a set of courses and returns a single
// release func. Duplicate ids are collapsed.
func (l *CourseLocker) LockMany(courseIDs []int64) func() {
	unique := make(map[int64]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		unique[id] = struct{}{}
	}
	ordered := make([]int64, 0, len(unique))
	for id := range unique {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, id := range ordered {
		m := l.mutexFor(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (l *CourseLocker) mutexFor(courseID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[courseID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[courseID] = m
	}
	return m
}
