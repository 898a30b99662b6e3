package models

import "time"

// Course is a registered offering identified by a numeric handle. A course
// exists iff Creator is non-empty; seat counters on missing courses read as
// zero.
type Course struct {
	ID           int64     `db:"id" json:"id"`
	Fee          int64     `db:"fee" json:"fee"`
	SeatsCreated int64     `db:"seats_created" json:"seats_created"`
	MetadataRef  string    `db:"metadata_ref" json:"metadata_ref"`
	Creator      string    `db:"creator" json:"creator"`
	Finalized    bool      `db:"finalized" json:"finalized"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail augments a course with its derived ledger counters.
type CourseDetail struct {
	Course
	PurchasedSeats int64 `db:"purchased_seats" json:"purchased_seats"`
	PassedCount    int64 `db:"passed_count" json:"passed_count"`
}

// CourseEvaluator is one row of a course's evaluator set.
type CourseEvaluator struct {
	CourseID    int64     `db:"course_id" json:"course_id"`
	EvaluatorID string    `db:"evaluator_id" json:"evaluator_id"`
	AssignedAt  time.Time `db:"assigned_at" json:"assigned_at"`
}
