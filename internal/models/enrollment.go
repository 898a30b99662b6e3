package models

import "time"

// Enrollment records one purchased seat. Repeat purchases by the same
// student are legal and each gets its own row; the ordered rows double as
// the per-course student list and the per-student course list.
type Enrollment struct {
	ID          string    `db:"id" json:"id"`
	CourseID    int64     `db:"course_id" json:"course_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	PurchasedAt time.Time `db:"purchased_at" json:"purchased_at"`
}

// Payment is the collected fee attached to a purchase, held until swept by
// an administrative withdrawal.
type Payment struct {
	ID          string    `db:"id" json:"id"`
	CourseID    int64     `db:"course_id" json:"course_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Swept       bool      `db:"swept" json:"swept"`
	CollectedAt time.Time `db:"collected_at" json:"collected_at"`
}

// WithdrawalResult summarises an administrative sweep.
type WithdrawalResult struct {
	Amount   int64     `json:"amount"`
	Payments int       `json:"payments"`
	SweptAt  time.Time `json:"swept_at"`
}
