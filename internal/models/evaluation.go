package models

import "time"

// The source system used two different pass thresholds: the running pass
// counter moves on marks strictly above 6, while finalization keeps a seat
// on marks of 6 and above. They are kept as separate constants; unifying
// them would change observable behaviour.
const (
	// PassCountThreshold drives the running pass counter (mark > 6).
	PassCountThreshold = 6
	// CertificateThreshold drives the keep/burn decision at finalization
	// (mark >= 6).
	CertificateThreshold = 6
)

// EvaluationEntry is one recorded mark, appended per course in evaluation
// order.
type EvaluationEntry struct {
	ID          string    `db:"id" json:"id"`
	CourseID    int64     `db:"course_id" json:"course_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	EvaluatorID string    `db:"evaluator_id" json:"evaluator_id"`
	Mark        int       `db:"mark" json:"mark"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
}

// Passed reports whether the entry keeps its seat at finalization.
func (e EvaluationEntry) Passed() bool {
	return e.Mark >= CertificateThreshold
}

// FinalizationResult summarises one course finalization.
type FinalizationResult struct {
	CourseID           int64  `json:"course_id"`
	UnsoldReclaimed    int64  `json:"unsold_reclaimed"`
	FailedReclaimed    int64  `json:"failed_reclaimed"`
	CertificatesIssued int64  `json:"certificates_issued"`
	MetadataRef        string `json:"metadata_ref"`
}
