package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel names for ledger signals.
const (
	ChannelEvaluationCompleted = "ledger.evaluation.completed"
	ChannelCourseFinalized     = "ledger.course.finalized"
)

// EvaluationCompleted is emitted after a mark is recorded.
type EvaluationCompleted struct {
	CourseID  int64     `json:"course_id"`
	StudentID string    `json:"student_id"`
	Mark      int       `json:"mark"`
	At        time.Time `json:"at"`
}

// CourseFinalized is emitted after a course's terminal reconciliation.
type CourseFinalized struct {
	CourseID           int64     `json:"course_id"`
	UnsoldReclaimed    int64     `json:"unsold_reclaimed"`
	FailedReclaimed    int64     `json:"failed_reclaimed"`
	CertificatesIssued int64     `json:"certificates_issued"`
	At                 time.Time `json:"at"`
}

// Publisher broadcasts ledger signals over Redis pub/sub. Signals are
// best-effort: a publish failure is logged, never surfaced to the caller,
// so it cannot roll back a committed ledger transition.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher constructs a publisher. A nil client disables publishing.
func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger}
}

// EvaluationCompleted publishes the evaluation-completed signal.
func (p *Publisher) EvaluationCompleted(ctx context.Context, event EvaluationCompleted) {
	p.publish(ctx, ChannelEvaluationCompleted, event)
}

// CourseFinalized publishes the course-finalized signal.
func (p *Publisher) CourseFinalized(ctx context.Context, event CourseFinalized) {
	p.publish(ctx, ChannelCourseFinalized, event)
}

func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) {
	if p == nil || p.client == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal ledger event", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.logger.Warn("publish ledger event", zap.String("channel", channel), zap.Error(err))
	}
}
