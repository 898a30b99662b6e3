package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-ledger-api/internal/models"
	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

type paymentSweeper interface {
	SweepAll(ctx context.Context) (int64, int, error)
}

// PaymentService exposes the administrative withdrawal of collected fees.
// A failed sweep surfaces as an error and leaves ledger counters untouched.
type PaymentService struct {
	repo   paymentSweeper
	logger *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(repo paymentSweeper, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, logger: logger}
}

// Withdraw sweeps every unswept payment to the caller.
func (s *PaymentService) Withdraw(ctx context.Context) (*models.WithdrawalResult, error) {
	total, count, err := s.repo.SweepAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrWithdrawalFailed.Code, appErrors.ErrWithdrawalFailed.Status, appErrors.ErrWithdrawalFailed.Message)
	}
	s.logger.Info("payments swept", zap.Int64("amount", total), zap.Int("payments", count))
	return &models.WithdrawalResult{
		Amount:   total,
		Payments: count,
		SweptAt:  time.Now().UTC(),
	}, nil
}
