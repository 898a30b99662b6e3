package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

type fakeSweeper struct {
	total    int64
	count    int
	sweepErr error
}

func (f *fakeSweeper) SweepAll(ctx context.Context) (int64, int, error) {
	if f.sweepErr != nil {
		return 0, 0, f.sweepErr
	}
	return f.total, f.count, nil
}

func TestPaymentServiceWithdraw(t *testing.T) {
	svc := NewPaymentService(&fakeSweeper{total: 350, count: 3}, nil)

	result, err := svc.Withdraw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(350), result.Amount)
	assert.Equal(t, 3, result.Payments)
	assert.False(t, result.SweptAt.IsZero())
}

func TestPaymentServiceWithdrawNothingToSweep(t *testing.T) {
	svc := NewPaymentService(&fakeSweeper{}, nil)

	result, err := svc.Withdraw(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Amount)
	assert.Zero(t, result.Payments)
}

func TestPaymentServiceWithdrawFailure(t *testing.T) {
	svc := NewPaymentService(&fakeSweeper{sweepErr: errors.New("payout rejected")}, nil)

	_, err := svc.Withdraw(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrWithdrawalFailed))
}
