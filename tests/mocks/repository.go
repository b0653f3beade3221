package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/hartawan/penalty-engine/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdatePenaltyTotal(ctx context.Context, loanID string, total decimal.Decimal, evaluatedAt time.Time) error {
	args := m.Called(ctx, loanID, total, evaluatedAt)
	return args.Error(0)
}

func (m *MockLoanRepository) ListActiveLoanIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) MarkPaid(ctx context.Context, loanID string, indices []int) error {
	args := m.Called(ctx, loanID, indices)
	return args.Error(0)
}

func (m *MockInstallmentRepository) CreatePenaltyPayment(ctx context.Context, payment *domain.PenaltyPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}
