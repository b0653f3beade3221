package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hartawan/penalty-engine/internal/config"
	"github.com/hartawan/penalty-engine/internal/domain"
	penaltyService "github.com/hartawan/penalty-engine/internal/service"
	"github.com/hartawan/penalty-engine/tests/mocks"
)

func testConfig(rejectOverpayment bool) *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			RejectOverpayment: rejectOverpayment,
			BreakdownCacheTTL: "1h",
		},
	}
}

func testLoan(loanID string) *domain.Loan {
	return &domain.Loan{
		LoanID:          loanID,
		Principal:       decimal.NewFromInt(10000),
		TermCount:       4,
		Frequency:       domain.FrequencyMonthly,
		AnchorDate:      time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		AccrualEnabled:  true,
		AccrualRate:     decimal.NewFromInt(2),
		AccrualMode:     domain.AccrualModeDaily,
		GracePeriodDays: 0,
		Status:          domain.LoanStatusActive,
	}
}

func testInstallments(loanID string, paid ...int) []*domain.Installment {
	paidSet := make(map[int]bool, len(paid))
	for _, idx := range paid {
		paidSet[idx] = true
	}
	installments := make([]*domain.Installment, 0, 4)
	for i := 1; i <= 4; i++ {
		installments = append(installments, &domain.Installment{
			LoanID:        loanID,
			Index:         i,
			PrincipalBase: decimal.NewFromInt(2500),
			Paid:          paidSet[i],
		})
	}
	return installments
}

func TestEvaluatePenalty(t *testing.T) {
	tests := []struct {
		name          string
		loanID        string
		setupMocks    func(*mocks.MockLoanRepository, *mocks.MockInstallmentRepository, string)
		expectedError bool
		errorContains string
		validate      func(*testing.T, *domain.Breakdown)
	}{
		{
			name:   "Success - breakdown computed and total persisted",
			loanID: "LOAN123",
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, loanID string) {
				loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
				instRepo.On("GetByLoanID", mock.Anything, loanID).Return(testInstallments(loanID), nil)
				loanRepo.On("UpdatePenaltyTotal", mock.Anything, loanID, mock.Anything, mock.Anything).Return(nil)
			},
			expectedError: false,
			validate: func(t *testing.T, breakdown *domain.Breakdown) {
				require.NotNil(t, breakdown)
				require.Len(t, breakdown.Entries, 4)

				sum := decimal.Zero
				for _, entry := range breakdown.Entries {
					assert.False(t, entry.Paid)
					assert.True(t, entry.LateFee.IsPositive(), "entry %d", entry.Index)
					sum = sum.Add(entry.LateFee)
				}
				assert.True(t, breakdown.TotalOutstandingFee.Equal(sum.Round(2)))
				assert.Equal(t, breakdown.Entries[3].DaysOverdue, breakdown.RepresentativeDaysOverdue,
					"soonest-due unpaid installment drives the display")
			},
		},
		{
			name:   "Success - paid installments excluded from total",
			loanID: "LOAN124",
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, loanID string) {
				loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
				instRepo.On("GetByLoanID", mock.Anything, loanID).Return(testInstallments(loanID, 1, 2), nil)
				loanRepo.On("UpdatePenaltyTotal", mock.Anything, loanID, mock.Anything, mock.Anything).Return(nil)
			},
			expectedError: false,
			validate: func(t *testing.T, breakdown *domain.Breakdown) {
				require.Len(t, breakdown.Entries, 4)
				assert.True(t, breakdown.Entries[0].Paid)
				assert.True(t, breakdown.Entries[0].LateFee.IsZero())
				assert.Positive(t, breakdown.Entries[0].DaysOverdue, "audit days survive payment")

				expected := breakdown.Entries[2].LateFee.Add(breakdown.Entries[3].LateFee).Round(2)
				assert.True(t, breakdown.TotalOutstandingFee.Equal(expected))
			},
		},
		{
			name:   "Failure - loan not found",
			loanID: "MISSING",
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, loanID string) {
				loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(nil, sql.ErrNoRows)
			},
			expectedError: true,
			errorContains: "not found",
		},
		{
			name:   "Failure - installment count mismatch aborts computation",
			loanID: "LOAN125",
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, loanID string) {
				loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
				instRepo.On("GetByLoanID", mock.Anything, loanID).Return(testInstallments(loanID)[:2], nil)
			},
			expectedError: true,
			errorContains: "DATA_INCONSISTENCY",
		},
		{
			name:   "Failure - database error on fetch",
			loanID: "LOAN126",
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, loanID string) {
				loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(nil, errors.New("connection refused"))
			},
			expectedError: true,
			errorContains: "database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := &mocks.MockLoanRepository{}
			instRepo := &mocks.MockInstallmentRepository{}
			svc := penaltyService.NewPenaltyService(loanRepo, instRepo, nil, testConfig(false))

			tt.setupMocks(loanRepo, instRepo, tt.loanID)

			breakdown, err := svc.EvaluatePenalty(context.Background(), tt.loanID)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, breakdown, "no partial breakdown on failure")
			} else {
				require.NoError(t, err)
				tt.validate(t, breakdown)
			}
			loanRepo.AssertExpectations(t)
			instRepo.AssertExpectations(t)
		})
	}
}

func TestEvaluatePenaltyIdempotentTotals(t *testing.T) {
	loanID := "LOAN200"
	loanRepo := &mocks.MockLoanRepository{}
	instRepo := &mocks.MockInstallmentRepository{}
	svc := penaltyService.NewPenaltyService(loanRepo, instRepo, nil, testConfig(false))

	loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
	instRepo.On("GetByLoanID", mock.Anything, loanID).Return(testInstallments(loanID), nil)
	loanRepo.On("UpdatePenaltyTotal", mock.Anything, loanID, mock.Anything, mock.Anything).Return(nil)

	first, err := svc.EvaluatePenalty(context.Background(), loanID)
	require.NoError(t, err)
	second, err := svc.EvaluatePenalty(context.Background(), loanID)
	require.NoError(t, err)

	// Both evaluations ran on the same civil day, so every day count and fee
	// must agree even though the evaluation instants differ.
	require.Len(t, second.Entries, len(first.Entries))
	for i := range first.Entries {
		assert.Equal(t, first.Entries[i].DaysOverdue, second.Entries[i].DaysOverdue)
		assert.True(t, first.Entries[i].LateFee.Equal(second.Entries[i].LateFee))
	}
	assert.True(t, first.TotalOutstandingFee.Equal(second.TotalOutstandingFee))
}

func TestAllocatePenaltyPayment(t *testing.T) {
	t.Run("Success - full payoff marks all installments paid", func(t *testing.T) {
		loanID := "LOAN300"
		loanRepo := &mocks.MockLoanRepository{}
		instRepo := &mocks.MockInstallmentRepository{}
		svc := penaltyService.NewPenaltyService(loanRepo, instRepo, nil, testConfig(false))

		loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
		instRepo.On("GetByLoanID", mock.Anything, loanID).Return(testInstallments(loanID), nil)
		instRepo.On("MarkPaid", mock.Anything, loanID, []int{1, 2, 3, 4}).Return(nil)
		loanRepo.On("UpdatePenaltyTotal", mock.Anything, loanID,
			mock.MatchedBy(func(total decimal.Decimal) bool { return total.IsZero() }),
			mock.Anything).Return(nil)
		instRepo.On("CreatePenaltyPayment", mock.Anything, mock.MatchedBy(func(p *domain.PenaltyPayment) bool {
			return p.LoanID == loanID && p.Applied.IsPositive()
		})).Return(nil)

		payment := decimal.New(1, 12) // far above any possible outstanding fee
		result, record, err := svc.AllocatePenaltyPayment(context.Background(), loanID, payment)

		require.NoError(t, err)
		require.NotNil(t, record)
		assert.True(t, result.Breakdown.TotalOutstandingFee.IsZero())
		assert.True(t, result.UnappliedRemainder.IsPositive())
		assert.True(t, result.Applied.Add(result.UnappliedRemainder).Equal(payment))

		loanRepo.AssertExpectations(t)
		instRepo.AssertExpectations(t)
	})

	t.Run("Failure - overpayment rejected when policy demands it", func(t *testing.T) {
		loanID := "LOAN301"
		loanRepo := &mocks.MockLoanRepository{}
		instRepo := &mocks.MockInstallmentRepository{}
		svc := penaltyService.NewPenaltyService(loanRepo, instRepo, nil, testConfig(true))

		loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
		instRepo.On("GetByLoanID", mock.Anything, loanID).Return(testInstallments(loanID), nil)

		_, _, err := svc.AllocatePenaltyPayment(context.Background(), loanID, decimal.New(1, 12))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "OVERPAYMENT")
		instRepo.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything, mock.Anything)
		loanRepo.AssertNotCalled(t, "UpdatePenaltyTotal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure - negative payment rejected before any fetch", func(t *testing.T) {
		loanRepo := &mocks.MockLoanRepository{}
		instRepo := &mocks.MockInstallmentRepository{}
		svc := penaltyService.NewPenaltyService(loanRepo, instRepo, nil, testConfig(false))

		_, _, err := svc.AllocatePenaltyPayment(context.Background(), "LOAN302", decimal.NewFromInt(-100))

		require.Error(t, err)
		loanRepo.AssertNotCalled(t, "GetByLoanID", mock.Anything, mock.Anything)
	})

	t.Run("Success - zero payment is a persisted no-op", func(t *testing.T) {
		loanID := "LOAN303"
		loanRepo := &mocks.MockLoanRepository{}
		instRepo := &mocks.MockInstallmentRepository{}
		svc := penaltyService.NewPenaltyService(loanRepo, instRepo, nil, testConfig(false))

		loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
		instRepo.On("GetByLoanID", mock.Anything, loanID).Return(testInstallments(loanID), nil)
		instRepo.On("MarkPaid", mock.Anything, loanID, []int(nil)).Return(nil)
		loanRepo.On("UpdatePenaltyTotal", mock.Anything, loanID, mock.Anything, mock.Anything).Return(nil)
		instRepo.On("CreatePenaltyPayment", mock.Anything, mock.MatchedBy(func(p *domain.PenaltyPayment) bool {
			return p.Applied.IsZero() && p.Remainder.IsZero()
		})).Return(nil)

		result, _, err := svc.AllocatePenaltyPayment(context.Background(), loanID, decimal.Zero)

		require.NoError(t, err)
		for _, entry := range result.Breakdown.Entries {
			assert.False(t, entry.Paid)
		}
	})
}

func TestGetSchedule(t *testing.T) {
	loanID := "LOAN400"
	loanRepo := &mocks.MockLoanRepository{}
	instRepo := &mocks.MockInstallmentRepository{}
	svc := penaltyService.NewPenaltyService(loanRepo, instRepo, nil, testConfig(false))

	installments := testInstallments(loanID)
	// Installment 3 carries a persisted, rescheduled due date.
	rescheduled := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	installments[2].DueDate = rescheduled

	loanRepo.On("GetByLoanID", mock.Anything, loanID).Return(testLoan(loanID), nil)
	instRepo.On("GetByLoanID", mock.Anything, loanID).Return(installments, nil)

	schedule, err := svc.GetSchedule(context.Background(), loanID)

	require.NoError(t, err)
	require.Len(t, schedule, 4)
	assert.True(t, schedule[0].DueDate.Equal(time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, schedule[1].DueDate.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, schedule[2].DueDate.Equal(rescheduled), "persisted due date is not re-derived")
	assert.True(t, schedule[3].DueDate.Equal(time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)))
}
