package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/hartawan/penalty-engine/internal/accrual"
	"github.com/hartawan/penalty-engine/internal/config"
	"github.com/hartawan/penalty-engine/internal/domain"
	"github.com/hartawan/penalty-engine/internal/repository"
	customError "github.com/hartawan/penalty-engine/pkg/errors"
)

type PenaltyService struct {
	LoanRepo        repository.LoanRepository
	InstallmentRepo repository.InstallmentRepository
	redis           *redis.Client
	config          *config.Config
}

func NewPenaltyService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	redis *redis.Client,
	config *config.Config,
) *PenaltyService {
	return &PenaltyService{
		LoanRepo:        loanRepo,
		InstallmentRepo: installmentRepo,
		redis:           redis,
		config:          config,
	}
}

// EvaluatePenalty recomputes the full late-fee breakdown of a loan as of
// now, persists the outstanding total and evaluation timestamp onto the loan
// record, and refreshes the display cache. The evaluation date is frozen
// once here and threaded through every installment, so a computation that
// crosses midnight still sees a single instant.
func (s *PenaltyService) EvaluatePenalty(ctx context.Context, loanID string) (*domain.Breakdown, error) {
	loan, installments, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	evaluatedAt := time.Now().UTC()
	breakdown, err := accrual.BuildBreakdown(loan.AccrualConfig(), installments, evaluatedAt)
	if err != nil {
		return nil, err
	}

	if err = s.LoanRepo.UpdatePenaltyTotal(ctx, loanID, breakdown.TotalOutstandingFee, evaluatedAt); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	s.cacheBreakdown(ctx, loanID, breakdown)

	return breakdown, nil
}

// AllocatePenaltyPayment applies a lump late-fee payment to a loan's
// outstanding installments, oldest first. The breakdown is recomputed fresh
// at a frozen evaluation date before allocating; paid flags and the new
// total are persisted, and an audit record of the allocation is written.
//
// Overpayment policy is configuration-driven: either the excess is rejected
// outright or it is returned to the caller as an unapplied remainder to
// route elsewhere.
func (s *PenaltyService) AllocatePenaltyPayment(ctx context.Context, loanID string, amount decimal.Decimal) (*domain.AllocationResult, *domain.PenaltyPayment, error) {
	if amount.IsNegative() {
		return nil, nil, customError.WrapInvalidPaymentAmount(amount.String())
	}

	loan, installments, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	evaluatedAt := time.Now().UTC()
	breakdown, err := accrual.BuildBreakdown(loan.AccrualConfig(), installments, evaluatedAt)
	if err != nil {
		return nil, nil, err
	}

	result, err := accrual.Allocate(breakdown, amount)
	if err != nil {
		return nil, nil, err
	}

	if result.UnappliedRemainder.IsPositive() && s.config.Business.RejectOverpayment {
		return nil, nil, customError.WrapOverpayment(loanID, result.UnappliedRemainder.String())
	}

	var settled []int
	for i, entry := range result.Breakdown.Entries {
		if entry.Paid && !breakdown.Entries[i].Paid {
			settled = append(settled, entry.Index)
		}
	}
	if err = s.InstallmentRepo.MarkPaid(ctx, loanID, settled); err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	if err = s.LoanRepo.UpdatePenaltyTotal(ctx, loanID, result.Breakdown.TotalOutstandingFee, evaluatedAt); err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	payment := &domain.PenaltyPayment{
		ID:          uuid.New(),
		LoanID:      loanID,
		Amount:      amount,
		Applied:     result.Applied,
		Remainder:   result.UnappliedRemainder,
		EvaluatedAt: evaluatedAt,
		CreatedAt:   time.Now().UTC(),
	}
	if err = s.InstallmentRepo.CreatePenaltyPayment(ctx, payment); err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	s.invalidateCache(ctx, loanID)

	return result, payment, nil
}

// GetSchedule returns the loan's installments with every due date resolved,
// for display. Persisted due dates win; only missing ones are derived from
// the anchor date.
func (s *PenaltyService) GetSchedule(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	loan, installments, err := s.loadLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	cfg := loan.AccrualConfig()
	for _, inst := range installments {
		if !inst.DueDate.IsZero() {
			continue
		}
		dueDate, err := accrual.DueDate(cfg, inst.Index)
		if err != nil {
			return nil, err
		}
		inst.DueDate = dueDate
	}

	return installments, nil
}

func (s *PenaltyService) loadLoan(ctx context.Context, loanID string) (*domain.Loan, []*domain.Installment, error) {
	loan, err := s.LoanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, customError.WrapLoanNotFound(loanID)
		}
		return nil, nil, customError.WrapDatabaseError(err)
	}

	installments, err := s.InstallmentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	if len(installments) != loan.TermCount {
		return nil, nil, customError.WrapDataInconsistency(loanID, loan.TermCount, len(installments))
	}

	return loan, installments, nil
}

// Cache is write-through for display readers only; the engine never reads
// from it. A cache failure is logged, not propagated.
func (s *PenaltyService) cacheBreakdown(ctx context.Context, loanID string, breakdown *domain.Breakdown) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(breakdown)
	if err != nil {
		log.Printf("failed to marshal breakdown for loan %s: %v", loanID, err)
		return
	}
	key := breakdownCacheKey(loanID)
	if err = s.redis.Set(ctx, key, payload, s.config.Business.GetBreakdownCacheTTL()).Err(); err != nil {
		log.Printf("failed to cache breakdown for loan %s: %v", loanID, err)
	}
}

func (s *PenaltyService) invalidateCache(ctx context.Context, loanID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, breakdownCacheKey(loanID)).Err(); err != nil {
		log.Printf("failed to invalidate breakdown cache for loan %s: %v", loanID, err)
	}
}

func breakdownCacheKey(loanID string) string {
	return fmt.Sprintf("penalty:breakdown:%s", loanID)
}
