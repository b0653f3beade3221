package accrual

import (
	"github.com/shopspring/decimal"

	"github.com/hartawan/penalty-engine/internal/domain"
	customError "github.com/hartawan/penalty-engine/pkg/errors"
)

// Allocate applies a lump late-fee payment to a breakdown, oldest installment
// first, and returns a new breakdown plus whatever portion of the payment
// could not be applied. The input breakdown is never mutated.
//
// Due dates, days overdue, indices, and principal bases are copied unchanged
// from the input entries, never recomputed: they are historical facts fixed
// at evaluation time and must not shift because a payment arrived. Only fees
// and paid flags move, and fees move monotonically downward. Allocating zero
// is a no-op.
func Allocate(breakdown *domain.Breakdown, payment decimal.Decimal) (*domain.AllocationResult, error) {
	if payment.IsNegative() {
		return nil, customError.WrapInvalidPaymentAmount(payment.String())
	}

	out := breakdown.Clone()
	remaining := payment

	for i := range out.Entries {
		if remaining.IsZero() {
			break
		}
		entry := &out.Entries[i]
		if entry.Paid || !entry.LateFee.IsPositive() {
			continue
		}
		if remaining.GreaterThanOrEqual(entry.LateFee) {
			remaining = remaining.Sub(entry.LateFee)
			entry.LateFee = decimal.Zero
			entry.Paid = true
		} else {
			entry.LateFee = entry.LateFee.Sub(remaining)
			remaining = decimal.Zero
			break
		}
	}

	total := decimal.Zero
	representative := 0
	for _, entry := range out.Entries {
		if entry.Paid {
			continue
		}
		total = total.Add(entry.LateFee)
		if entry.DaysOverdue > 0 && (representative == 0 || entry.DaysOverdue < representative) {
			representative = entry.DaysOverdue
		}
	}
	out.TotalOutstandingFee = total.Round(2)
	out.RepresentativeDaysOverdue = representative

	return &domain.AllocationResult{
		Breakdown:          out,
		Applied:            payment.Sub(remaining),
		UnappliedRemainder: remaining,
	}, nil
}
