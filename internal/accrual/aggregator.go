package accrual

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hartawan/penalty-engine/internal/domain"
	customError "github.com/hartawan/penalty-engine/pkg/errors"
)

// ValidateConfig fails fast on a broken accrual configuration, before any
// per-installment computation begins. A disabled accrual config is valid.
func ValidateConfig(cfg domain.AccrualConfig) error {
	if cfg.TermCount < 1 {
		return customError.WrapConfiguration(
			fmt.Sprintf("term count %d must be at least 1", cfg.TermCount))
	}
	if cfg.Principal.IsNegative() {
		return customError.WrapConfiguration(
			fmt.Sprintf("negative principal %s", cfg.Principal))
	}
	if cfg.AccrualRate.IsNegative() {
		return customError.WrapConfiguration(
			fmt.Sprintf("negative accrual rate %s", cfg.AccrualRate))
	}
	if cfg.GracePeriodDays < 0 {
		return customError.WrapConfiguration(
			fmt.Sprintf("negative grace period %d", cfg.GracePeriodDays))
	}
	switch cfg.Frequency {
	case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyBiweekly,
		domain.FrequencyMonthly, domain.FrequencyQuarterly, domain.FrequencyYearly:
	default:
		return customError.WrapConfiguration(
			fmt.Sprintf("unknown payment frequency %q", cfg.Frequency))
	}
	if cfg.AccrualEnabled {
		switch cfg.AccrualMode {
		case domain.AccrualModeDaily, domain.AccrualModeMonthlyStepped, domain.AccrualModeCompound:
		default:
			return customError.WrapConfiguration(
				fmt.Sprintf("unknown accrual mode %q", cfg.AccrualMode))
		}
	}
	return nil
}

// BuildBreakdown evaluates every installment of a loan against one frozen
// evaluation date and returns the per-installment accrual entries, the
// outstanding total, and the representative overdue-day count.
//
// The evaluation date is captured once by the caller and threaded unchanged
// into every entry, so a computation that straddles midnight still sees a
// single consistent instant. Calling BuildBreakdown twice with identical
// inputs yields identical output.
//
// Paid installments still get their days overdue computed, for the audit
// trail, but carry a zero fee and contribute nothing to the total. Each fee
// is rounded to 2 decimals before summation, then the sum is rounded once
// more; the per-entry-then-sum order is deliberate and load-bearing for
// reconciliation against receipts.
func BuildBreakdown(cfg domain.AccrualConfig, installments []*domain.Installment, evalDate time.Time) (*domain.Breakdown, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(installments) != cfg.TermCount {
		loanID := ""
		if len(installments) > 0 {
			loanID = installments[0].LoanID
		}
		return nil, customError.WrapDataInconsistency(loanID, cfg.TermCount, len(installments))
	}

	ordered := make([]*domain.Installment, len(installments))
	copy(ordered, installments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	defaultBase := cfg.PrincipalBase()

	entries := make([]domain.AccrualEntry, 0, len(ordered))
	total := decimal.Zero
	representative := 0

	for _, inst := range ordered {
		dueDate := inst.DueDate
		if dueDate.IsZero() {
			// Resolver is the source of truth only when no persisted due
			// date exists; a stored date is historical fact and wins.
			resolved, err := DueDate(cfg, inst.Index)
			if err != nil {
				return nil, err
			}
			dueDate = resolved
		} else {
			dueDate = CivilDate(dueDate)
		}

		base := inst.PrincipalBase
		if base.IsZero() {
			base = defaultBase
		}

		days, fee, err := Accrue(cfg, base, dueDate, evalDate)
		if err != nil {
			return nil, err
		}

		entry := domain.AccrualEntry{
			Index:         inst.Index,
			DueDate:       dueDate,
			PrincipalBase: base,
			DaysOverdue:   days,
			LateFee:       fee,
			Paid:          inst.Paid,
		}
		if inst.Paid {
			entry.LateFee = decimal.Zero
		} else {
			total = total.Add(entry.LateFee)
			if days > 0 && (representative == 0 || days < representative) {
				representative = days
			}
		}
		entries = append(entries, entry)
	}

	return &domain.Breakdown{
		Entries:                   entries,
		TotalOutstandingFee:       total.Round(2),
		RepresentativeDaysOverdue: representative,
		EvaluatedAt:               evalDate,
	}, nil
}
