package accrual

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hartawan/penalty-engine/internal/domain"
	customError "github.com/hartawan/penalty-engine/pkg/errors"
)

// maxCompoundDays bounds the exponent of compound accrual. Beyond this the
// fee magnitude is astronomical and the loan is a write-off, not a penalty
// computation; an uncapped config gets a computation overflow error instead
// of a number with thousands of digits.
const maxCompoundDays = 36500

var (
	oneHundred = decimal.NewFromInt(100)
	one        = decimal.NewFromInt(1)
)

// Accrue computes the days overdue and the late fee of a single installment
// as of a frozen evaluation date. An evaluation date earlier than the due
// date is not an error; it simply yields zero days overdue.
func Accrue(cfg domain.AccrualConfig, principal decimal.Decimal, dueDate, evalDate time.Time) (int, decimal.Decimal, error) {
	if principal.IsNegative() {
		return 0, decimal.Zero, customError.WrapConfiguration(
			fmt.Sprintf("negative principal base %s", principal))
	}
	if cfg.AccrualRate.IsNegative() {
		return 0, decimal.Zero, customError.WrapConfiguration(
			fmt.Sprintf("negative accrual rate %s", cfg.AccrualRate))
	}

	days := DaysOverdue(dueDate, evalDate, cfg.GracePeriodDays)
	if days == 0 || !cfg.AccrualEnabled || cfg.AccrualRate.IsZero() {
		return days, decimal.Zero, nil
	}

	rate := cfg.AccrualRate.Div(oneHundred)

	var fee decimal.Decimal
	switch cfg.AccrualMode {
	case domain.AccrualModeDaily:
		fee = principal.Mul(rate).Mul(decimal.NewFromInt(int64(days)))
	case domain.AccrualModeMonthlyStepped:
		months := (days + 29) / 30 // ceil(days/30)
		fee = principal.Mul(rate).Mul(decimal.NewFromInt(int64(months)))
	case domain.AccrualModeCompound:
		if days > maxCompoundDays {
			if cfg.MaxFeePerTerm.IsPositive() {
				return days, cfg.MaxFeePerTerm.Round(2), nil
			}
			return 0, decimal.Zero, customError.WrapComputationOverflow(
				fmt.Sprintf("compound accrual over %d days exceeds computable range", days))
		}
		factor := one.Add(rate).Pow(decimal.NewFromInt(int64(days)))
		fee = principal.Mul(factor.Sub(one))
	default:
		return 0, decimal.Zero, customError.WrapConfiguration(
			fmt.Sprintf("unknown accrual mode %q", cfg.AccrualMode))
	}

	if cfg.MaxFeePerTerm.IsPositive() && fee.GreaterThan(cfg.MaxFeePerTerm) {
		fee = cfg.MaxFeePerTerm
	}

	// Round half-up to 2 decimal places. decimal.Round is half-away-from-zero,
	// which coincides with half-up for non-negative fees.
	return days, fee.Round(2), nil
}

// DaysOverdue returns the whole days the evaluation date lies past the due
// date, less the grace period, floored at zero. Both dates are compared at
// civil-day granularity so the time of day never shifts the count.
func DaysOverdue(dueDate, evalDate time.Time, graceDays int) int {
	due := CivilDate(dueDate)
	eval := CivilDate(evalDate)
	raw := int(eval.Sub(due).Hours() / 24)
	days := raw - graceDays
	if days < 0 {
		return 0
	}
	return days
}
