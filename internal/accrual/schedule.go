package accrual

import (
	"fmt"
	"time"

	"github.com/hartawan/penalty-engine/internal/domain"
	customError "github.com/hartawan/penalty-engine/pkg/errors"
)

// DueDate resolves the due date of installment index (1-based) from the
// loan's anchor date. The anchor date is the due date of installment #1;
// every later installment is anchor plus (index-1) periods. All arithmetic
// happens in the civil calendar at midnight UTC so the result never drifts
// with timezones or DST.
func DueDate(cfg domain.AccrualConfig, index int) (time.Time, error) {
	if index < 1 || index > cfg.TermCount {
		return time.Time{}, customError.WrapConfiguration(
			fmt.Sprintf("installment index %d outside [1, %d]", index, cfg.TermCount))
	}

	anchor := CivilDate(cfg.AnchorDate)
	n := index - 1

	switch cfg.Frequency {
	case domain.FrequencyDaily:
		return anchor.AddDate(0, 0, n), nil
	case domain.FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*n), nil
	case domain.FrequencyBiweekly:
		return anchor.AddDate(0, 0, 14*n), nil
	case domain.FrequencyMonthly:
		return addMonthsClamped(anchor, n), nil
	case domain.FrequencyQuarterly:
		return addMonthsClamped(anchor, 3*n), nil
	case domain.FrequencyYearly:
		return addMonthsClamped(anchor, 12*n), nil
	default:
		return time.Time{}, customError.WrapConfiguration(
			fmt.Sprintf("unknown payment frequency %q", cfg.Frequency))
	}
}

// CivilDate truncates a timestamp to its civil day, midnight UTC. Due dates
// and evaluation dates are compared only at day granularity.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped adds calendar months preserving the day-of-month,
// truncating to the last valid day when the target month is shorter.
// time.AddDate would normalize Jan 31 + 1 month to Mar 3, which is wrong for
// a repayment schedule.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	ty := y + total/12
	tm := time.Month(total%12 + 1)
	if total < 0 {
		// Go's integer division truncates toward zero; re-normalize.
		ty = y + (total-11)/12
		tm = time.Month((total%12+12)%12 + 1)
	}
	if last := daysInMonth(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
