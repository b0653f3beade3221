package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment is one repayment slot of a loan. DueDate is persisted at loan
// creation when known; a zero DueDate means the schedule resolver derives it
// from the loan's anchor date. PrincipalBase never changes after creation.
type Installment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	LoanID        string          `json:"loan_id" db:"loan_id"`
	Index         int             `json:"index" db:"idx"`
	DueDate       time.Time       `json:"due_date" db:"due_date"`
	PrincipalBase decimal.Decimal `json:"principal_base" db:"principal_base"`
	Paid          bool            `json:"paid" db:"paid"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// AccrualEntry is the evaluated lateness of a single installment as of one
// frozen evaluation date. DaysOverdue is computed even for paid installments
// so the audit trail survives payment; the fee of a paid installment is
// always zero.
type AccrualEntry struct {
	Index         int             `json:"index"`
	DueDate       time.Time       `json:"due_date"`
	PrincipalBase decimal.Decimal `json:"principal_base"`
	DaysOverdue   int             `json:"days_overdue"`
	LateFee       decimal.Decimal `json:"late_fee"`
	Paid          bool            `json:"paid"`
}

// Breakdown is the full penalty picture of a loan at one instant. Entries
// are ordered by ascending installment index and the order is significant.
// TotalOutstandingFee sums the already-rounded fees of unpaid entries.
// RepresentativeDaysOverdue is the smallest positive overdue-day count among
// unpaid entries, i.e. the soonest-due unpaid installment drives the
// displayed lateness.
type Breakdown struct {
	Entries                   []AccrualEntry  `json:"entries"`
	TotalOutstandingFee       decimal.Decimal `json:"total_outstanding_fee"`
	RepresentativeDaysOverdue int             `json:"representative_days_overdue"`
	EvaluatedAt               time.Time       `json:"evaluated_at"`
}

// Clone deep-copies the breakdown so allocation never mutates its input.
func (b *Breakdown) Clone() *Breakdown {
	entries := make([]AccrualEntry, len(b.Entries))
	copy(entries, b.Entries)
	return &Breakdown{
		Entries:                   entries,
		TotalOutstandingFee:       b.TotalOutstandingFee,
		RepresentativeDaysOverdue: b.RepresentativeDaysOverdue,
		EvaluatedAt:               b.EvaluatedAt,
	}
}

// AllocationResult is the outcome of applying a lump late-fee payment to a
// breakdown. Applied is the portion of the payment that reduced fees;
// UnappliedRemainder is whatever exceeded the outstanding total. The caller
// decides whether a remainder is an overpayment error or money to route
// elsewhere.
type AllocationResult struct {
	Breakdown          *Breakdown      `json:"breakdown"`
	Applied            decimal.Decimal `json:"applied"`
	UnappliedRemainder decimal.Decimal `json:"unapplied_remainder"`
}

// PenaltyPayment is the persisted audit record of one late-fee allocation.
type PenaltyPayment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	LoanID      string          `json:"loan_id" db:"loan_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Applied     decimal.Decimal `json:"applied" db:"applied"`
	Remainder   decimal.Decimal `json:"remainder" db:"remainder"`
	EvaluatedAt time.Time       `json:"evaluated_at" db:"evaluated_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
