package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive  = "active"
	LoanStatusClosed  = "closed"
	LoanStatusDefault = "default"
)

// Payment frequencies
const (
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyBiweekly  = "biweekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// Accrual modes
const (
	AccrualModeDaily          = "daily"
	AccrualModeMonthlyStepped = "monthly_stepped"
	AccrualModeCompound       = "compound"
)

// Loan represents a loan entity together with its penalty accrual terms.
// The accrual fields are fixed at loan origination and treated as immutable
// by the engine; AnchorDate is the due date of installment #1 and is the only
// base date used to derive the remaining due dates.
type Loan struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	LoanID          string          `json:"loan_id" db:"loan_id"`
	Principal       decimal.Decimal `json:"principal" db:"principal"`
	TermCount       int             `json:"term_count" db:"term_count"`
	Frequency       string          `json:"frequency" db:"frequency"`
	AnchorDate      time.Time       `json:"anchor_date" db:"anchor_date"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment" db:"monthly_payment"`
	InterestRate    decimal.Decimal `json:"interest_rate" db:"interest_rate"`
	AccrualEnabled  bool            `json:"accrual_enabled" db:"accrual_enabled"`
	AccrualRate     decimal.Decimal `json:"accrual_rate" db:"accrual_rate"`
	AccrualMode     string          `json:"accrual_mode" db:"accrual_mode"`
	GracePeriodDays int             `json:"grace_period_days" db:"grace_period_days"`
	MaxFeePerTerm   decimal.Decimal `json:"max_fee_per_term" db:"max_fee_per_term"`
	Status          string          `json:"status" db:"status"`
	PenaltyTotal    decimal.Decimal `json:"penalty_total" db:"penalty_total"`
	EvaluatedAt     time.Time       `json:"evaluated_at" db:"evaluated_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// AccrualConfig is the immutable slice of loan terms the penalty engine
// reads. It is derived from a Loan and never written back.
type AccrualConfig struct {
	Principal       decimal.Decimal
	TermCount       int
	Frequency       string
	AnchorDate      time.Time
	AccrualEnabled  bool
	AccrualRate     decimal.Decimal
	AccrualMode     string
	GracePeriodDays int
	MaxFeePerTerm   decimal.Decimal
}

// AccrualConfig extracts the engine-facing accrual terms from the loan.
func (l *Loan) AccrualConfig() AccrualConfig {
	return AccrualConfig{
		Principal:       l.Principal,
		TermCount:       l.TermCount,
		Frequency:       l.Frequency,
		AnchorDate:      l.AnchorDate,
		AccrualEnabled:  l.AccrualEnabled,
		AccrualRate:     l.AccrualRate,
		AccrualMode:     l.AccrualMode,
		GracePeriodDays: l.GracePeriodDays,
		MaxFeePerTerm:   l.MaxFeePerTerm,
	}
}

// PrincipalBase returns the per-installment principal share used as the
// accrual base. Loans store the total principal; each installment carries an
// equal share unless the installment row overrides it.
func (c AccrualConfig) PrincipalBase() decimal.Decimal {
	if c.TermCount <= 0 {
		return decimal.Zero
	}
	return c.Principal.Div(decimal.NewFromInt(int64(c.TermCount))).Round(2)
}

// DTOs for requests and responses

type AllocatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type PenaltyResponse struct {
	LoanID    string     `json:"loan_id"`
	Breakdown *Breakdown `json:"breakdown"`
}

type AllocationResponse struct {
	LoanID             string          `json:"loan_id"`
	PaymentID          uuid.UUID       `json:"payment_id"`
	Applied            decimal.Decimal `json:"applied"`
	UnappliedRemainder decimal.Decimal `json:"unapplied_remainder"`
	Breakdown          *Breakdown      `json:"breakdown"`
}

type ScheduleResponse struct {
	LoanID   string         `json:"loan_id"`
	Schedule []*Installment `json:"schedule"`
}
