package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hartawan/penalty-engine/internal/domain"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// GetByLoanID retrieves a loan by its loan ID
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// UpdatePenaltyTotal persists the recomputed outstanding late-fee total
	// and the evaluation timestamp onto the loan record
	UpdatePenaltyTotal(ctx context.Context, loanID string, total decimal.Decimal, evaluatedAt time.Time) error

	// ListActiveLoanIDs returns the IDs of all loans eligible for penalty
	// re-evaluation
	ListActiveLoanIDs(ctx context.Context) ([]string, error)
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// GetByLoanID retrieves all installments for a loan ordered by index
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error)

	// MarkPaid flags the given installment indices as paid
	MarkPaid(ctx context.Context, loanID string, indices []int) error

	// CreatePenaltyPayment records a late-fee allocation for audit
	CreatePenaltyPayment(ctx context.Context, payment *domain.PenaltyPayment) error
}
