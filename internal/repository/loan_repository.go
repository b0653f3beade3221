package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/hartawan/penalty-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `
		SELECT id, loan_id, principal, term_count, frequency, anchor_date,
		       monthly_payment, interest_rate, accrual_enabled, accrual_rate,
		       accrual_mode, grace_period_days, max_fee_per_term, status,
		       penalty_total, evaluated_at, created_at, updated_at
		FROM loans
		WHERE loan_id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, loanID)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdatePenaltyTotal(ctx context.Context, loanID string, total decimal.Decimal, evaluatedAt time.Time) error {
	query := `
		UPDATE loans
		SET penalty_total = $2, evaluated_at = $3, updated_at = $4
		WHERE loan_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, loanID, total, evaluatedAt, time.Now())
	return err
}

func (r *loanRepository) ListActiveLoanIDs(ctx context.Context) ([]string, error) {
	query := `
		SELECT loan_id
		FROM loans
		WHERE status = $1
		ORDER BY loan_id
	`

	var loanIDs []string
	err := r.db.SelectContext(ctx, &loanIDs, query, domain.LoanStatusActive)
	if err != nil {
		return nil, err
	}

	return loanIDs, nil
}
