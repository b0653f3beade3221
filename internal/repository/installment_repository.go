package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hartawan/penalty-engine/internal/domain"
)

type installmentRepository struct {
	db *sqlx.DB
}

func NewInstallmentRepository(db *sqlx.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

func (r *installmentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	query := `
		SELECT id, loan_id, idx, due_date, principal_base, paid, created_at
		FROM installments
		WHERE loan_id = $1
		ORDER BY idx
	`

	var installments []*domain.Installment
	err := r.db.SelectContext(ctx, &installments, query, loanID)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) MarkPaid(ctx context.Context, loanID string, indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	query := `
		UPDATE installments
		SET paid = TRUE
		WHERE loan_id = $1 AND idx = $2
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, idx := range indices {
		if _, err = tx.ExecContext(ctx, query, loanID, idx); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *installmentRepository) CreatePenaltyPayment(ctx context.Context, payment *domain.PenaltyPayment) error {
	query := `
		INSERT INTO penalty_payments (id, loan_id, amount, applied, remainder, evaluated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.LoanID,
		payment.Amount,
		payment.Applied,
		payment.Remainder,
		payment.EvaluatedAt,
		payment.CreatedAt,
	)

	return err
}
