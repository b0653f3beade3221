package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound         = errors.New("loan not found")
	ErrInvalidConfiguration = errors.New("invalid accrual configuration")
	ErrDataInconsistency    = errors.New("installment data inconsistent with loan configuration")
	ErrOverpayment          = errors.New("payment exceeds total outstanding late fee")
	ErrComputationOverflow  = errors.New("late fee computation overflow")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeConfiguration        = "CONFIGURATION_ERROR"
	ErrCodeDataInconsistency    = "DATA_INCONSISTENCY"
	ErrCodeOverpayment          = "OVERPAYMENT"
	ErrCodeComputationOverflow  = "COMPUTATION_OVERFLOW"
	ErrCodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
	ErrCodeCacheError           = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

// WrapConfiguration flags an accrual configuration the caller must fix before
// any computation can run; invalid configuration is never silently defaulted.
func WrapConfiguration(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeConfiguration,
		detail,
		ErrInvalidConfiguration,
	)
}

func WrapDataInconsistency(loanID string, expected, got int) *BusinessError {
	return NewBusinessError(
		ErrCodeDataInconsistency,
		fmt.Sprintf("Loan %s declares %d installments but %d were fetched", loanID, expected, got),
		ErrDataInconsistency,
	)
}

func WrapOverpayment(loanID, remainder string) *BusinessError {
	return NewBusinessError(
		ErrCodeOverpayment,
		fmt.Sprintf("Payment on loan %s exceeds outstanding late fees by %s", loanID, remainder),
		ErrOverpayment,
	)
}

func WrapComputationOverflow(detail string) *BusinessError {
	return NewBusinessError(
		ErrCodeComputationOverflow,
		detail,
		ErrComputationOverflow,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
