package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/hartawan/penalty-engine/internal/domain"
	"github.com/hartawan/penalty-engine/internal/service"
	customError "github.com/hartawan/penalty-engine/pkg/errors"
	"github.com/hartawan/penalty-engine/pkg/response"
)

type PenaltyHandler struct {
	service   *service.PenaltyService
	validator *validator.Validate
}

func NewPenaltyHandler(service *service.PenaltyService) *PenaltyHandler {
	return &PenaltyHandler{
		service:   service,
		validator: validator.New(),
	}
}

// GetPenalty recomputes and returns the current late-fee breakdown of a loan
func (h *PenaltyHandler) GetPenalty(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	breakdown, err := h.service.EvaluatePenalty(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, &domain.PenaltyResponse{
		LoanID:    loanID,
		Breakdown: breakdown,
	})
}

// AllocatePayment applies a lump late-fee payment across the loan's
// outstanding installments, oldest first
func (h *PenaltyHandler) AllocatePayment(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.AllocatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, payment, err := h.service.AllocatePenaltyPayment(r.Context(), loanID, request.Amount)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, &domain.AllocationResponse{
		LoanID:             loanID,
		PaymentID:          payment.ID,
		Applied:            result.Applied,
		UnappliedRemainder: result.UnappliedRemainder,
		Breakdown:          result.Breakdown,
	})
}

// GetSchedule returns the loan's installments with resolved due dates
func (h *PenaltyHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	schedule, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, &domain.ScheduleResponse{
		LoanID:   loanID,
		Schedule: schedule,
	})
}

func writeBusinessError(w http.ResponseWriter, err error) {
	var businessErr *customError.BusinessError
	if !errors.As(err, &businessErr) {
		response.InternalServerError(w, "Unexpected error", err)
		return
	}

	switch businessErr.Code {
	case customError.ErrCodeLoanNotFound:
		response.NotFound(w, businessErr.Message)
	case customError.ErrCodeConfiguration,
		customError.ErrCodeInvalidPaymentAmount:
		response.BadRequest(w, businessErr.Message, businessErr.Err)
	case customError.ErrCodeOverpayment,
		customError.ErrCodeDataInconsistency,
		customError.ErrCodeComputationOverflow:
		response.UnprocessableEntity(w, businessErr.Message, businessErr.Err)
	default:
		response.InternalServerError(w, businessErr.Message, businessErr.Err)
	}
}
