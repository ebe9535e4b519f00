package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mcclellann/loanschedule/pkg/export"
	"github.com/mcclellann/loanschedule/pkg/ledger"
	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentRequest is the body of POST /loans/{id}/payments.
type PaymentRequest struct {
	Period   int             `json:"period"`
	Amount   decimal.Decimal `json:"amount"`
	Strategy string          `json:"strategy"` // term or payment
}

// PaymentResponse returns the recorded event with the recalculated schedule.
type PaymentResponse struct {
	Event    *models.PaymentEvent `json:"event"`
	Schedule models.Schedule      `json:"schedule"`
}

func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	var req ledger.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	quote, err := s.ledger.Quote(req)
	if err != nil {
		s.fail(w, r, "Failed to quote loan", err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req ledger.LoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	loan, err := s.ledger.CreateLoan(req)
	if err != nil {
		s.fail(w, r, "Failed to create loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid loan ID", nil)
		return
	}

	loan, err := s.ledger.GetLoan(id)
	if err != nil {
		s.fail(w, r, "Failed to get loan", err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		s.fail(w, r, "Failed to list loans", err)
		return
	}
	if loans == nil {
		loans = []*models.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid loan ID", nil)
		return
	}

	if err := s.ledger.DeleteLoan(id); err != nil {
		s.fail(w, r, "Failed to delete loan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid loan ID", nil)
		return
	}

	schedule, err := s.ledger.GetSchedule(id)
	if err != nil {
		s.fail(w, r, "Failed to get schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (s *Server) getScheduleCSVHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid loan ID", nil)
		return
	}

	schedule, err := s.ledger.GetSchedule(id)
	if err != nil {
		s.fail(w, r, "Failed to get schedule", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%s.csv"`, id))
	if err := export.WriteCSV(w, schedule); err != nil {
		// Headers are already sent.
		s.logger.Error("failed to write schedule csv", zap.Stringer("loan_id", id), zap.Error(err))
	}
}

func (s *Server) getSummaryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid loan ID", nil)
		return
	}

	summary, err := s.ledger.GetSummary(id)
	if err != nil {
		s.fail(w, r, "Failed to get summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) applyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid loan ID", nil)
		return
	}

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event, schedule, err := s.ledger.ApplyExtraPayment(id, req.Period, req.Amount, req.Strategy)
	if err != nil {
		s.fail(w, r, "Failed to apply extra payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, PaymentResponse{Event: event, Schedule: schedule})
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := loanID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid loan ID", nil)
		return
	}

	events, err := s.ledger.GetPaymentEvents(id)
	if err != nil {
		s.fail(w, r, "Failed to list payments", err)
		return
	}
	if events == nil {
		events = []*models.PaymentEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
