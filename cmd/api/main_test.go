package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcclellann/loanschedule/pkg/amortization"
	"github.com/mcclellann/loanschedule/pkg/export"
	"github.com/mcclellann/loanschedule/pkg/ledger"
	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/mcclellann/loanschedule/pkg/store"
	"github.com/shopspring/decimal"
)

func setupTestServer(t *testing.T) (*Server, *mux.Router) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test_api.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	l := ledger.NewLedger(s, amortization.NewEngine(amortization.DefaultPolicy()), nil)
	server := NewServer(s, l, nil)
	t.Cleanup(func() { server.Close() })
	return server, server.Routes()
}

func do(router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func loanRequest() map[string]any {
	return map[string]any{
		"principal":    "100000",
		"rate_percent": "12",
		"rate_type":    "NOMINAL",
		"frequency":    "monthly",
		"term":         12,
		"start_date":   "2025-01-15",
	}
}

func createLoan(t *testing.T, router *mux.Router) models.Loan {
	t.Helper()
	rr := do(router, "POST", "/loans", loanRequest())
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var loan models.Loan
	if err := json.Unmarshal(rr.Body.Bytes(), &loan); err != nil {
		t.Fatalf("Failed to decode loan: %v", err)
	}
	return loan
}

func TestAPI_CreateAndGetLoan(t *testing.T) {
	_, router := setupTestServer(t)

	createdLoan := createLoan(t, router)
	expectedPayment := decimal.RequireFromString("8884.88")
	if !createdLoan.Payment.Equal(expectedPayment) {
		t.Errorf("Expected payment %s, got %s", expectedPayment, createdLoan.Payment)
	}

	rr := do(router, "GET", "/loans/"+createdLoan.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var fetchedLoan models.Loan
	json.Unmarshal(rr.Body.Bytes(), &fetchedLoan)
	if fetchedLoan.ID != createdLoan.ID {
		t.Errorf("Expected ID %s, got %s", createdLoan.ID, fetchedLoan.ID)
	}
	if fetchedLoan.StartDate.String() != "2025-01-15" {
		t.Errorf("Expected start date 2025-01-15, got %s", fetchedLoan.StartDate)
	}

	rr = do(router, "GET", "/loans", nil)
	var loans []models.Loan
	json.Unmarshal(rr.Body.Bytes(), &loans)
	if len(loans) != 1 {
		t.Errorf("Expected 1 loan, got %d", len(loans))
	}
}

func TestAPI_Quote(t *testing.T) {
	_, router := setupTestServer(t)

	rr := do(router, "POST", "/quote", loanRequest())
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var quote amortization.Quote
	json.Unmarshal(rr.Body.Bytes(), &quote)
	if !quote.PeriodicRate.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("Expected periodic rate 0.01, got %s", quote.PeriodicRate)
	}

	rr = do(router, "GET", "/loans", nil)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("Expected quote to store nothing, got %s", rr.Body.String())
	}
}

func TestAPI_ScheduleAndSummary(t *testing.T) {
	_, router := setupTestServer(t)
	loan := createLoan(t, router)

	rr := do(router, "GET", "/loans/"+loan.ID.String()+"/schedule", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var schedule models.Schedule
	json.Unmarshal(rr.Body.Bytes(), &schedule)
	if len(schedule) != 12 {
		t.Fatalf("Expected 12 rows, got %d", len(schedule))
	}
	if !schedule[0].Interest.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected first interest 1000, got %s", schedule[0].Interest)
	}

	rr = do(router, "GET", "/loans/"+loan.ID.String()+"/schedule.csv", nil)
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected text/csv, got %q", ct)
	}
	fromCSV, err := export.ReadCSV(rr.Body)
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(fromCSV) != 12 {
		t.Errorf("Expected 12 CSV rows, got %d", len(fromCSV))
	}

	rr = do(router, "GET", "/loans/"+loan.ID.String()+"/summary", nil)
	var summary models.Summary
	json.Unmarshal(rr.Body.Bytes(), &summary)
	if !summary.TotalPrincipal.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("Expected total principal 100000, got %s", summary.TotalPrincipal)
	}
}

func TestAPI_ApplyExtraPayment(t *testing.T) {
	_, router := setupTestServer(t)
	loan := createLoan(t, router)
	path := "/loans/" + loan.ID.String() + "/payments"

	rr := do(router, "POST", path, map[string]any{"period": 3, "amount": "20000", "strategy": "term"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp PaymentResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Event == nil || resp.Event.Strategy != models.StrategyTerm {
		t.Fatalf("Unexpected event: %+v", resp.Event)
	}
	if len(resp.Schedule) >= 12 {
		t.Errorf("Expected a shorter schedule, got %d rows", len(resp.Schedule))
	}

	rr = do(router, "GET", path, nil)
	var events []models.PaymentEvent
	json.Unmarshal(rr.Body.Bytes(), &events)
	if len(events) != 1 {
		t.Errorf("Expected 1 payment event, got %d", len(events))
	}

	rr = do(router, "GET", "/loans/"+loan.ID.String()+"/summary", nil)
	var summary models.Summary
	json.Unmarshal(rr.Body.Bytes(), &summary)
	if !summary.TotalExtra.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("Expected total extra 20000, got %s", summary.TotalExtra)
	}
}

func TestAPI_ErrorStatuses(t *testing.T) {
	_, router := setupTestServer(t)
	loan := createLoan(t, router)
	payments := "/loans/" + loan.ID.String() + "/payments"

	badRate := loanRequest()
	badRate["rate_type"] = "SIMPLE"

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"invalid loan id", "GET", "/loans/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown loan", "GET", "/loans/" + uuid.New().String(), nil, http.StatusNotFound},
		{"unknown loan schedule", "GET", fmt.Sprintf("/loans/%s/schedule", uuid.New()), nil, http.StatusNotFound},
		{"unknown rate type", "POST", "/loans", badRate, http.StatusBadRequest},
		{"malformed body", "POST", "/quote", "{", http.StatusBadRequest},
		{"period out of range", "POST", payments, map[string]any{"period": 13, "amount": "100", "strategy": "term"}, http.StatusUnprocessableEntity},
		{"unknown strategy", "POST", payments, map[string]any{"period": 2, "amount": "100", "strategy": "sideways"}, http.StatusBadRequest},
		{"non-positive amount", "POST", payments, map[string]any{"period": 2, "amount": "-5", "strategy": "payment"}, http.StatusBadRequest},
		{"paid off period", "POST", payments, map[string]any{"period": 12, "amount": "100", "strategy": "term"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(router, tt.method, tt.path, tt.body)
			if rr.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Errorf("Expected a JSON error body, got %q", rr.Body.String())
			}
		})
	}
}

func TestAPI_DeleteLoan(t *testing.T) {
	_, router := setupTestServer(t)
	loan := createLoan(t, router)

	rr := do(router, "DELETE", "/loans/"+loan.ID.String(), nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
	rr = do(router, "DELETE", "/loans/"+loan.ID.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestServer_Close(t *testing.T) {
	server, router := setupTestServer(t)
	createLoan(t, router)

	if err := server.Close(); err != nil {
		t.Fatalf("Failed to close server: %v", err)
	}
	rr := do(router, "GET", "/loans", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d after close, got %d", http.StatusInternalServerError, rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrLoanNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", models.ErrInvalidArgument), http.StatusBadRequest},
		{&models.PeriodOutOfRangeError{Period: 5, Rows: 4}, http.StatusUnprocessableEntity},
		{models.ErrNonConvergence, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
