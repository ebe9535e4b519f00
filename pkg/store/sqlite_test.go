package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test_store.db"), nil)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLoan() *models.Loan {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Loan{
		ID:           uuid.New(),
		Principal:    decimal.NewFromInt(1000),
		AnnualRate:   decimal.RequireFromString("0.12"),
		RateType:     models.RateTypeNominal,
		Frequency:    12,
		Term:         2,
		StartDate:    models.NewDate(2025, time.March, 1),
		PeriodicRate: decimal.RequireFromString("0.01"),
		Payment:      decimal.RequireFromString("507.51"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testSchedule() models.Schedule {
	return models.Schedule{
		{
			Period:           1,
			Date:             models.NewDate(2025, time.March, 1),
			OpeningBalance:   decimal.NewFromInt(1000),
			Interest:         decimal.NewFromInt(10),
			ScheduledPayment: decimal.RequireFromString("507.51"),
			PaymentMade:      decimal.RequireFromString("507.51"),
			PrincipalPaid:    decimal.RequireFromString("497.51"),
			ExtraPayment:     decimal.Zero,
			ClosingBalance:   decimal.RequireFromString("502.49"),
		},
		{
			Period:           2,
			Date:             models.NewDate(2025, time.March, 31),
			OpeningBalance:   decimal.RequireFromString("502.49"),
			Interest:         decimal.RequireFromString("5.02"),
			ScheduledPayment: decimal.RequireFromString("507.51"),
			PaymentMade:      decimal.RequireFromString("507.51"),
			PrincipalPaid:    decimal.RequireFromString("502.49"),
			ExtraPayment:     decimal.Zero,
			ClosingBalance:   decimal.Zero,
		},
	}
}

func TestSQLiteStore_CreateAndGetLoan(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan()

	if err := s.CreateLoan(loan, testSchedule()); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	fetched, err := s.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get loan: %v", err)
	}

	if !fetched.Principal.Equal(loan.Principal) {
		t.Errorf("Expected Principal %s, got %s", loan.Principal, fetched.Principal)
	}
	if !fetched.PeriodicRate.Equal(loan.PeriodicRate) {
		t.Errorf("Expected PeriodicRate %s, got %s", loan.PeriodicRate, fetched.PeriodicRate)
	}
	if fetched.RateType != models.RateTypeNominal {
		t.Errorf("Expected RateType NOMINAL, got %s", fetched.RateType)
	}
	if fetched.Frequency != 12 || fetched.Term != 2 {
		t.Errorf("Expected frequency 12 and term 2, got %d and %d", fetched.Frequency, fetched.Term)
	}
	if !fetched.StartDate.Equal(loan.StartDate) {
		t.Errorf("Expected StartDate %s, got %s", loan.StartDate, fetched.StartDate)
	}

	schedule, err := s.GetSchedule(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get schedule: %v", err)
	}
	if len(schedule) != 2 {
		t.Fatalf("Expected 2 schedule rows, got %d", len(schedule))
	}
	if !schedule[1].Interest.Equal(decimal.RequireFromString("5.02")) {
		t.Errorf("Expected interest 5.02, got %s", schedule[1].Interest)
	}
	if schedule[1].Date.String() != "2025-03-31" {
		t.Errorf("Expected date 2025-03-31, got %s", schedule[1].Date)
	}
}

func TestSQLiteStore_GetLoanNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetLoan(uuid.New()); !errors.Is(err, models.ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound, got %v", err)
	}
	if _, err := s.GetSchedule(uuid.New()); !errors.Is(err, models.ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound for schedule, got %v", err)
	}
	if err := s.DeleteLoan(uuid.New()); !errors.Is(err, models.ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound on delete, got %v", err)
	}
}

func TestSQLiteStore_SavePaymentEvent(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan()
	if err := s.CreateLoan(loan, testSchedule()); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	// Settle the loan with an extra payment in period 1.
	settled := testSchedule()
	settled[0].ExtraPayment = decimal.RequireFromString("502.49")
	settled[0].ClosingBalance = decimal.Zero
	settled[1] = models.ScheduleRow{
		Period:           2,
		Date:             settled[1].Date,
		OpeningBalance:   decimal.Zero,
		Interest:         decimal.Zero,
		ScheduledPayment: decimal.Zero,
		PaymentMade:      decimal.Zero,
		PrincipalPaid:    decimal.Zero,
		ExtraPayment:     decimal.Zero,
		ClosingBalance:   decimal.Zero,
		Recalculated:     true,
	}

	event := &models.PaymentEvent{
		ID:         uuid.New(),
		LoanID:     loan.ID,
		Period:     1,
		Amount:     decimal.NewFromInt(600),
		Strategy:   models.StrategyTerm,
		NewPayment: decimal.Zero,
		Periods:    2,
		Timestamp:  time.Now(),
	}
	if err := s.SavePaymentEvent(event, settled); err != nil {
		t.Fatalf("Failed to save payment event: %v", err)
	}

	schedule, err := s.GetSchedule(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get schedule: %v", err)
	}
	if !schedule[0].ExtraPayment.Equal(decimal.RequireFromString("502.49")) {
		t.Errorf("Expected extra payment 502.49, got %s", schedule[0].ExtraPayment)
	}
	if !schedule[1].Recalculated {
		t.Error("Expected period 2 to be flagged as recalculated")
	}

	events, err := s.GetPaymentEventsForLoan(loan.ID)
	if err != nil {
		t.Fatalf("Failed to get payment events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 payment event, got %d", len(events))
	}
	if !events[0].Amount.Equal(decimal.NewFromInt(600)) || events[0].Strategy != models.StrategyTerm {
		t.Errorf("Unexpected payment event: %+v", events[0])
	}
}

func TestSQLiteStore_SavePaymentEventUnknownLoan(t *testing.T) {
	s := newTestStore(t)
	event := &models.PaymentEvent{
		ID:        uuid.New(),
		LoanID:    uuid.New(),
		Period:    1,
		Amount:    decimal.NewFromInt(1),
		Strategy:  models.StrategyTerm,
		Timestamp: time.Now(),
	}
	if err := s.SavePaymentEvent(event, testSchedule()); !errors.Is(err, models.ErrLoanNotFound) {
		t.Errorf("Expected ErrLoanNotFound, got %v", err)
	}
}

func TestSQLiteStore_DeleteLoan(t *testing.T) {
	s := newTestStore(t)
	loan := testLoan()
	if err := s.CreateLoan(loan, testSchedule()); err != nil {
		t.Fatalf("Failed to create loan: %v", err)
	}

	if err := s.DeleteLoan(loan.ID); err != nil {
		t.Fatalf("Failed to delete loan: %v", err)
	}
	if _, err := s.GetLoan(loan.ID); !errors.Is(err, models.ErrLoanNotFound) {
		t.Errorf("Expected loan to be gone, got %v", err)
	}
	loans, err := s.GetAllLoans()
	if err != nil {
		t.Fatalf("Failed to list loans: %v", err)
	}
	if len(loans) != 0 {
		t.Errorf("Expected no loans, got %d", len(loans))
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := NewSQLiteStore(MemoryDSN, nil)
	if err != nil {
		t.Fatalf("Failed to create in-memory store: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.CreateLoan(testLoan(), testSchedule()); err != nil {
			t.Fatalf("Failed to create loan: %v", err)
		}
	}
	loans, err := s.GetAllLoans()
	if err != nil {
		t.Fatalf("Failed to list loans: %v", err)
	}
	if len(loans) != 3 {
		t.Errorf("Expected 3 loans, got %d", len(loans))
	}
}
