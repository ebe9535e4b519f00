package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/loanschedule/pkg/amortization"
	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/mcclellann/loanschedule/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// LoanRequest is a loan as entered by a user: the rate as a percentage and
// the frequency and rate type as labels.
type LoanRequest struct {
	Principal   decimal.Decimal `json:"principal"`
	RatePercent decimal.Decimal `json:"rate_percent"` // 12 for 12%
	RateType    string          `json:"rate_type"`    // EFFECTIVE, NOMINAL or ANTICIPATED
	Frequency   string          `json:"frequency"`    // "monthly", "quarterly", ... or payments per year
	Term        int             `json:"term"`         // Number of periods
	StartDate   string          `json:"start_date"`   // YYYY-MM-DD, today when empty
}

// Parse validates the request and converts it into loan terms and a start
// date. Every numeric input must be positive.
func (r LoanRequest) Parse() (amortization.LoanTerms, models.Date, error) {
	if !r.Principal.IsPositive() {
		return amortization.LoanTerms{}, models.Date{}, fmt.Errorf("%w: principal must be positive, got %s", models.ErrInvalidArgument, r.Principal)
	}
	if !r.RatePercent.IsPositive() {
		return amortization.LoanTerms{}, models.Date{}, fmt.Errorf("%w: rate must be positive, got %s%%", models.ErrInvalidArgument, r.RatePercent)
	}
	if r.Term <= 0 {
		return amortization.LoanTerms{}, models.Date{}, fmt.Errorf("%w: term must be positive, got %d", models.ErrInvalidArgument, r.Term)
	}
	rateType, err := models.ParseRateType(r.RateType)
	if err != nil {
		return amortization.LoanTerms{}, models.Date{}, err
	}
	frequency, err := models.ParseFrequency(r.Frequency)
	if err != nil {
		return amortization.LoanTerms{}, models.Date{}, err
	}

	start := models.Today()
	if s := strings.TrimSpace(r.StartDate); s != "" {
		if start, err = models.ParseDate(s); err != nil {
			return amortization.LoanTerms{}, models.Date{}, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
		}
	}

	terms := amortization.LoanTerms{
		Principal:  r.Principal,
		AnnualRate: r.RatePercent.Div(hundred),
		RateType:   rateType,
		Frequency:  frequency,
		Term:       r.Term,
	}
	return terms, start, nil
}

// Ledger handles the business logic for loans, their amortization schedules
// and the extra payments applied to them.
type Ledger struct {
	storage store.Storage
	engine  *amortization.Engine
	logger  *zap.Logger

	// Serializes read-recalculate-write cycles on schedules.
	mu sync.Mutex
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage, engine *amortization.Engine, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		storage: s,
		engine:  engine,
		logger:  logger.Named("ledger"),
	}
}

// Quote returns the periodic rate and constant payment for a request without
// storing anything.
func (l *Ledger) Quote(req LoanRequest) (amortization.Quote, error) {
	terms, _, err := req.Parse()
	if err != nil {
		return amortization.Quote{}, err
	}
	return l.engine.Quote(terms)
}

// CreateLoan converts the rate, solves the payment, generates the baseline
// schedule and stores the loan with it.
func (l *Ledger) CreateLoan(req LoanRequest) (*models.Loan, error) {
	terms, start, err := req.Parse()
	if err != nil {
		return nil, err
	}
	quote, err := l.engine.Quote(terms)
	if err != nil {
		return nil, err
	}
	schedule, err := l.engine.Generate(amortization.GenerateParams{
		Principal: terms.Principal,
		Rate:      quote.PeriodicRate,
		Payment:   quote.Payment,
		Periods:   terms.Term,
		Frequency: terms.Frequency,
		Start:     start,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loan := &models.Loan{
		ID:           uuid.New(),
		Principal:    terms.Principal,
		AnnualRate:   terms.AnnualRate,
		RateType:     terms.RateType,
		Frequency:    terms.Frequency,
		Term:         terms.Term,
		StartDate:    start,
		PeriodicRate: quote.PeriodicRate,
		Payment:      quote.Payment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := l.storage.CreateLoan(loan, schedule); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	l.logger.Info("loan created",
		zap.Stringer("loan_id", loan.ID),
		zap.Stringer("principal", loan.Principal),
		zap.Stringer("periodic_rate", loan.PeriodicRate),
		zap.Stringer("payment", loan.Payment),
		zap.Int("periods", len(schedule)),
	)
	return loan, nil
}

// GetLoan retrieves a loan by its ID.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	return l.storage.GetLoan(id)
}

// GetAllLoans retrieves all loans.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	return l.storage.GetAllLoans()
}

// DeleteLoan deletes a loan together with its schedule and payment events.
func (l *Ledger) DeleteLoan(id uuid.UUID) error {
	if err := l.storage.DeleteLoan(id); err != nil {
		return err
	}
	l.logger.Info("loan deleted", zap.Stringer("loan_id", id))
	return nil
}

// GetSchedule returns the loan's current schedule.
func (l *Ledger) GetSchedule(id uuid.UUID) (models.Schedule, error) {
	return l.storage.GetSchedule(id)
}

// GetSummary returns the totals of the loan's current schedule.
func (l *Ledger) GetSummary(id uuid.UUID) (models.Summary, error) {
	schedule, err := l.storage.GetSchedule(id)
	if err != nil {
		return models.Summary{}, err
	}
	return schedule.Summarize(), nil
}

// ApplyExtraPayment recalculates the loan's schedule after an extra payment
// at the end of period, replaces the stored schedule and records the event.
// If anything fails the stored schedule is left as it was.
func (l *Ledger) ApplyExtraPayment(loanID uuid.UUID, period int, amount decimal.Decimal, strategy string) (*models.PaymentEvent, models.Schedule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, nil, err
	}
	current, err := l.storage.GetSchedule(loanID)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := models.ParseStrategy(strategy)
	if err != nil {
		return nil, nil, err
	}
	extra := amortization.ExtraPayment{
		Period:   period,
		Amount:   amount,
		Strategy: parsed,
	}
	terms := amortization.Terms{
		Rate:      loan.PeriodicRate,
		Term:      loan.Term,
		Frequency: loan.Frequency,
		Payment:   loan.Payment,
	}
	updated, err := l.engine.ApplyExtraPayment(current, extra, terms)
	if err != nil {
		l.logger.Warn("extra payment rejected",
			zap.Stringer("loan_id", loanID),
			zap.Int("period", period),
			zap.Stringer("amount", amount),
			zap.String("strategy", strategy),
			zap.Error(err),
		)
		return nil, nil, err
	}

	event := &models.PaymentEvent{
		ID:         uuid.New(),
		LoanID:     loanID,
		Period:     period,
		Amount:     amount,
		Strategy:   parsed,
		NewPayment: decimal.Zero,
		Periods:    len(updated),
		Timestamp:  time.Now().UTC(),
	}
	if period < len(updated) {
		event.NewPayment = updated[period].ScheduledPayment
	}

	if err := l.storage.SavePaymentEvent(event, updated); err != nil {
		return nil, nil, fmt.Errorf("failed to store payment event: %w", err)
	}

	l.logger.Info("extra payment applied",
		zap.Stringer("loan_id", loanID),
		zap.Int("period", period),
		zap.Stringer("amount", amount),
		zap.String("strategy", string(parsed)),
		zap.Stringer("new_payment", event.NewPayment),
		zap.Int("periods", event.Periods),
	)
	return event, updated, nil
}

// GetPaymentEvents lists the extra payments applied to a loan, oldest first.
func (l *Ledger) GetPaymentEvents(loanID uuid.UUID) ([]*models.PaymentEvent, error) {
	if _, err := l.storage.GetLoan(loanID); err != nil {
		return nil, err
	}
	return l.storage.GetPaymentEventsForLoan(loanID)
}
