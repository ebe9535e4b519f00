package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Loan is a schedule scenario held by the ledger: the agreed terms plus the
// derived periodic rate and constant payment.
type Loan struct {
	ID           uuid.UUID       `json:"id"`
	Principal    decimal.Decimal `json:"principal"`
	AnnualRate   decimal.Decimal `json:"annual_rate"`   // Decimal factor, e.g. 0.12 for 12%
	RateType     RateType        `json:"rate_type"`     // Quoting convention of AnnualRate
	Frequency    Frequency       `json:"frequency"`     // Payments per year
	Term         int             `json:"term"`          // Agreed number of periods
	StartDate    Date            `json:"start_date"`    // Date of period 1
	PeriodicRate decimal.Decimal `json:"periodic_rate"` // Ordinary (end-of-period) rate per payment
	Payment      decimal.Decimal `json:"payment"`       // Constant payment of the baseline schedule
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PaymentEvent records an ad-hoc extra payment applied to a loan's schedule.
type PaymentEvent struct {
	ID         uuid.UUID       `json:"id"`
	LoanID     uuid.UUID       `json:"loan_id"`
	Period     int             `json:"period"`
	Amount     decimal.Decimal `json:"amount"`
	Strategy   Strategy        `json:"strategy"`
	NewPayment decimal.Decimal `json:"new_payment"` // Scheduled payment in force after the event
	Periods    int             `json:"periods"`     // Schedule length after the event
	Timestamp  time.Time       `json:"timestamp"`
}
