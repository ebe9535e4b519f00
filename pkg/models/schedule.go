package models

import (
	"github.com/shopspring/decimal"
)

// ScheduleRow is one period of an amortization schedule.
type ScheduleRow struct {
	Period           int             `json:"period"`
	Date             Date            `json:"date"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	Interest         decimal.Decimal `json:"interest"`
	ScheduledPayment decimal.Decimal `json:"scheduled_payment"` // Constant payment the row was generated against
	PaymentMade      decimal.Decimal `json:"payment_made"`      // Differs from ScheduledPayment on closing rows
	PrincipalPaid    decimal.Decimal `json:"principal_paid"`
	ExtraPayment     decimal.Decimal `json:"extra_payment"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	Recalculated     bool            `json:"recalculated"` // Produced by an extra-payment recalculation
}

// Schedule is a period-ordered sequence of rows, starting at period 1 with no gaps.
type Schedule []ScheduleRow

// Clone returns a copy that shares no rows with s.
func (s Schedule) Clone() Schedule {
	if s == nil {
		return nil
	}
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}

// Last returns the final row. ok is false for an empty schedule.
func (s Schedule) Last() (row ScheduleRow, ok bool) {
	if len(s) == 0 {
		return ScheduleRow{}, false
	}
	return s[len(s)-1], true
}

// Summary aggregates a schedule for display.
type Summary struct {
	Periods             int             `json:"periods"`
	TotalPaid           decimal.Decimal `json:"total_paid"` // Scheduled payments plus extra payments
	TotalInterest       decimal.Decimal `json:"total_interest"`
	TotalPrincipal      decimal.Decimal `json:"total_principal"`
	TotalExtra          decimal.Decimal `json:"total_extra"`
	RecalculatedPeriods int             `json:"recalculated_periods"`
	PayoffDate          Date            `json:"payoff_date"` // Date of the last row with a payment
}

// Summarize totals the schedule. Zeroed rows after an early payoff count
// towards Periods but not towards PayoffDate.
func (s Schedule) Summarize() Summary {
	sum := Summary{
		Periods:        len(s),
		TotalPaid:      decimal.Zero,
		TotalInterest:  decimal.Zero,
		TotalPrincipal: decimal.Zero,
		TotalExtra:     decimal.Zero,
	}
	for _, row := range s {
		sum.TotalInterest = sum.TotalInterest.Add(row.Interest)
		sum.TotalPrincipal = sum.TotalPrincipal.Add(row.PrincipalPaid)
		sum.TotalExtra = sum.TotalExtra.Add(row.ExtraPayment)
		sum.TotalPaid = sum.TotalPaid.Add(row.PaymentMade).Add(row.ExtraPayment)
		if row.Recalculated {
			sum.RecalculatedPeriods++
		}
		if row.PaymentMade.IsPositive() || row.ExtraPayment.IsPositive() {
			sum.PayoffDate = row.Date
		}
	}
	return sum
}
