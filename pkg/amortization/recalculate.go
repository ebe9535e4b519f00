package amortization

import (
	"fmt"

	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
)

// ExtraPayment is an ad-hoc payment made at the end of Period, on top of the
// scheduled payment.
type ExtraPayment struct {
	Period   int
	Amount   decimal.Decimal
	Strategy models.Strategy
}

// Terms are the loan parameters a recalculation needs besides the schedule.
type Terms struct {
	Rate      decimal.Decimal // Periodic rate
	Term      int             // Original total number of periods
	Frequency models.Frequency
	Payment   decimal.Decimal // Original constant payment, kept by StrategyTerm
}

// ApplyExtraPayment applies the extra payment to schedule and regenerates
// every later row under the chosen strategy. schedule itself is not modified:
// rows up to the event are copied into the result and the rest is rebuilt.
//
// If the extra payment settles the loan, later rows are zeroed and no
// strategy runs. Otherwise StrategyTerm goes back to the original constant
// payment in terms and shortens (or lengthens) the schedule, and
// StrategyPayment keeps the original term and solves a new constant payment
// for the remaining periods. An extra payment on a period whose balance is
// already zero is rejected with ErrInvalidArgument.
func (e *Engine) ApplyExtraPayment(schedule models.Schedule, extra ExtraPayment, terms Terms) (models.Schedule, error) {
	strategy, err := models.ParseStrategy(string(extra.Strategy))
	if err != nil {
		return nil, err
	}
	if extra.Period < 1 || extra.Period > len(schedule) {
		return nil, &models.PeriodOutOfRangeError{Period: extra.Period, Rows: len(schedule)}
	}
	if !extra.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: extra payment must be positive, got %s", models.ErrInvalidArgument, extra.Amount)
	}
	if terms.Rate.IsNegative() || terms.Term < 1 || terms.Frequency < 1 || terms.Payment.IsNegative() {
		return nil, fmt.Errorf("%w: invalid loan terms (rate %s, term %d, frequency %d, payment %s)",
			models.ErrInvalidArgument, terms.Rate, terms.Term, terms.Frequency, terms.Payment)
	}

	out := make(models.Schedule, extra.Period, max(len(schedule), terms.Term))
	copy(out, schedule[:extra.Period])

	event := out[extra.Period-1]
	if event.ClosingBalance.LessThanOrEqual(e.policy.ZeroTolerance) {
		return nil, fmt.Errorf("%w: loan is already paid off at period %d", models.ErrInvalidArgument, extra.Period)
	}
	// The extra payment cannot exceed what is still owed.
	applied := decimal.Min(extra.Amount, event.ClosingBalance)
	event.ExtraPayment = event.ExtraPayment.Add(applied)
	event.ClosingBalance = e.policy.round(event.ClosingBalance.Sub(applied))

	if event.ClosingBalance.LessThanOrEqual(e.policy.ZeroTolerance) {
		event.ClosingBalance = decimal.Zero
		out[extra.Period-1] = event
		for _, row := range schedule[extra.Period:] {
			out = append(out, settledRow(row))
		}
		return out, nil
	}
	out[extra.Period-1] = event

	next := event.Date.AddDays(e.policy.PeriodDays(terms.Frequency))
	if strategy == models.StrategyTerm {
		return e.reduceTerm(out, event.ClosingBalance, terms.Payment, next, terms)
	}
	return e.reducePayment(out, event.ClosingBalance, next, terms)
}

// reduceTerm keeps paying payment until the balance is gone. It gives up once the period number passes Term + TermCeilingSlack.
func (e *Engine) reduceTerm(out models.Schedule, balance, payment decimal.Decimal, date models.Date, terms Terms) (models.Schedule, error) {
	ceiling := terms.Term + e.policy.TermCeilingSlack
	step := e.policy.PeriodDays(terms.Frequency)

	for period := len(out) + 1; balance.GreaterThan(e.policy.ZeroTolerance); period++ {
		if period > ceiling {
			return nil, fmt.Errorf("%w: balance %s still owed after period %d paying %s per period",
				models.ErrNonConvergence, balance.StringFixed(e.policy.Places), ceiling, payment.StringFixed(e.policy.Places))
		}
		row := e.nextRow(period, date, balance, terms.Rate, payment, false)
		row.Recalculated = true
		out = append(out, row)
		balance = row.ClosingBalance
		date = date.AddDays(step)
	}
	return out, nil
}

// reducePayment spreads the balance over the periods left before the
// original term ends, with the last one closing exactly.
func (e *Engine) reducePayment(out models.Schedule, balance decimal.Decimal, date models.Date, terms Terms) (models.Schedule, error) {
	remaining := terms.Term - len(out)
	if remaining < 1 {
		return nil, fmt.Errorf("%w: extra payment at period %d leaves no periods before the term ends at %d",
			models.ErrOutOfRange, len(out), terms.Term)
	}
	payment, err := e.ConstantPayment(balance, terms.Rate, remaining)
	if err != nil {
		return nil, err
	}

	step := e.policy.PeriodDays(terms.Frequency)
	for period := len(out) + 1; period <= terms.Term; period++ {
		row := e.nextRow(period, date, balance, terms.Rate, payment, period == terms.Term)
		row.Recalculated = true
		out = append(out, row)
		balance = row.ClosingBalance
		date = date.AddDays(step)
	}
	return out, nil
}

// settledRow keeps a row's period and date and zeroes every amount.
func settledRow(row models.ScheduleRow) models.ScheduleRow {
	return models.ScheduleRow{
		Period:           row.Period,
		Date:             row.Date,
		OpeningBalance:   decimal.Zero,
		Interest:         decimal.Zero,
		ScheduledPayment: decimal.Zero,
		PaymentMade:      decimal.Zero,
		PrincipalPaid:    decimal.Zero,
		ExtraPayment:     decimal.Zero,
		ClosingBalance:   decimal.Zero,
		Recalculated:     true,
	}
}
