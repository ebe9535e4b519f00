package amortization

import (
	"fmt"

	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
)

// GenerateParams are the inputs of a baseline schedule.
type GenerateParams struct {
	Principal decimal.Decimal
	Rate      decimal.Decimal // Periodic rate
	Payment   decimal.Decimal // Constant payment, usually from ConstantPayment
	Periods   int
	Frequency models.Frequency
	Start     models.Date
}

// Generate builds the baseline schedule for periods 1..Periods. The last row
// always closes the balance to exactly zero.
func (e *Engine) Generate(p GenerateParams) (models.Schedule, error) {
	switch {
	case !p.Principal.IsPositive():
		return nil, fmt.Errorf("%w: principal must be positive, got %s", models.ErrInvalidArgument, p.Principal)
	case p.Rate.IsNegative():
		return nil, fmt.Errorf("%w: periodic rate must not be negative, got %s", models.ErrInvalidArgument, p.Rate)
	case p.Payment.IsNegative():
		return nil, fmt.Errorf("%w: payment must not be negative, got %s", models.ErrInvalidArgument, p.Payment)
	case p.Periods < 1:
		return nil, fmt.Errorf("%w: number of periods must be positive, got %d", models.ErrInvalidArgument, p.Periods)
	case p.Frequency < 1:
		return nil, fmt.Errorf("%w: payment frequency must be positive, got %d", models.ErrInvalidArgument, p.Frequency)
	}

	step := e.policy.PeriodDays(p.Frequency)
	schedule := make(models.Schedule, 0, p.Periods)
	balance := e.policy.round(p.Principal)
	date := p.Start

	for period := 1; period <= p.Periods; period++ {
		row := e.nextRow(period, date, balance, p.Rate, p.Payment, period == p.Periods)
		schedule = append(schedule, row)
		balance = row.ClosingBalance
		date = date.AddDays(step)
	}
	return schedule, nil
}

// nextRow computes one period. On the final period, and on any period where
// the rounded amortization would leave the closing balance under the zero
// tolerance, the whole opening balance is amortized and the closing balance
// is exactly zero.
func (e *Engine) nextRow(period int, date models.Date, opening, rate, payment decimal.Decimal, final bool) models.ScheduleRow {
	interest := e.policy.round(opening.Mul(rate))
	principal := e.policy.round(payment.Sub(interest))
	closing := e.policy.round(opening.Sub(principal))
	paid := payment

	if final || closing.LessThan(e.policy.ZeroTolerance) {
		principal = opening
		paid = opening.Add(interest)
		closing = decimal.Zero
	}

	return models.ScheduleRow{
		Period:           period,
		Date:             date,
		OpeningBalance:   opening,
		Interest:         interest,
		ScheduledPayment: payment,
		PaymentMade:      paid,
		PrincipalPaid:    principal,
		ExtraPayment:     decimal.Zero,
		ClosingBalance:   closing,
	}
}
