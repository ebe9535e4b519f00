// Package amortization computes level-payment loan schedules and recalculates
// them after ad-hoc extra payments.
package amortization

import (
	"fmt"
	"math"

	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
)

// Policy holds the precision rules every computed field follows.
type Policy struct {
	Places           int32           // Monetary decimal places
	ZeroTolerance    decimal.Decimal // Balances below this are treated as paid off
	DaysPerYear      int             // Period length is round(DaysPerYear / frequency) days
	TermCeilingSlack int             // Extra periods a term-reduction pass may run past the original term
}

// DefaultPolicy returns cents precision, a 1e-6 zero tolerance, a 365-day
// year and a 100-period ceiling slack.
func DefaultPolicy() Policy {
	return Policy{
		Places:           2,
		ZeroTolerance:    decimal.New(1, -6),
		DaysPerYear:      365,
		TermCeilingSlack: 100,
	}
}

// Validate rejects policies the engine cannot work with.
func (p Policy) Validate() error {
	if p.Places < 0 {
		return fmt.Errorf("%w: decimal places must not be negative, got %d", models.ErrInvalidArgument, p.Places)
	}
	if p.ZeroTolerance.IsNegative() {
		return fmt.Errorf("%w: zero tolerance must not be negative, got %s", models.ErrInvalidArgument, p.ZeroTolerance)
	}
	if p.DaysPerYear <= 0 {
		return fmt.Errorf("%w: days per year must be positive, got %d", models.ErrInvalidArgument, p.DaysPerYear)
	}
	if p.TermCeilingSlack < 0 {
		return fmt.Errorf("%w: term ceiling slack must not be negative, got %d", models.ErrInvalidArgument, p.TermCeilingSlack)
	}
	return nil
}

// PeriodDays is the approximate length of one payment period. Halves round
// to even, so a semiannual period is 182 days.
func (p Policy) PeriodDays(f models.Frequency) int {
	return int(math.RoundToEven(float64(p.DaysPerYear) / float64(f)))
}

func (p Policy) round(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Places)
}

// Engine runs the payment solver, the schedule generator and the
// extra-payment recalculator under one Policy. It holds no other state and is
// safe to share.
type Engine struct {
	policy Policy
}

func NewEngine(p Policy) *Engine {
	return &Engine{policy: p}
}

func (e *Engine) Policy() Policy {
	return e.policy
}
