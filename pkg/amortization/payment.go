package amortization

import (
	"fmt"

	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
)

// ConstantPayment returns the level payment that amortizes principal over n
// periods at the periodic rate, rounded to the policy's monetary places.
func (e *Engine) ConstantPayment(principal, rate decimal.Decimal, n int) (decimal.Decimal, error) {
	if !principal.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: principal must be positive, got %s", models.ErrInvalidArgument, principal)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: periodic rate must not be negative, got %s", models.ErrInvalidArgument, rate)
	}
	if n < 1 {
		return decimal.Zero, fmt.Errorf("%w: number of periods must be positive, got %d", models.ErrInvalidArgument, n)
	}

	periods := decimal.NewFromInt(int64(n))
	if rate.IsZero() {
		return e.policy.round(principal.Div(periods)), nil
	}

	factor := one.Add(rate).Pow(periods)
	payment := principal.Mul(rate).Mul(factor).Div(factor.Sub(one))
	return e.policy.round(payment), nil
}

// LoanTerms are the inputs a borrower agrees to.
type LoanTerms struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal // Decimal factor, 0.10 for 10%
	RateType   models.RateType
	Frequency  models.Frequency
	Term       int
}

// Quote is the periodic rate and constant payment derived from LoanTerms.
type Quote struct {
	PeriodicRate decimal.Decimal `json:"periodic_rate"`
	Payment      decimal.Decimal `json:"payment"`
}

// Quote converts the rate and solves the payment. A failed conversion stops
// before the solver runs.
func (e *Engine) Quote(t LoanTerms) (Quote, error) {
	rate, err := PeriodicRate(t.AnnualRate, t.Frequency, t.RateType)
	if err != nil {
		return Quote{}, err
	}
	payment, err := e.ConstantPayment(t.Principal, rate, t.Term)
	if err != nil {
		return Quote{}, err
	}
	return Quote{PeriodicRate: rate, Payment: payment}, nil
}
