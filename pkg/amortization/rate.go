package amortization

import (
	"fmt"

	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// ratePrecision is the number of decimal places kept for a root-derived rate.
const ratePrecision = 16

// PeriodicRate converts an annual rate, given as a decimal factor, into the
// ordinary (end-of-period) rate applied each payment period.
func PeriodicRate(annual decimal.Decimal, frequency models.Frequency, rateType models.RateType) (decimal.Decimal, error) {
	if frequency <= 0 {
		return decimal.Zero, fmt.Errorf("%w: payment frequency must be positive, got %d", models.ErrInvalidArgument, frequency)
	}
	if annual.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: annual rate must not be negative, got %s", models.ErrInvalidArgument, annual)
	}
	perYear := decimal.NewFromInt(int64(frequency))

	switch rateType {
	case models.RateTypeEffective:
		if frequency == 1 {
			return annual, nil
		}
		root, err := one.Add(annual).PowWithPrecision(one.Div(perYear), ratePrecision)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: effective rate %s: %v", models.ErrInvalidArgument, annual, err)
		}
		return root.Sub(one).Round(ratePrecision), nil

	case models.RateTypeNominal:
		return annual.Div(perYear), nil

	case models.RateTypeAnticipated:
		anticipated := annual.Div(perYear)
		if anticipated.GreaterThanOrEqual(one) {
			return decimal.Zero, fmt.Errorf("%w: anticipated periodic rate %s is 100%% or more", models.ErrInvalidArgument, anticipated)
		}
		return anticipated.Div(one.Sub(anticipated)), nil
	}

	return decimal.Zero, fmt.Errorf("%w: unknown rate type %q", models.ErrInvalidArgument, rateType)
}
