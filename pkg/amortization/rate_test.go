package amortization_test

import (
	"testing"

	"github.com/mcclellann/loanschedule/pkg/amortization"
	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodicRate(t *testing.T) {
	tests := []struct {
		name      string
		annual    string
		frequency models.Frequency
		rateType  models.RateType
		want      float64
	}{
		{"nominal monthly", "0.12", 12, models.RateTypeNominal, 0.01},
		{"effective monthly", "0.12", 12, models.RateTypeEffective, 0.0094888},
		{"effective annual is unchanged", "0.12", 1, models.RateTypeEffective, 0.12},
		{"anticipated monthly", "0.96", 12, models.RateTypeAnticipated, 0.0869565},
		{"nominal quarterly", "0.08", 4, models.RateTypeNominal, 0.02},
		{"zero nominal", "0", 12, models.RateTypeNominal, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := amortization.PeriodicRate(decimal.RequireFromString(tt.annual), tt.frequency, tt.rateType)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got.InexactFloat64(), 1e-7)
		})
	}
}

func TestPeriodicRate_NominalIsExact(t *testing.T) {
	got, err := amortization.PeriodicRate(decimal.RequireFromString("0.12"), 12, models.RateTypeNominal)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.01")), "got %s", got)
}

func TestPeriodicRate_EffectiveRoundTrips(t *testing.T) {
	unit := decimal.NewFromInt(1)
	for _, f := range []models.Frequency{2, 4, 12, 24, 52} {
		got, err := amortization.PeriodicRate(decimal.RequireFromString("0.12"), f, models.RateTypeEffective)
		require.NoError(t, err)

		// Compounding the periodic rate over a year gives back the annual rate.
		annual := unit.Add(got).Pow(decimal.NewFromInt(int64(f))).Sub(unit)
		assert.True(t, annual.Sub(decimal.RequireFromString("0.12")).Abs().LessThan(decimal.New(1, -12)),
			"frequency %d: %s compounds to %s", f, got, annual)
	}

	got, err := amortization.PeriodicRate(decimal.RequireFromString("0.12"), 12, models.RateTypeEffective)
	require.NoError(t, err)
	assert.Equal(t, "0.00948879293458", got.StringFixed(14))
}

func TestPeriodicRate_AnticipatedTooHigh(t *testing.T) {
	// 12.00 / 12 = 1.0, an anticipated rate of 100% per period.
	_, err := amortization.PeriodicRate(decimal.NewFromInt(12), 12, models.RateTypeAnticipated)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = amortization.PeriodicRate(decimal.NewFromInt(30), 12, models.RateTypeAnticipated)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestPeriodicRate_InvalidInput(t *testing.T) {
	_, err := amortization.PeriodicRate(decimal.RequireFromString("0.1"), 12, models.RateType("SIMPLE"))
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = amortization.PeriodicRate(decimal.RequireFromString("0.1"), 0, models.RateTypeNominal)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = amortization.PeriodicRate(decimal.RequireFromString("-0.1"), 12, models.RateTypeNominal)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestConstantPayment(t *testing.T) {
	engine := amortization.NewEngine(amortization.DefaultPolicy())

	payment, err := engine.ConstantPayment(decimal.NewFromInt(100000), decimal.RequireFromString("0.01"), 12)
	require.NoError(t, err)
	assert.True(t, payment.Equal(decimal.RequireFromString("8884.88")), "got %s", payment)

	// No interest: straight-line.
	payment, err = engine.ConstantPayment(decimal.NewFromInt(1200), decimal.Zero, 12)
	require.NoError(t, err)
	assert.True(t, payment.Equal(decimal.NewFromInt(100)), "got %s", payment)

	// A single period repays principal plus one period of interest.
	payment, err = engine.ConstantPayment(decimal.NewFromInt(1000), decimal.RequireFromString("0.05"), 1)
	require.NoError(t, err)
	assert.True(t, payment.Equal(decimal.NewFromInt(1050)), "got %s", payment)
}

func TestConstantPayment_InvalidInput(t *testing.T) {
	engine := amortization.NewEngine(amortization.DefaultPolicy())

	_, err := engine.ConstantPayment(decimal.Zero, decimal.RequireFromString("0.01"), 12)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = engine.ConstantPayment(decimal.NewFromInt(1000), decimal.RequireFromString("-0.01"), 12)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = engine.ConstantPayment(decimal.NewFromInt(1000), decimal.RequireFromString("0.01"), 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestQuote(t *testing.T) {
	engine := amortization.NewEngine(amortization.DefaultPolicy())

	q, err := engine.Quote(amortization.LoanTerms{
		Principal:  decimal.NewFromInt(100000),
		AnnualRate: decimal.RequireFromString("0.12"),
		RateType:   models.RateTypeNominal,
		Frequency:  12,
		Term:       12,
	})
	require.NoError(t, err)
	assert.True(t, q.PeriodicRate.Equal(decimal.RequireFromString("0.01")))
	assert.True(t, q.Payment.Equal(decimal.RequireFromString("8884.88")))

	_, err = engine.Quote(amortization.LoanTerms{
		Principal:  decimal.NewFromInt(100000),
		AnnualRate: decimal.RequireFromString("0.12"),
		RateType:   models.RateType("DAILY"),
		Frequency:  12,
		Term:       12,
	})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
