package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RateType is the convention an annual rate is quoted under.
type RateType string

const (
	RateTypeEffective   RateType = "EFFECTIVE"   // Effective annual, already compounded
	RateTypeNominal     RateType = "NOMINAL"     // Nominal annual, split evenly across periods
	RateTypeAnticipated RateType = "ANTICIPATED" // Nominal annual charged at period start
)

// ParseRateType accepts the three conventions case-insensitively, plus the
// EFECTIVA/ANTICIPADA labels used on existing loan paperwork.
func ParseRateType(s string) (RateType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EFFECTIVE", "EFECTIVA":
		return RateTypeEffective, nil
	case "NOMINAL":
		return RateTypeNominal, nil
	case "ANTICIPATED", "ANTICIPADA":
		return RateTypeAnticipated, nil
	}
	return "", fmt.Errorf("%w: unknown rate type %q, use EFFECTIVE, NOMINAL or ANTICIPATED", ErrInvalidArgument, s)
}

// Strategy selects how a schedule absorbs an extra payment.
type Strategy string

const (
	StrategyTerm    Strategy = "term"    // Keep the payment, finish sooner
	StrategyPayment Strategy = "payment" // Keep the term, pay less each period
)

// ParseStrategy accepts term/payment case-insensitively, plus the plazo/cuota labels.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "term", "plazo":
		return StrategyTerm, nil
	case "payment", "cuota":
		return StrategyPayment, nil
	}
	return "", fmt.Errorf("%w: unknown recalculation strategy %q, use term or payment", ErrInvalidArgument, s)
}

// Frequency is the number of payments per year.
type Frequency int

var namedFrequencies = map[string]Frequency{
	"annual":     1,
	"semiannual": 2,
	"quarterly":  4,
	"bimonthly":  6,
	"monthly":    12,
	"biweekly":   24,
	"weekly":     52,
}

// ParseFrequency accepts a frequency name (monthly, quarterly, ...) or a
// positive number of payments per year.
func ParseFrequency(s string) (Frequency, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if f, ok := namedFrequencies[key]; ok {
		return f, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n > 0 {
		return Frequency(n), nil
	}
	return 0, fmt.Errorf("%w: unknown payment frequency %q (valid: %s)", ErrInvalidArgument, s, strings.Join(FrequencyNames(), ", "))
}

// FrequencyNames lists the named frequencies, most frequent first.
func FrequencyNames() []string {
	names := make([]string, 0, len(namedFrequencies))
	for name := range namedFrequencies {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return namedFrequencies[names[i]] > namedFrequencies[names[j]]
	})
	return names
}

func (f Frequency) String() string {
	for name, v := range namedFrequencies {
		if v == f {
			return name
		}
	}
	return strconv.Itoa(int(f))
}
