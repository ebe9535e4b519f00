package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the calculation core, the ledger and its callers.
// Use with errors.Is; concrete errors wrap one of these.
var (
	// ErrInvalidArgument covers unknown rate types, unknown strategies,
	// unknown frequencies and rates or amounts that cannot be applied.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange is returned when a payment event refers to a period the
	// schedule does not have.
	ErrOutOfRange = errors.New("period out of range")

	// ErrNonConvergence is returned when a term-reduction recalculation hits
	// its iteration ceiling with balance still outstanding.
	ErrNonConvergence = errors.New("schedule did not converge")

	// ErrLoanNotFound is returned by storage and the ledger for unknown loan IDs.
	ErrLoanNotFound = errors.New("loan not found")
)

// PeriodOutOfRangeError carries the offending period and the schedule length.
type PeriodOutOfRangeError struct {
	Period int
	Rows   int
}

func (e *PeriodOutOfRangeError) Error() string {
	return fmt.Sprintf("period %d out of range: schedule has %d periods", e.Period, e.Rows)
}

func (e *PeriodOutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// IsClientError reports whether err was caused by caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrOutOfRange)
}
