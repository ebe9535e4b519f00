package store

import (
	"github.com/google/uuid"
	"github.com/mcclellann/loanschedule/pkg/models"
)

// Storage defines the interface for database operations related to loans,
// their schedules and the extra payments applied to them.
type Storage interface {
	CreateLoan(loan *models.Loan, schedule models.Schedule) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	DeleteLoan(id uuid.UUID) error
	GetAllLoans() ([]*models.Loan, error)

	GetSchedule(loanID uuid.UUID) (models.Schedule, error)

	// SavePaymentEvent records the event and replaces the loan's schedule with
	// the recalculated one in a single transaction.
	SavePaymentEvent(event *models.PaymentEvent, schedule models.Schedule) error
	GetPaymentEventsForLoan(loanID uuid.UUID) ([]*models.PaymentEvent, error)

	Close() error
}
