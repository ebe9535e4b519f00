package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/loanschedule/pkg/models"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN keeps the database in process memory. Loans are gone when the
// process exits.
const MemoryDSN = ":memory:"

// SQLiteStore manages the database connection and operations for SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	// Every connection to :memory: is its own database, so keep exactly one.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	logger.Info("database ready", zap.String("dsn", dataSourceName))
	return s, nil
}

// initSchema creates the tables. Decimal fields are TEXT so no precision is lost.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		principal TEXT NOT NULL,
		annual_rate TEXT NOT NULL,
		rate_type TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		term INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		periodic_rate TEXT NOT NULL,
		payment TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS schedule_rows (
		loan_id TEXT NOT NULL,
		period INTEGER NOT NULL,
		date TEXT NOT NULL,
		opening_balance TEXT NOT NULL,
		interest TEXT NOT NULL,
		scheduled_payment TEXT NOT NULL,
		payment_made TEXT NOT NULL,
		principal_paid TEXT NOT NULL,
		extra_payment TEXT NOT NULL,
		closing_balance TEXT NOT NULL,
		recalculated INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (loan_id, period),
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	CREATE TABLE IF NOT EXISTS payment_events (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		period INTEGER NOT NULL,
		amount TEXT NOT NULL,
		strategy TEXT NOT NULL,
		new_payment TEXT NOT NULL,
		periods INTEGER NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const loanColumns = `id, principal, annual_rate, rate_type, frequency, term, start_date, periodic_rate, payment, created_at, updated_at`

// CreateLoan inserts a loan and its baseline schedule within a transaction.
func (s *SQLiteStore) CreateLoan(loan *models.Loan, schedule models.Schedule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		loan.ID.String(), loan.Principal, loan.AnnualRate, loan.RateType, loan.Frequency, loan.Term,
		loan.StartDate.String(), loan.PeriodicRate, loan.Payment, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	if err := insertRows(tx, loan.ID, schedule); err != nil {
		return err
	}
	return tx.Commit()
}

// GetLoan retrieves a loan by its ID.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// DeleteLoan removes a loan with its schedule and payment events within a transaction.
func (s *SQLiteStore) DeleteLoan(id uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM payment_events WHERE loan_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete payment events: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM schedule_rows WHERE loan_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrLoanNotFound
	}

	return tx.Commit()
}

// GetAllLoans retrieves all loans, oldest first.
func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	rows, err := s.db.Query(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

// GetSchedule retrieves the current schedule of a loan in period order.
func (s *SQLiteStore) GetSchedule(loanID uuid.UUID) (models.Schedule, error) {
	rows, err := s.db.Query(`SELECT period, date, opening_balance, interest, scheduled_payment, payment_made, principal_paid, extra_payment, closing_balance, recalculated
		FROM schedule_rows WHERE loan_id = ? ORDER BY period ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var schedule models.Schedule
	for rows.Next() {
		var r models.ScheduleRow
		var date string
		if err := rows.Scan(&r.Period, &date, &r.OpeningBalance, &r.Interest, &r.ScheduledPayment, &r.PaymentMade,
			&r.PrincipalPaid, &r.ExtraPayment, &r.ClosingBalance, &r.Recalculated); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		if r.Date, err = models.ParseDate(date); err != nil {
			return nil, fmt.Errorf("schedule row %d: %w", r.Period, err)
		}
		schedule = append(schedule, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for loan schedule: %w", err)
	}
	if len(schedule) == 0 {
		if _, err := s.GetLoan(loanID); err != nil {
			return nil, err
		}
	}
	return schedule, nil
}

// SavePaymentEvent stores the event and swaps in the recalculated schedule.
func (s *SQLiteStore) SavePaymentEvent(event *models.PaymentEvent, schedule models.Schedule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE loans SET updated_at = ? WHERE id = ?`, event.Timestamp, event.LoanID.String())
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrLoanNotFound
	}

	_, err = tx.Exec(
		`INSERT INTO payment_events (id, loan_id, period, amount, strategy, new_payment, periods, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID.String(), event.LoanID.String(), event.Period, event.Amount, event.Strategy, event.NewPayment, event.Periods, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment event: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM schedule_rows WHERE loan_id = ?`, event.LoanID.String()); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}
	if err := insertRows(tx, event.LoanID, schedule); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPaymentEventsForLoan retrieves the payment events of a loan in the order they were applied.
func (s *SQLiteStore) GetPaymentEventsForLoan(loanID uuid.UUID) ([]*models.PaymentEvent, error) {
	rows, err := s.db.Query(`SELECT id, loan_id, period, amount, strategy, new_payment, periods, timestamp
		FROM payment_events WHERE loan_id = ? ORDER BY timestamp ASC, rowid ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get payment events for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var events []*models.PaymentEvent
	for rows.Next() {
		var event models.PaymentEvent
		var eventIDStr, loanIDStr string
		var timestamp time.Time
		if err := rows.Scan(&eventIDStr, &loanIDStr, &event.Period, &event.Amount, &event.Strategy, &event.NewPayment, &event.Periods, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan payment event row: %w", err)
		}
		event.ID = uuid.MustParse(eventIDStr)
		event.LoanID = uuid.MustParse(loanIDStr)
		event.Timestamp = timestamp
		events = append(events, &event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for payment events: %w", err)
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func insertRows(tx *sql.Tx, loanID uuid.UUID, schedule models.Schedule) error {
	stmt, err := tx.Prepare(`INSERT INTO schedule_rows (loan_id, period, date, opening_balance, interest, scheduled_payment, payment_made, principal_paid, extra_payment, closing_balance, recalculated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare schedule insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range schedule {
		if _, err := stmt.Exec(loanID.String(), r.Period, r.Date.String(), r.OpeningBalance, r.Interest, r.ScheduledPayment,
			r.PaymentMade, r.PrincipalPaid, r.ExtraPayment, r.ClosingBalance, r.Recalculated); err != nil {
			return fmt.Errorf("failed to insert schedule row %d: %w", r.Period, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	var loanIDStr, startDate string
	if err := row.Scan(&loanIDStr, &loan.Principal, &loan.AnnualRate, &loan.RateType, &loan.Frequency, &loan.Term,
		&startDate, &loan.PeriodicRate, &loan.Payment, &loan.CreatedAt, &loan.UpdatedAt); err != nil {
		return nil, err
	}
	loan.ID = uuid.MustParse(loanIDStr)
	start, err := models.ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	loan.StartDate = start
	return &loan, nil
}
