// Package export writes amortization schedules as CSV or Parquet and reads
// CSV schedules back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// MoneyPlaces is the number of decimals money columns are written with.
const MoneyPlaces = 2

// Columns is the header row shared by the CSV and Parquet outputs.
var Columns = []string{
	"period",
	"date",
	"opening_balance",
	"interest",
	"scheduled_payment",
	"payment_made",
	"principal_paid",
	"extra_payment",
	"closing_balance",
	"recalculated",
}

// WriteCSV writes the schedule with a header row, one record per period.
func WriteCSV(w io.Writer, schedule models.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range schedule {
		if err := cw.Write(record(row)); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.Period, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func record(row models.ScheduleRow) []string {
	return []string{
		strconv.Itoa(row.Period),
		row.Date.String(),
		money(row.OpeningBalance),
		money(row.Interest),
		money(row.ScheduledPayment),
		money(row.PaymentMade),
		money(row.PrincipalPaid),
		money(row.ExtraPayment),
		money(row.ClosingBalance),
		strconv.FormatBool(row.Recalculated),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ReadCSV parses a schedule written by WriteCSV.
func ReadCSV(r io.Reader) (models.Schedule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", models.ErrInvalidArgument)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, name := range Columns {
		if strings.TrimSpace(header[i]) != name {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", models.ErrInvalidArgument, i+1, header[i], name)
		}
	}

	var schedule models.Schedule
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return schedule, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		schedule = append(schedule, row)
	}
}

func parseRecord(rec []string) (models.ScheduleRow, error) {
	var row models.ScheduleRow
	var err error

	if row.Period, err = strconv.Atoi(rec[0]); err != nil {
		return row, fmt.Errorf("%w: period %q", models.ErrInvalidArgument, rec[0])
	}
	if row.Date, err = models.ParseDate(rec[1]); err != nil {
		return row, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}

	fields := []*decimal.Decimal{
		&row.OpeningBalance,
		&row.Interest,
		&row.ScheduledPayment,
		&row.PaymentMade,
		&row.PrincipalPaid,
		&row.ExtraPayment,
		&row.ClosingBalance,
	}
	for i, dst := range fields {
		v, err := decimal.NewFromString(rec[i+2])
		if err != nil {
			return row, fmt.Errorf("%w: %s %q", models.ErrInvalidArgument, Columns[i+2], rec[i+2])
		}
		*dst = v
	}

	if row.Recalculated, err = strconv.ParseBool(rec[9]); err != nil {
		return row, fmt.Errorf("%w: recalculated %q", models.ErrInvalidArgument, rec[9])
	}
	return row, nil
}

type parquetRow struct {
	Period           int32  `parquet:"name=period, type=INT32"`
	Date             string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	OpeningBalance   string `parquet:"name=opening_balance, type=BYTE_ARRAY, convertedtype=UTF8"`
	Interest         string `parquet:"name=interest, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScheduledPayment string `parquet:"name=scheduled_payment, type=BYTE_ARRAY, convertedtype=UTF8"`
	PaymentMade      string `parquet:"name=payment_made, type=BYTE_ARRAY, convertedtype=UTF8"`
	PrincipalPaid    string `parquet:"name=principal_paid, type=BYTE_ARRAY, convertedtype=UTF8"`
	ExtraPayment     string `parquet:"name=extra_payment, type=BYTE_ARRAY, convertedtype=UTF8"`
	ClosingBalance   string `parquet:"name=closing_balance, type=BYTE_ARRAY, convertedtype=UTF8"`
	Recalculated     bool   `parquet:"name=recalculated, type=BOOLEAN"`
}

// WriteParquet writes the schedule as a single-row-group Parquet file.
// Money columns are fixed-point strings so no precision is lost.
func WriteParquet(w io.Writer, schedule models.Schedule) error {
	fw := writerfile.NewWriterFile(w)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range schedule {
		pr := &parquetRow{
			Period:           int32(row.Period),
			Date:             row.Date.String(),
			OpeningBalance:   money(row.OpeningBalance),
			Interest:         money(row.Interest),
			ScheduledPayment: money(row.ScheduledPayment),
			PaymentMade:      money(row.PaymentMade),
			PrincipalPaid:    money(row.PrincipalPaid),
			ExtraPayment:     money(row.ExtraPayment),
			ClosingBalance:   money(row.ClosingBalance),
			Recalculated:     row.Recalculated,
		}
		if err := pw.Write(pr); err != nil {
			pw.WriteStop()
			return fmt.Errorf("parquet write period %d: %w", row.Period, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet flush: %w", err)
	}
	return nil
}

// WriteFile writes the schedule to path, choosing CSV or Parquet by extension.
func WriteFile(path string, schedule models.Schedule) error {
	var write func(io.Writer, models.Schedule) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = WriteCSV
	case ".parquet":
		write = WriteParquet
	default:
		return fmt.Errorf("%w: unsupported export format %q (use .csv or .parquet)", models.ErrInvalidArgument, filepath.Ext(path))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(file, schedule); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
