package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mcclellann/loanschedule/pkg/models"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorMuted     = lipgloss.Color("#6B7280")
)

// Styles
var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	// Row carrying an extra payment
	extraRowStyle = cellStyle.
			Foreground(colorAccent).
			Bold(true)

	// Row rebuilt by a recalculation
	recalculatedRowStyle = cellStyle.
				Foreground(colorSecondary)

	borderStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

var scheduleHeaders = []string{
	"#", "Date", "Opening", "Interest", "Payment", "Paid", "Principal", "Extra", "Closing", "",
}

// renderSchedule draws the schedule as a table. Money is right-aligned.
func renderSchedule(s models.Schedule, places int32) string {
	rows := make([][]string, len(s))
	for i, r := range s {
		mark := ""
		if r.Recalculated {
			mark = "*"
		}
		rows[i] = []string{
			strconv.Itoa(r.Period),
			r.Date.String(),
			r.OpeningBalance.StringFixed(places),
			r.Interest.StringFixed(places),
			r.ScheduledPayment.StringFixed(places),
			r.PaymentMade.StringFixed(places),
			r.PrincipalPaid.StringFixed(places),
			r.ExtraPayment.StringFixed(places),
			r.ClosingBalance.StringFixed(places),
			mark,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(scheduleHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			style := cellStyle
			if row >= 0 && row < len(s) {
				switch {
				case s[row].ExtraPayment.IsPositive():
					style = extraRowStyle
				case s[row].Recalculated:
					style = recalculatedRowStyle
				}
			}
			if col >= 2 && col <= 8 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})
	return t.String()
}

// renderSummary formats the schedule totals, one per line.
func renderSummary(sum models.Summary, places int32) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-15s", label)), value)
	}
	line("Periods:", strconv.Itoa(sum.Periods))
	line("Total paid:", sum.TotalPaid.StringFixed(places))
	line("Total interest:", sum.TotalInterest.StringFixed(places))
	line("Total principal:", sum.TotalPrincipal.StringFixed(places))
	if sum.TotalExtra.IsPositive() {
		line("Extra payments:", sum.TotalExtra.StringFixed(places))
	}
	if sum.RecalculatedPeriods > 0 {
		line("Recalculated:", fmt.Sprintf("%d periods (*)", sum.RecalculatedPeriods))
	}
	if !sum.PayoffDate.IsZero() {
		line("Paid off:", sum.PayoffDate.String())
	}
	return strings.TrimRight(b.String(), "\n")
}
