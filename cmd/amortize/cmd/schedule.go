package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mcclellann/loanschedule/pkg/amortization"
	"github.com/mcclellann/loanschedule/pkg/export"
	"github.com/mcclellann/loanschedule/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type scheduleOptions struct {
	loan     loanFlags
	extras   []string
	strategy string
	out      string
}

func newScheduleCmd(root *rootOptions) *cobra.Command {
	opts := &scheduleOptions{}
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the amortization schedule, optionally with extra payments",
		Long: `Generates the baseline schedule and applies each --extra payment in the
order given. Rows carrying an extra payment and rows rebuilt by a
recalculation are highlighted.`,
		Example: `  amortize schedule -p 100000 -r 12 -n 12 --start 2025-01-15
  amortize schedule -p 100000 -r 12 -n 12 --extra 3:20000 --strategy payment
  amortize schedule -p 100000 -r 12 -n 12 --extra 3:20000:term --extra 6:5000:payment --out plan.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, zl, err := root.setup()
			if err != nil {
				return err
			}
			defer zl.Sync()
			return runSchedule(cmd, opts, engine, zl)
		},
	}
	opts.loan.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.extras, "extra", "x", nil, "Extra payment as period:amount[:strategy], repeatable")
	cmd.Flags().StringVarP(&opts.strategy, "strategy", "s", string(models.StrategyTerm), "Default recalculation strategy: term or payment")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Also write the schedule to a .csv or .parquet file")
	return cmd
}

func runSchedule(cmd *cobra.Command, opts *scheduleOptions, engine *amortization.Engine, zl *zap.Logger) error {
	req, err := opts.loan.request()
	if err != nil {
		return err
	}
	terms, start, err := req.Parse()
	if err != nil {
		return err
	}
	extras, err := parseExtras(opts.extras, opts.strategy)
	if err != nil {
		return err
	}

	quote, err := engine.Quote(terms)
	if err != nil {
		return err
	}
	schedule, err := engine.Generate(amortization.GenerateParams{
		Principal: terms.Principal,
		Rate:      quote.PeriodicRate,
		Payment:   quote.Payment,
		Periods:   terms.Term,
		Frequency: terms.Frequency,
		Start:     start,
	})
	if err != nil {
		return err
	}

	recalc := amortization.Terms{
		Rate:      quote.PeriodicRate,
		Term:      terms.Term,
		Frequency: terms.Frequency,
		Payment:   quote.Payment,
	}
	for _, extra := range extras {
		if schedule, err = engine.ApplyExtraPayment(schedule, extra, recalc); err != nil {
			return fmt.Errorf("extra payment %s at period %d: %w", extra.Amount, extra.Period, err)
		}
		zl.Debug("extra payment applied",
			zap.Int("period", extra.Period),
			zap.Stringer("amount", extra.Amount),
			zap.String("strategy", string(extra.Strategy)),
			zap.Int("periods", len(schedule)),
		)
	}

	places := engine.Policy().Places
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s%%   %s %s\n\n",
		labelStyle.Render("Periodic rate:"), quote.PeriodicRate.Shift(2).StringFixed(4),
		labelStyle.Render("Payment:"), quote.Payment.StringFixed(places))
	fmt.Fprintln(out, renderSchedule(schedule, places))
	fmt.Fprintln(out, renderSummary(schedule.Summarize(), places))

	if opts.out != "" {
		if err := export.WriteFile(opts.out, schedule); err != nil {
			return err
		}
		zl.Info("schedule exported", zap.String("path", opts.out), zap.Int("rows", len(schedule)))
	}
	return nil
}

// parseExtras parses period:amount[:strategy] values. Entries without a
// strategy use fallback.
func parseExtras(values []string, fallback string) ([]amortization.ExtraPayment, error) {
	extras := make([]amortization.ExtraPayment, 0, len(values))
	for _, v := range values {
		parts := strings.Split(v, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("%w: extra payment %q, expected period:amount[:strategy]", models.ErrInvalidArgument, v)
		}
		period, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: extra payment period %q", models.ErrInvalidArgument, parts[0])
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: extra payment amount %q", models.ErrInvalidArgument, parts[1])
		}
		label := fallback
		if len(parts) == 3 {
			label = parts[2]
		}
		strategy, err := models.ParseStrategy(label)
		if err != nil {
			return nil, err
		}
		extras = append(extras, amortization.ExtraPayment{Period: period, Amount: amount, Strategy: strategy})
	}
	return extras, nil
}
