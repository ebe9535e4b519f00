package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newQuoteCmd(root *rootOptions) *cobra.Command {
	var loan loanFlags
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Show the periodic rate and constant payment of a loan",
		Example: `  amortize quote -p 100000 -r 12 -n 12
  amortize quote -p 5000000 -r 18 --rate-type EFFECTIVE -f quarterly -n 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, zl, err := root.setup()
			if err != nil {
				return err
			}
			defer zl.Sync()

			req, err := loan.request()
			if err != nil {
				return err
			}
			terms, _, err := req.Parse()
			if err != nil {
				return err
			}
			quote, err := engine.Quote(terms)
			if err != nil {
				return err
			}
			zl.Debug("quote",
				zap.Stringer("annual_rate", terms.AnnualRate),
				zap.String("rate_type", string(terms.RateType)),
				zap.Stringer("frequency", terms.Frequency),
			)

			places := engine.Policy().Places
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s%%\n", labelStyle.Render("Periodic rate:"), quote.PeriodicRate.Shift(2).StringFixed(4))
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Payment:      "), quote.Payment.StringFixed(places))
			fmt.Fprintf(out, "%s %d x %s\n", labelStyle.Render("Periods:      "), terms.Term, terms.Frequency)
			return nil
		},
	}
	loan.register(cmd)
	return cmd
}
