// Package cmd implements the amortize command line: quotes and printable
// amortization schedules with extra payments.
package cmd

import (
	"fmt"
	"os"

	"github.com/mcclellann/loanschedule/pkg/amortization"
	"github.com/mcclellann/loanschedule/pkg/config"
	"github.com/mcclellann/loanschedule/pkg/ledger"
	"github.com/mcclellann/loanschedule/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

// NewRootCmd builds the amortize command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "amortize",
		Short: "Level-payment loan schedules",
		Long: `amortize converts annual rates, solves the constant payment of a loan
and prints its amortization schedule.

Extra payments can be applied to any period, either keeping the payment
and finishing sooner (term) or keeping the term and paying less (payment).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "TOML config file (default: $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newQuoteCmd(opts))
	rootCmd.AddCommand(newScheduleCmd(opts))
	return rootCmd
}

func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		printError("amortize", err)
	}
	return err
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}

// setup loads the config and builds the logger and calculation engine.
func (o *rootOptions) setup() (*amortization.Engine, *zap.Logger, error) {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	return amortization.NewEngine(policy), zl.Named("amortize"), nil
}

// loanFlags are the loan terms shared by quote and schedule.
type loanFlags struct {
	principal string
	rate      string
	rateType  string
	frequency string
	term      int
	start     string
}

func (f *loanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.principal, "principal", "p", "", "Loan amount (required)")
	cmd.Flags().StringVarP(&f.rate, "rate", "r", "", "Annual rate in percent, 12 for 12% (required)")
	cmd.Flags().StringVar(&f.rateType, "rate-type", "NOMINAL", "Rate convention: EFFECTIVE, NOMINAL or ANTICIPATED")
	cmd.Flags().StringVarP(&f.frequency, "frequency", "f", "monthly", "Payments per year, by name or number")
	cmd.Flags().IntVarP(&f.term, "term", "n", 0, "Number of payment periods (required)")
	cmd.Flags().StringVar(&f.start, "start", "", "Date of the first period, YYYY-MM-DD (default: today)")
	cmd.MarkFlagRequired("principal")
	cmd.MarkFlagRequired("rate")
	cmd.MarkFlagRequired("term")
}

func (f *loanFlags) request() (ledger.LoanRequest, error) {
	principal, err := decimal.NewFromString(f.principal)
	if err != nil {
		return ledger.LoanRequest{}, fmt.Errorf("invalid principal %q", f.principal)
	}
	rate, err := decimal.NewFromString(f.rate)
	if err != nil {
		return ledger.LoanRequest{}, fmt.Errorf("invalid rate %q", f.rate)
	}
	return ledger.LoanRequest{
		Principal:   principal,
		RatePercent: rate,
		RateType:    f.rateType,
		Frequency:   f.frequency,
		Term:        f.term,
		StartDate:   f.start,
	}, nil
}
