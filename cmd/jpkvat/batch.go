package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/csg33k/jpk-vat/internal/batch"
	"github.com/csg33k/jpk-vat/internal/domain"
	"github.com/csg33k/jpk-vat/internal/logger"
	"github.com/csg33k/jpk-vat/internal/service"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Settle and declare every client for a month",
	Long: `Settle and declare the given month for every registered client. Quarterly
filers are processed only in the last month of their quarter. One client's
failure does not stop the others unless --stop-on-error is set.`,
	Example: `  jpkvat batch --month 2024-03
  jpkvat batch --month 2024-06 --workers 10 --submit`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("month", "", "calendar month to process (YYYY-MM)")
	batchCmd.Flags().Int("workers", 0, "concurrent clients (defaults to BATCH_WORKERS)")
	batchCmd.Flags().Bool("stop-on-error", false, "skip remaining clients after the first failure")
	batchCmd.Flags().Bool("submit", false, "open a submission for every new declaration")
	batchCmd.MarkFlagRequired("month")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	rawMonth, _ := f.GetString("month")
	workers, _ := f.GetInt("workers")
	stopOnError, _ := f.GetBool("stop-on-error")
	submit, _ := f.GetBool("submit")

	month, err := domain.ParsePeriod(rawMonth)
	if err != nil {
		return err
	}
	if month.IsQuarterly() {
		return domain.NewValidation("month", "expected a calendar month, got %s", month)
	}
	if submit {
		if err := cfg.RequireAuthority(); err != nil {
			return err
		}
	}
	if workers <= 0 {
		workers = cfg.BatchWorkers
	}

	clients, err := instance.Service.Clients(cmd.Context(), instance.Tenant)
	if err != nil {
		return err
	}

	job := func(ctx context.Context, c domain.ClientProfile) error {
		period, ok := batch.PeriodFor(c, month)
		if !ok {
			return nil
		}
		st, err := instance.Service.Settle(ctx, instance.Tenant, c.ID, period)
		if err != nil {
			return err
		}
		doc, err := instance.Service.Declare(ctx, instance.Tenant, st.ID, service.DeclareOptions{})
		if err != nil {
			return err
		}
		if submit {
			_, err = instance.Service.Submit(ctx, instance.Tenant, doc.ID)
		}
		return err
	}

	sum := batch.Run(cmd.Context(), clients, job, batch.Options{
		Workers:          workers,
		StopOnFirstError: stopOnError,
	}, logger.WithComponent("batch"))

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLIENT\tNIP\tOUTCOME\tTIME\tERROR")
	for _, r := range sum.Results {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ClientID, r.NIP, r.Outcome, r.Duration.Round(1e6), msg)
	}
	tw.Flush()
	fmt.Printf("\n%d ok, %d failed, %d skipped in %s\n", sum.OK, sum.Failed, sum.Skipped, sum.Duration.Round(1e6))
	return sum.Err()
}
