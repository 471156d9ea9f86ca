package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/csg33k/jpk-vat/internal/domain"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Open a submission for a stored declaration",
	Long: `Open a submission for a declaration document. Without --follow the upload
happens on the next poll or in the server's background loop.`,
	Example: `  jpkvat submit --document <id> --follow`,
	RunE:    runSubmit,
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Advance every submission that is due now",
	Long: `Run one pass over due submissions: pending uploads, scheduled retries and
status checks. With --watch the pass repeats until interrupted.`,
	RunE: runPoll,
}

var statusCmd = &cobra.Command{
	Use:   "status [submission-id]",
	Short: "Show one submission or list all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the background submission loop",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return instance.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(submitCmd, pollCmd, statusCmd, serveCmd)

	submitCmd.Flags().String("document", "", "declaration document id")
	submitCmd.Flags().Bool("follow", false, "drive the submission until it settles")
	submitCmd.MarkFlagRequired("document")

	pollCmd.Flags().Bool("watch", false, "keep polling until interrupted")
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireAuthority(); err != nil {
		return err
	}
	documentID, _ := cmd.Flags().GetString("document")
	follow, _ := cmd.Flags().GetBool("follow")

	sub, err := instance.Service.Submit(cmd.Context(), instance.Tenant, documentID)
	if err != nil {
		return err
	}
	if follow {
		sub, err = instance.Service.Follow(cmd.Context(), instance.Tenant, sub.ID)
		if sub == nil {
			return err
		}
		printSubmission(sub)
		return err
	}
	printSubmission(sub)
	return nil
}

func runPoll(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireAuthority(); err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")
	if watch {
		err := instance.Orchestrator.Run(cmd.Context(), instance.Tenant)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	n, err := instance.Service.Poll(cmd.Context(), instance.Tenant)
	fmt.Printf("advanced %d submission(s)\n", n)
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		sub, err := instance.Service.Submission(cmd.Context(), instance.Tenant, args[0])
		if err != nil {
			return err
		}
		printSubmission(sub)
		return nil
	}
	subs, err := instance.Service.Submissions(cmd.Context(), instance.Tenant)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tREFERENCE\tRETRIES\tUPDATED")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Status, s.ReferenceNumber, s.RetryCount, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printSubmission(s *domain.Submission) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "submission\t%s\n", s.ID)
	fmt.Fprintf(tw, "status\t%s\n", s.Status)
	if s.ReferenceNumber != "" {
		fmt.Fprintf(tw, "reference\t%s\n", s.ReferenceNumber)
	}
	fmt.Fprintf(tw, "retries\t%d\n", s.RetryCount)
	if s.NextRetryAt != nil {
		fmt.Fprintf(tw, "next retry\t%s\n", s.NextRetryAt.Format("2006-01-02 15:04:05"))
	}
	if s.LastError != "" {
		fmt.Fprintf(tw, "last error\t%s: %s\n", s.LastErrorKind, s.LastError)
	}
	if s.RejectionCode != "" {
		fmt.Fprintf(tw, "rejected\t%s %s\n", s.RejectionCode, s.RejectionMessage)
	}
	tw.Flush()
}
