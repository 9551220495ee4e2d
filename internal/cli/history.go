package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/rubric/db"
	"github.com/oxhq/rubric/internal/ledger"
)

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs, or the files of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, ".")
			if err != nil {
				return failure(err)
			}
			if cfg.LedgerDSN == "" {
				return usageError("no ledger configured: pass --ledger or set RUBRIC_LEDGER_DSN")
			}
			if limit < 1 {
				return usageError("-n must be at least 1, got %d", limit)
			}

			l, err := ledger.Open(cfg.LedgerDSN, db.Options{AuthToken: cfg.LibSQLAuthToken})
			if err != nil {
				return failure(err)
			}
			defer l.Close()

			if len(args) == 1 {
				return a.showRun(cmd, l, args[0])
			}
			return a.listRuns(cmd, l, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().StringVar(&a.opts.ledgerDSN, "ledger", "", "Ledger to read (default: RUBRIC_LEDGER_DSN)")
	return cmd
}

func (a *app) listRuns(cmd *cobra.Command, l *ledger.Ledger, limit int) error {
	runs, err := l.Recent(cmd.Context(), limit)
	if err != nil {
		return failure(err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tFILES\tOFFENSES\tCORRECTED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Files, r.Offenses, r.Corrected, r.Failed)
	}
	if err := tw.Flush(); err != nil {
		return failure(err)
	}
	return nil
}

func (a *app) showRun(cmd *cobra.Command, l *ledger.Ledger, id string) error {
	run, err := l.Get(cmd.Context(), id)
	if err != nil {
		return failure(err)
	}

	fmt.Fprintf(a.stdout, "Run %s (%s, %s)\n", run.ID, run.Status, run.StartedAt.Local().Format(time.DateTime))
	for _, o := range run.Outcomes {
		fmt.Fprintf(a.stdout, "%s: %s", o.Path, o.Status)
		if o.ErrorCode != "" {
			fmt.Fprintf(a.stdout, " [%s]", o.ErrorCode)
		}
		fmt.Fprintln(a.stdout)
		for _, off := range o.Offenses {
			mark := " "
			if off.Corrected {
				mark = "*"
			}
			fmt.Fprintf(a.stdout, "  %s %d:%d %s: %s\n", mark, off.StartLine, off.StartColumn, off.Cop, off.Message)
		}
	}
	return nil
}
