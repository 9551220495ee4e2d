package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/model"
)

func (a *app) newCopsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cops",
		Short: "List the registered cops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, ".")
			if err != nil {
				return failure(err)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, name := range cop.Names() {
				entry, _ := cop.Lookup(name)
				cc := cfg.Cop(name)
				state := "disabled"
				if cc.Enabled {
					state = "enabled"
				}
				sev := cc.Severity
				if sev == model.SeverityUnset {
					sev = entry.DefaultSeverity
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, state, sev, entry.Description)
			}
			if err := tw.Flush(); err != nil {
				return failure(err)
			}
			return nil
		},
	}
}
