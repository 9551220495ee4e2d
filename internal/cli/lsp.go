package cli

import (
	"github.com/spf13/cobra"

	"github.com/oxhq/rubric/internal/cop"
	"github.com/oxhq/rubric/internal/lsp"
	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/internal/runner"
)

func (a *app) newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Serve diagnostics over the Language Server Protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd, ".")
			if err != nil {
				return failure(err)
			}
			cop.Freeze()
			r, err := runner.FromConfig(cfg, cop.Default, rubyProvider(), nil, runner.WithAutocorrect(false))
			if err != nil {
				return failure(err)
			}
			if err := lsp.New(r, model.ToolVersion).RunStdio(); err != nil {
				return failure(err)
			}
			return nil
		},
	}
}
