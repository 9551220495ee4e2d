package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oxhq/rubric/internal/model"
	"github.com/oxhq/rubric/providers/catalog"
)

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			builtinProviders()
			fmt.Fprintf(a.stdout, "rubric %s (report schema %d)\n", model.ToolVersion, model.CurrentSchemaVersion)
			for _, li := range catalog.Languages() {
				fmt.Fprintf(a.stdout, "  %s: %s\n", li.ID, strings.Join(slices.Concat(li.Extensions, li.Filenames), " "))
			}
		},
	}
}
