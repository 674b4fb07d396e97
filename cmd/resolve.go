package cmd

import (
	"github.com/naka-gawa/latedays/internal/report"
	"github.com/naka-gawa/latedays/internal/roster"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <designation> <group_name> <roster.csv>",
		Short: "Prints the repository each roster entry resolves to, without calling GitHub",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := roster.ResolveFile(args[0], args[1], args[2])
			if err != nil {
				return fail("roster", err)
			}
			if err := report.WriteRoster(cmd.OutOrStdout(), entries); err != nil {
				return fail("output", err)
			}
			return nil
		},
	}
}
