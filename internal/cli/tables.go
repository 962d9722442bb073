package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/wire"
)

// TablesCmd returns the tables command
func TablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables the source reports",
		Long:  "List the tables that generate would process, after exclusions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			return withApp(cmd, config.Overrides{}, func(ctx context.Context, a *wire.App) error {
				_, err := a.GenerateAdapterWithOutput(cmd.OutOrStdout(), quiet).ListTables(ctx)
				return err
			})
		},
	}

	cmd.Flags().BoolP("quiet", "q", false, "Only print table names")

	return cmd
}
