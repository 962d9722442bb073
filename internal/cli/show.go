package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/wire"
)

// ShowCmd returns the show command
func ShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <table>",
		Short: "Print the model generated for one table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, config.Overrides{}, func(ctx context.Context, a *wire.App) error {
				_, err := a.GenerateAdapterWithOutput(cmd.OutOrStdout(), true).Show(ctx, args[0])
				return err
			})
		},
	}
}
