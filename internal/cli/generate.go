package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/ports/primary"
	"github.com/example/modelgen/internal/wire"
)

// GenerateCmd returns the generate command
func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate CFWheels models from the schema",
		Long: `Generate one CFWheels model component per table.

Each table becomes <Model>.cfc in the output directory, with belongsTo and
hasMany relationships from the foreign keys, validations from the column
types and a property docblock.

Examples:
  modelgen generate --source sqlite --dsn app.db
  modelgen generate -t Regions,Clusters --dry-run
  modelgen generate --source markdown --path ./responses -o ./app/models
  modelgen generate --dump-schema`,
		RunE: runGenerate,
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (default ./models)")
	cmd.Flags().StringSliceP("tables", "t", nil, "Only generate these tables")
	cmd.Flags().StringSlice("exclude", nil, "Skip these tables in addition to the configured exclusions")
	cmd.Flags().Bool("dry-run", false, "Print models instead of writing them")
	cmd.Flags().Bool("manifest", false, "Write manifest.json next to the models")
	cmd.Flags().Int("workers", 0, "Tables described concurrently")
	cmd.Flags().Bool("dump-schema", false, "Print the described schema and exit")
	cmd.Flags().BoolP("quiet", "q", false, "Only print failures and the summary")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	tables, _ := cmd.Flags().GetStringSlice("tables")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	manifest, _ := cmd.Flags().GetBool("manifest")
	workers, _ := cmd.Flags().GetInt("workers")
	dumpSchema, _ := cmd.Flags().GetBool("dump-schema")
	quiet, _ := cmd.Flags().GetBool("quiet")

	overrides := config.Overrides{OutputDir: output, Workers: workers}

	return withApp(cmd, overrides, func(ctx context.Context, a *wire.App) error {
		adapter := a.GenerateAdapterWithOutput(cmd.OutOrStdout(), quiet)

		if dumpSchema {
			_, err := adapter.DumpSchema(ctx, tables)
			return err
		}

		req := primary.GenerateRequest{
			Tables:   tables,
			Exclude:  exclude,
			DryRun:   dryRun,
			Manifest: manifest || a.Config.Output.Manifest,
			Workers:  a.Config.Generation.Workers,
		}
		resp, err := adapter.Generate(ctx, req, a.Writer.Dir())
		if err != nil {
			return err
		}
		if failed := len(resp.Failed()); failed > 0 {
			return fmt.Errorf("%d of %d tables failed", failed, len(resp.Results))
		}
		return nil
	})
}
