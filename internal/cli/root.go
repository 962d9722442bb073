package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/logging"
	"github.com/example/modelgen/internal/wire"
)

// RegisterGlobalFlags adds the flags shared by every command.
func RegisterGlobalFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file (default $MODELGEN_CONFIG)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("source", "", "Schema source: sqlite, postgres, duckdb, mssql, schemafile, markdown")
	flags.String("dsn", "", "Connection string for database sources")
	flags.String("path", "", "Schema file or directory for schemafile and markdown sources")
	flags.String("schema", "", "Database schema name (postgres, duckdb, mssql)")
}

// loadConfig loads the configuration with the global flags and any
// command-specific overrides applied.
func loadConfig(cmd *cobra.Command, extra config.Overrides) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	source, _ := cmd.Flags().GetString("source")
	dsn, _ := cmd.Flags().GetString("dsn")
	path, _ := cmd.Flags().GetString("path")
	schema, _ := cmd.Flags().GetString("schema")

	extra.SourceKind = source
	extra.DSN = dsn
	extra.Path = path
	extra.Schema = schema
	extra.LogLevel = logLevel

	return config.Load(configPath, extra)
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, os.Stderr)
}

// withApp loads the configuration, opens the schema source and runs fn.
func withApp(cmd *cobra.Command, extra config.Overrides, fn func(ctx context.Context, a *wire.App) error) error {
	cfg, err := loadConfig(cmd, extra)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := wire.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.WithError(cerr).Warn("failed to close schema source")
		}
	}()

	if err := fn(ctx, a); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return nil
}
