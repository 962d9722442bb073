// Package wire assembles the modelgen services from a loaded configuration.
package wire

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	cliadapter "github.com/example/modelgen/internal/adapters/cli"
	"github.com/example/modelgen/internal/adapters/duckdb"
	"github.com/example/modelgen/internal/adapters/filesystem"
	"github.com/example/modelgen/internal/adapters/markdown"
	"github.com/example/modelgen/internal/adapters/mssql"
	"github.com/example/modelgen/internal/adapters/postgres"
	"github.com/example/modelgen/internal/adapters/schemafile"
	"github.com/example/modelgen/internal/adapters/sqlite"
	"github.com/example/modelgen/internal/app"
	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/db"
	"github.com/example/modelgen/internal/ports/secondary"
)

// NewSchemaSource opens the schema source selected by cfg.Kind. Connecting
// is bounded by cfg.Timeout.
func NewSchemaSource(ctx context.Context, cfg config.SourceConfig) (secondary.SchemaSource, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	pool := db.DefaultPoolConfig()

	switch cfg.Kind {
	case config.SourceSQLite:
		src, err := sqlite.Open(ctx, cfg.DSN, pool)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourcePostgres:
		src, err := postgres.Open(ctx, cfg.DSN, cfg.Schema)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceDuckDB:
		src, err := duckdb.Open(ctx, cfg.DSN, cfg.Schema, pool)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceMSSQL:
		src, err := mssql.Open(ctx, cfg.DSN, cfg.Schema, pool)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceSchemaFile:
		src, err := schemafile.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceMarkdown:
		src, err := markdown.NewSchemaSource(cfg.Path)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: unknown source kind %q", config.ErrInvalidConfig, cfg.Kind)
	}
}

// App holds the services of one invocation. Close releases the source.
type App struct {
	Config  *config.Config
	Source  secondary.SchemaSource
	Writer  *filesystem.ModelWriter
	Service *app.GenerateServiceImpl
	Logger  *logrus.Logger
}

// NewApp opens the configured source and builds the generation service on
// top of it.
func NewApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	opts, err := cfg.ModelOptions()
	if err != nil {
		return nil, err
	}

	source, err := NewSchemaSource(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", cfg.Source.Kind, err)
	}
	logger.WithField("source", cfg.Source.Kind).Debug("schema source opened")

	writer := filesystem.NewModelWriter(cfg.Output.Dir)
	service := app.NewGenerateService(source, writer, opts, app.GenerateConfig{
		Exclude:    cfg.Generation.Exclude,
		Workers:    cfg.Generation.Workers,
		SourceName: cfg.Source.Kind,
		Logger:     logger.WithField("source", cfg.Source.Kind),
	})

	return &App{
		Config:  cfg,
		Source:  source,
		Writer:  writer,
		Service: service,
		Logger:  logger,
	}, nil
}

// Close releases the schema source.
func (a *App) Close() error {
	return a.Source.Close()
}

// GenerateAdapter returns a console adapter writing to stdout.
func (a *App) GenerateAdapter(quiet bool) *cliadapter.GenerateAdapter {
	return a.GenerateAdapterWithOutput(os.Stdout, quiet)
}

// GenerateAdapterWithOutput returns a console adapter writing to out.
func (a *App) GenerateAdapterWithOutput(out io.Writer, quiet bool) *cliadapter.GenerateAdapter {
	return cliadapter.NewGenerateAdapter(a.Service, out, quiet)
}
