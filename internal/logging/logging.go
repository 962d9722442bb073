// Package logging configures the diagnostic logger. Console progress for the
// user goes through the cli reporter, not through here.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/modelgen/internal/ctxutil"
)

// Config selects the level and format of the logger.
type Config struct {
	Level  string
	Format string // text or json
}

// New returns a logrus logger writing to out (stderr when nil).
func New(cfg Config, out io.Writer) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return logger, nil
}

// Discard returns a logger that drops everything. Used by tests and quiet paths.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// FromContext returns an entry carrying the run and table fields found in ctx.
func FromContext(ctx context.Context, logger logrus.FieldLogger) logrus.FieldLogger {
	fields := logrus.Fields{}
	if runID := ctxutil.RunIDFromContext(ctx); runID != "" {
		fields["run_id"] = runID
	}
	if table := ctxutil.TableFromContext(ctx); table != "" {
		fields["table"] = table
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.WithFields(fields)
}
