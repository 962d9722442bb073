package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/modelgen/internal/config"
	"github.com/example/modelgen/internal/server"
	"github.com/example/modelgen/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve model previews over HTTP",
		Long: `Serve rendered models over HTTP until interrupted.

Routes:
  GET /healthz
  GET /api/v1/tables
  GET /api/v1/models/:table          (add ?format=json for the JSON envelope)`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default 127.0.0.1:8080)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	return withApp(cmd, config.Overrides{Addr: addr}, func(ctx context.Context, a *wire.App) error {
		srv, err := server.New(a.Service, a.Config.Server, a.Logger)
		if err != nil {
			return err
		}
		defer srv.Close()

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	})
}
