package cli

import (
	"github.com/spf13/cobra"

	"github.com/stagehand-dev/stagehand/internal/server"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		catalogPath string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution HTTP API",
		Long: `Run the resolution HTTP API.

Endpoints:
  POST /v1/resolve   Resolve a layout into a scene
  GET  /healthz      Liveness check

The server uses the configured cache and catalog backends, so replicas
sharing a Redis cache and a MongoDB catalog return identical scenes for
identical requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, closeCatalog, err := c.newCatalog(ctx, catalogPath)
			if err != nil {
				return err
			}
			defer closeCatalog()

			runner := c.newRunner(ctx, noCache)
			defer runner.Close()

			opts := c.resolveOptions()
			opts.Catalog = cat

			listenAddr := addr
			if listenAddr == "" {
				listenAddr = c.Config.Server.Addr
			}

			srv := server.New(runner, opts, c.Logger)
			return srv.ListenAndServe(ctx, listenAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr or :8080)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "model catalog file (TOML)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
