package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgdocs/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the documentation HTTP API server",
		Long: `Run the HTTP API server.

The server exposes documentation lookups and cache management under
/api/v1 and a liveness probe at /healthz. It shuts down gracefully on
SIGINT and SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			svc, closer, err := c.newService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closer()

			srv := server.New(svc, cfg.ListenAddr, c.Logger)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}
