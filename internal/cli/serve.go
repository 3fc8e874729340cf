package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/topostack/internal/server"
	"github.com/matzehuels/topostack/pkg/cache"
)

// apiKeyPrefix keeps API cache entries apart from CLI entries sharing a
// Redis instance.
const apiKeyPrefix = "api:"

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		flags   cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Endpoints:
  GET  /health            liveness
  GET  /version           build information
  GET  /metrics           Prometheus metrics
  POST /api/v1/classify   classify hostnames
  POST /api/v1/layout     lay out posted datasets
  GET  /api/v1/registry   active registry

Each layout request is one pipeline run. Results are cached by dataset
hash, locally or in Redis with --redis-url.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, err := c.registry()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, flags, cache.NewScopedKeyer(nil, apiKeyPrefix))
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			metrics := server.NewMetrics(nil)
			metrics.Install()

			srv := server.New(server.Config{
				Registry: reg,
				Runner:   runner,
				Logger:   c.Logger,
				Metrics:  metrics,
				Timeout:  timeout,
			})
			printInfo(cmd.OutOrStdout(), "Serving on %s", StyleHighlight.Render(addr))
			err = srv.ListenAndServe(ctx, addr)
			if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultTimeout, "per-request timeout")
	flags.register(cmd)

	return cmd
}
