package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hierbundle/internal/server"
	"github.com/matzehuels/hierbundle/pkg/observability/prom"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		noMetrics bool
		maxBody   int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout and render pipeline over HTTP",
		Long: `Serve the layout and render pipeline over HTTP.

Routes:
  GET  /healthz     liveness
  POST /v1/layout   {"document": ..., "options": {...}} → layout JSON
  POST /v1/render   same body, ?format=svg|png|pdf|json|dot → artifact
  GET  /metrics     Prometheus metrics

The server shuts down gracefully on interrupt. Layout defaults (delimiter,
tension, spline, frame size) and the cache backend come from configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			defaults := cfg.LayoutOptions()
			defaults.VizType = pipeline.DefaultVizType
			defaults.Theme = pipeline.DefaultTheme
			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithDefaults(defaults),
				server.WithMaxBodySize(maxBody),
			}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				prom.New(reg).Install()
				opts = append(opts, server.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
			}

			printInfo("Listening on %s (cache: %s)", cfg.Server.Addr, cacheLocation(cfg, runner.Cache))
			return server.New(runner, opts...).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	cmd.Flags().String("cache-backend", "", "cache backend: file, redis, none (default from config)")
	cmd.Flags().String("redis-addr", "", "redis address for the redis backend")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodySize, "maximum request body in bytes")

	return cmd
}
