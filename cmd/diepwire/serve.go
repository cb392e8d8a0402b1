package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/diepwire/pkg/inspect"
	"github.com/vango-dev/diepwire/pkg/metrics"
)

func serveCmd(g *globals) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve packet decoding over HTTP",
		Long: `Start the inspect HTTP service.

Routes:
  POST /v1/decode/{direction}   raw body, or hex with Content-Type: text/plain
  GET  /v1/tables[/{table}]     name tables
  GET  /metrics                 Prometheus metrics
  GET  /healthz                 liveness

Examples:
  diepwire serve
  diepwire serve --addr :9000
  curl -H 'Content-Type: text/plain' -d 0a8001 localhost:8080/v1/decode/clientbound`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspect.Addr = addr
			}
			tables, err := cfg.NameTables()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			m := metrics.New(
				metrics.WithNamespace(cfg.Metrics.Namespace),
				metrics.WithRegistry(reg),
			)
			srv := inspect.New(
				inspect.WithTables(tables),
				inspect.WithMetrics(m, reg),
				inspect.WithMaxBody(cfg.Inspect.MaxBody),
				inspect.WithMaxAllocation(cfg.MaxAllocation()),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.Inspect.Addr, cfg.ReadTimeout())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	return cmd
}
