package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/capture"
	"github.com/vango-dev/diepwire/pkg/inspect"
	"github.com/vango-dev/diepwire/pkg/metrics"
	"github.com/vango-dev/diepwire/pkg/packet"
	"github.com/vango-dev/diepwire/pkg/tap"
)

func tapCmd(g *globals) *cobra.Command {
	var (
		url      string
		origin   string
		record   bool
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "tap [URL]",
		Short: "Decode a live websocket connection",
		Long: `Connect to a game server websocket and print every packet it sends
as one JSON object per line.

With --record the frames are saved as a capture when the tap stops and
the capture id is printed to stderr.

Examples:
  diepwire tap wss://example.invalid/
  diepwire tap --record --duration 30s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Tap.URL = args[0]
			}
			if url != "" {
				cfg.Tap.URL = url
			}
			if origin != "" {
				cfg.Tap.Origin = origin
			}
			if cmd.Flags().Changed("record") {
				cfg.Tap.Record = record
			}
			if cfg.Tap.URL == "" {
				return errors.New("D102").WithDetail("tap.url is not set; pass a URL or set it in the config")
			}
			tables, err := cfg.NameTables()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			m := metrics.New(
				metrics.WithNamespace(cfg.Metrics.Namespace),
				metrics.WithRegistry(prometheus.NewRegistry()),
			)
			var rec *capture.Recorder
			if cfg.Tap.Record {
				rec = capture.NewRecorder()
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			t, err := tap.Dial(ctx, tap.Config{
				URL:      cfg.Tap.URL,
				Origin:   cfg.Tap.Origin,
				Tables:   tables,
				Recorder: rec,
				Metrics:  m,
				Handler: func(dir packet.Direction, p *packet.Packet, err error) {
					if err != nil {
						return
					}
					if err := enc.Encode(inspect.Describe(dir, p)); err != nil {
						slog.Warn("frame not representable as JSON", "direction", dir, "kind", p.Kind, "error", err)
					}
				},
			})
			if err != nil {
				return errors.New("D060").Wrap(err)
			}
			if err := t.Run(ctx); err != nil {
				return errors.New("D060").Wrap(err)
			}

			if rec == nil || rec.Len() == 0 {
				return nil
			}
			store, err := cfg.Store()
			if err != nil {
				return errors.FromError(err, "D053")
			}
			id, err := rec.Save(context.Background(), store)
			if err != nil {
				return errors.FromError(err, "D053")
			}
			m.CaptureStored(cfg.Capture.Backend)
			slog.Info("capture saved", "id", id, "records", rec.Len(), "backend", cfg.Capture.Backend)
			fmt.Fprintln(cmd.ErrOrStderr(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Websocket URL (default from config)")
	cmd.Flags().StringVar(&origin, "origin", "", "Origin header (default from config)")
	cmd.Flags().BoolVar(&record, "record", false, "Save the frames as a capture")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (default: until interrupted)")
	return cmd
}
