package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/diepwire/internal/errors"
	"github.com/vango-dev/diepwire/pkg/capture"
	"github.com/vango-dev/diepwire/pkg/inspect"
	"github.com/vango-dev/diepwire/pkg/metrics"
	"github.com/vango-dev/diepwire/pkg/packet"
)

// replayLine is one replayed record in --json output.
type replayLine struct {
	Time   time.Time               `json:"time"`
	Packet *inspect.DecodeResponse `json:"packet,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

func replayCmd(g *globals) *cobra.Command {
	var (
		list     bool
		asJSON   bool
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "replay [CAPTURE-ID]",
		Short: "Decode a stored capture",
		Long: `Decode every record of a stored capture.

Examples:
  diepwire replay --list
  diepwire replay 2Zf8QH6kV4nQdZ1mJ3yq7Xw9pLr
  diepwire replay 2Zf8QH6kV4nQdZ1mJ3yq7Xw9pLr --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			store, err := cfg.Store()
			if err != nil {
				return errors.FromError(err, "D053")
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			if list || len(args) == 0 {
				ids, err := store.List(ctx)
				if err != nil {
					return errors.FromError(err, "D053")
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			records, err := capture.Load(ctx, store, args[0])
			if err != nil {
				return errors.Classify(err)
			}
			tables, err := cfg.NameTables()
			if err != nil {
				return err
			}

			m := metrics.New(
				metrics.WithNamespace(cfg.Metrics.Namespace),
				metrics.WithRegistry(prometheus.NewRegistry()),
			)
			r := capture.NewReplayer(
				capture.WithReaderOptions(
					packet.WithTables(tables),
					packet.WithDecompressor(packet.LZ4Block{MaxSize: cfg.MaxAllocation()}),
					packet.WithMaxAllocation(cfg.MaxAllocation()),
				),
				capture.WithMetrics(m),
			)

			enc := json.NewEncoder(out)
			var failures int
			err = r.Replay(ctx, records, func(rec capture.Record, p *packet.Packet, err error) error {
				if err != nil {
					failures++
					if failFast {
						return errors.Classify(err).WithInput(rec.Direction.String(), rec.Data)
					}
				}
				if asJSON {
					line := replayLine{Time: rec.Time}
					if err != nil {
						line.Error = err.Error()
					} else {
						line.Packet = inspect.Describe(rec.Direction, p)
					}
					if err := enc.Encode(line); err != nil {
						return enc.Encode(replayLine{Time: rec.Time, Error: err.Error()})
					}
					return nil
				}
				ts := rec.Time.Format("15:04:05.000")
				if err != nil {
					_, werr := fmt.Fprintf(out, "%s %-11s error: %v\n", ts, rec.Direction, err)
					return werr
				}
				_, werr := fmt.Fprintf(out, "%s %-11s %s %d bytes\n", ts, rec.Direction, p, len(rec.Data))
				return werr
			})
			if err != nil {
				return err
			}
			if failures > 0 {
				return errors.Newf(errors.CategoryDecode, "%d of %d records failed to decode", failures, len(records))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List stored captures")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per record")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first record that fails to decode")
	return cmd
}
