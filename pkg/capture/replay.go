package capture

import (
	"context"
	"time"

	"github.com/vango-dev/diepwire/pkg/metrics"
	"github.com/vango-dev/diepwire/pkg/packet"
)

// Handler receives each replayed record with its decoded packet or the
// decode error. Returning an error stops the replay.
type Handler func(rec Record, p *packet.Packet, err error) error

// Replayer decodes records in order.
type Replayer struct {
	opts    []packet.ReaderOption
	metrics *metrics.Metrics
}

// ReplayOption configures a Replayer.
type ReplayOption func(*Replayer)

// WithReaderOptions passes options to the packet readers.
func WithReaderOptions(opts ...packet.ReaderOption) ReplayOption {
	return func(r *Replayer) {
		r.opts = append(r.opts, opts...)
	}
}

// WithMetrics records every decode on m.
func WithMetrics(m *metrics.Metrics) ReplayOption {
	return func(r *Replayer) {
		r.metrics = m
	}
}

// NewReplayer creates a replayer.
func NewReplayer(opts ...ReplayOption) *Replayer {
	r := &Replayer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replay decodes records and calls fn for each. Decode errors go to fn;
// only fn's error or ctx cancellation stops the replay.
func (r *Replayer) Replay(ctx context.Context, records []Record, fn Handler) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := r.Decode(rec)
		if err := fn(rec, p, err); err != nil {
			return err
		}
	}
	return nil
}

// Decode decodes a single record.
func (r *Replayer) Decode(rec Record) (*packet.Packet, error) {
	start := time.Now()
	var (
		p   *packet.Packet
		err error
	)
	switch rec.Direction {
	case packet.Serverbound:
		p, err = packet.DecodeServerbound(rec.Data, r.opts...)
	default:
		p, err = packet.DecodeClientbound(rec.Data, r.opts...)
	}
	r.metrics.ObserveDecode(rec.Direction, p, len(rec.Data), time.Since(start), err)
	return p, err
}

// Replay decodes records with default options.
func Replay(ctx context.Context, records []Record, fn Handler) error {
	return NewReplayer().Replay(ctx, records, fn)
}
