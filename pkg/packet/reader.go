package packet

import (
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

// ReaderOption configures a packet reader.
type ReaderOption func(*readerOptions)

type readerOptions struct {
	tables       *names.Tables
	decompressor protocol.Decompressor
	maxAlloc     int
}

// WithTables sets the name tables used for colors, tanks and stats.
// Defaults to names.Default().
func WithTables(t *names.Tables) ReaderOption {
	return func(o *readerOptions) {
		o.tables = t
	}
}

// WithDecompressor makes the clientbound reader expand compressed packets.
// Without one, Compressed.Payload is left nil and the block is kept as is.
func WithDecompressor(d protocol.Decompressor) ReaderOption {
	return func(o *readerOptions) {
		o.decompressor = d
	}
}

// WithMaxAllocation caps the declared size of compressed packets before the
// decompressor runs. n passes through protocol.ClampAllocation; the
// decompressor may enforce its own limit as well.
func WithMaxAllocation(n int) ReaderOption {
	return func(o *readerOptions) {
		o.maxAlloc = n
	}
}

func applyReaderOptions(opts []ReaderOption) readerOptions {
	var o readerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// decodeEntry is one row of a tag dispatch table.
type decodeEntry[R any] struct {
	kind   Kind
	decode func(R) (Payload, error)
}

// readPacket reads the tag byte and dispatches through table. Unknown tags
// yield an Unknown payload. On failure the cursor is rewound to where the
// packet started.
func readPacket[R any](r R, d *protocol.DataReader, dir Direction, table map[byte]decodeEntry[R]) (*Packet, error) {
	start := d.Position()
	header, err := d.ReadU8()
	if err != nil {
		return nil, &DecodeError{Direction: dir, Kind: KindUnknown, Offset: start, Err: err}
	}

	entry, ok := table[header]
	if !ok {
		return &Packet{Header: header, Kind: KindUnknown, Data: &Unknown{}, Raw: d.Flush()}, nil
	}

	data, err := entry.decode(r)
	if err != nil {
		offset := d.Position()
		d.JumpTo(start)
		return nil, &DecodeError{Direction: dir, Header: header, Kind: entry.kind, Offset: offset, Err: err}
	}
	return &Packet{Header: header, Kind: entry.kind, Data: data, Raw: d.Flush()}, nil
}
