package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/vango-dev/diepwire/pkg/packet"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

// Magic opens every capture file.
const Magic = "DWCAP\x01"

var (
	ErrBadMagic     = errors.New("capture: not a capture file")
	ErrBadDirection = errors.New("capture: invalid direction")
)

// Record is one recorded packet.
type Record struct {
	Direction packet.Direction `json:"direction"`
	Time      time.Time        `json:"time"`
	Data      []byte           `json:"data"`
}

// Encode serializes records into the capture format.
func Encode(records []Record) []byte {
	size := len(Magic)
	for _, r := range records {
		size += 1 + 8 + protocol.MaxVarintLen + len(r.Data)
	}
	e := protocol.NewEncoderWithCap(size)
	e.WriteBytes([]byte(Magic))
	for _, r := range records {
		e.WriteU8(uint8(r.Direction))
		e.WriteI64(r.Time.UnixNano())
		e.WriteVarUint(uint32(len(r.Data)))
		e.WriteBytes(r.Data)
	}
	return e.Bytes()
}

// Decode parses a capture. Record data is copied out of b.
func Decode(b []byte) ([]Record, error) {
	d := protocol.NewDecoder(b)
	magic, err := d.ReadBytes(len(Magic))
	if err != nil || string(magic) != Magic {
		return nil, ErrBadMagic
	}

	var records []Record
	for !d.EOF() {
		r, err := decodeRecord(d)
		if err != nil {
			return nil, fmt.Errorf("capture: record %d at offset %d: %w", len(records), d.Position(), err)
		}
		records = append(records, r)
	}
	return records, nil
}

func decodeRecord(d *protocol.Decoder) (Record, error) {
	dir, err := d.ReadU8()
	if err != nil {
		return Record{}, err
	}
	if packet.Direction(dir) != packet.Clientbound && packet.Direction(dir) != packet.Serverbound {
		return Record{}, fmt.Errorf("%w: %d", ErrBadDirection, dir)
	}
	nanos, err := d.ReadI64()
	if err != nil {
		return Record{}, err
	}
	n, err := d.ReadVarUint()
	if err != nil {
		return Record{}, err
	}
	if int64(n) > int64(protocol.HardMaxAllocation) {
		return Record{}, protocol.ErrAllocationTooLarge
	}
	data, err := d.ReadBytes(int(n))
	if err != nil {
		return Record{}, err
	}
	return Record{
		Direction: packet.Direction(dir),
		Time:      time.Unix(0, nanos).UTC(),
		Data:      append([]byte(nil), data...),
	}, nil
}
