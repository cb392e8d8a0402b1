// Package protocol implements the binary value encodings of the diep.io
// wire protocol.
//
// The package has two layers. Decoder and Encoder move primitive values
// between a byte buffer and Go values; DataReader and DataWriter compose
// those primitives into game values such as colors, entity ids and sparse
// jump tables. Packet framing by tag byte lives in the packet package.
//
// # Byte Order
//
// Fixed-width integers and floats are little-endian regardless of the host.
// NumericView is the 8-byte scratch area every fixed-width value passes
// through.
//
// # Variable-Length Encodings
//
//   - varuint (vu): 7 data bits per byte, least significant group first, high
//     bit set on every byte but the last. At most 5 bytes (32 bits).
//   - varint (vi): zigzag, (n << 1) ^ (n >> 31), then varuint.
//   - varfloat (vf): the float's 32-bit pattern with its four bytes reversed,
//     then varint. The reversal is part of the wire format.
//   - stringNT: UTF-8 bytes followed by a single 0x00.
//
// # Jump Tables
//
// A jump table encodes a sparse index to value mapping:
//
//	[delta^1: vu][value] [delta^1: vu][value] ... [0x01]
//
// The index starts at -1 and each delta is added before the value at that
// index is read. A raw varuint of 1 (delta 0) ends the table.
//
// # Errors
//
// Reads never run past the buffer. A truncated buffer yields ErrOutOfBounds
// (or ErrUnterminatedString for a string with no terminator) and leaves the
// cursor where the failed read started. Encoding a name that is missing from
// its table yields ErrUnknownName.
//
// # Usage Example
//
//	w := protocol.NewDataWriter(nil)
//	w.WriteVarUint(300)
//	w.WritePositionVF(protocol.PositionF{X: 1.5, Y: -2})
//	if err := w.WriteTankID("Sniper"); err != nil {
//	    return err
//	}
//
//	r := protocol.NewDataReader(w.Bytes(), nil)
//	n, _ := r.ReadVarUint()
//	pos, _ := r.PositionVF()
//	tank, _ := r.TankID()
//
// # File Structure
//
//   - numeric.go: NumericView and the varfloat byte permutation
//   - text.go: UTF-8 text codec
//   - varint.go: varuint/varint helpers over plain slices
//   - decoder.go: primitive reader
//   - encoder.go: primitive writer
//   - kind.go: element kinds for arrays and jump tables
//   - data.go: DataReader and DataWriter
//   - color.go, entity.go: value types
//   - jumptable.go: sparse table encoding
//   - limits.go: allocation limits
package protocol
