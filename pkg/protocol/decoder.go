package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Common decoding errors.
var (
	// ErrOutOfBounds reports a read past the end of the buffer. It wraps
	// io.ErrUnexpectedEOF so callers may test for either.
	ErrOutOfBounds = fmt.Errorf("protocol: read out of bounds: %w", io.ErrUnexpectedEOF)

	// ErrUnterminatedString reports a null-terminated string with no
	// terminator before the end of the buffer.
	ErrUnterminatedString = fmt.Errorf("protocol: unterminated string: %w", ErrOutOfBounds)

	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
)

// Decompressor expands a compressed block whose expanded size is known.
type Decompressor interface {
	Decompress(src []byte, size int) ([]byte, error)
}

// Decoder is a forward-only cursor over a byte buffer.
//
// Every read checks the remaining length first. A failed read returns an
// error and leaves the position where it was, so a truncated buffer never
// yields garbage values.
type Decoder struct {
	buf      []byte
	pos      int
	maxAlloc int
	view     NumericView
	text     *TextCodec
}

// NewDecoder creates a new decoder from the given byte slice.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf, maxAlloc: DefaultMaxAllocation, text: NewTextCodec()}
}

// NewDecoderAt creates a decoder positioned at start.
func NewDecoderAt(buf []byte, start int) *Decoder {
	d := NewDecoder(buf)
	d.pos = start
	return d
}

// SetMaxAllocation sets the largest expanded size Decompress accepts.
// n passes through ClampAllocation.
func (d *Decoder) SetMaxAllocation(n int) {
	d.maxAlloc = ClampAllocation(n)
}

// MaxAllocation returns the largest expanded size Decompress accepts.
func (d *Decoder) MaxAllocation() int {
	return d.maxAlloc
}

// Buffer returns the underlying buffer.
func (d *Decoder) Buffer() []byte {
	return d.buf
}

// Len returns the length of the underlying buffer.
func (d *Decoder) Len() int {
	return len(d.buf)
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.pos
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	if d.OOB() {
		return 0
	}
	return len(d.buf) - d.pos
}

// EOF reports whether the position is exactly at the end of the buffer.
func (d *Decoder) EOF() bool {
	return d.pos == len(d.buf)
}

// OOB reports whether the position lies outside the buffer.
func (d *Decoder) OOB() bool {
	return d.pos < 0 || d.pos > len(d.buf)
}

// JumpTo moves the cursor to an absolute position. Positions outside the
// buffer are accepted; OOB reports them and subsequent reads fail.
func (d *Decoder) JumpTo(pos int) {
	d.pos = pos
}

// Skip advances the position by n bytes.
func (d *Decoder) Skip(n int) error {
	_, err := d.take(n)
	return err
}

// take returns the next n bytes and advances past them.
func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.OOB() || n > len(d.buf)-d.pos {
		return nil, ErrOutOfBounds
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// restore rewinds to start when err is non-nil. Composite reads use it so a
// failure part way through leaves the cursor untouched.
func (d *Decoder) restore(start int, err error) error {
	if err != nil {
		d.pos = start
	}
	return err
}

// fixed loads the next n bytes into the numeric view.
func (d *Decoder) fixed(n int) error {
	b, err := d.take(n)
	if err != nil {
		return err
	}
	d.view.Load(b)
	return nil
}

// ReadBytes reads exactly n bytes and returns them.
// The returned slice references the decoder's buffer; do not modify.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	return d.take(n)
}

// ReadU8 reads an unsigned byte.
func (d *Decoder) ReadU8() (uint8, error) {
	if err := d.fixed(1); err != nil {
		return 0, err
	}
	return d.view.U8(), nil
}

// ReadI8 reads a signed byte.
func (d *Decoder) ReadI8() (int8, error) {
	if err := d.fixed(1); err != nil {
		return 0, err
	}
	return d.view.I8(), nil
}

// ReadU16 reads a little-endian uint16.
func (d *Decoder) ReadU16() (uint16, error) {
	if err := d.fixed(2); err != nil {
		return 0, err
	}
	return d.view.U16(), nil
}

// ReadI16 reads a little-endian int16.
func (d *Decoder) ReadI16() (int16, error) {
	if err := d.fixed(2); err != nil {
		return 0, err
	}
	return d.view.I16(), nil
}

// ReadU32 reads a little-endian uint32.
func (d *Decoder) ReadU32() (uint32, error) {
	if err := d.fixed(4); err != nil {
		return 0, err
	}
	return d.view.U32(), nil
}

// ReadI32 reads a little-endian int32.
func (d *Decoder) ReadI32() (int32, error) {
	if err := d.fixed(4); err != nil {
		return 0, err
	}
	return d.view.I32(), nil
}

// ReadU64 reads a little-endian uint64.
func (d *Decoder) ReadU64() (uint64, error) {
	if err := d.fixed(8); err != nil {
		return 0, err
	}
	return d.view.U64(), nil
}

// ReadI64 reads a little-endian int64.
func (d *Decoder) ReadI64() (int64, error) {
	if err := d.fixed(8); err != nil {
		return 0, err
	}
	return d.view.I64(), nil
}

// ReadF32 reads a little-endian IEEE 754 float32.
func (d *Decoder) ReadF32() (float32, error) {
	if err := d.fixed(4); err != nil {
		return 0, err
	}
	return d.view.F32(), nil
}

// ReadF64 reads a little-endian IEEE 754 float64.
func (d *Decoder) ReadF64() (float64, error) {
	if err := d.fixed(8); err != nil {
		return 0, err
	}
	return d.view.F64(), nil
}

// ReadVarUint reads an unsigned varint of at most 32 bits.
func (d *Decoder) ReadVarUint() (uint32, error) {
	if d.OOB() {
		return 0, ErrOutOfBounds
	}
	v, n := DecodeVarUint(d.buf[d.pos:])
	switch n {
	case -1:
		return 0, ErrOutOfBounds
	case -2:
		return 0, ErrVarintOverflow
	}
	d.pos += n
	return v, nil
}

// ReadVarInt reads a zigzag-encoded signed varint.
func (d *Decoder) ReadVarInt() (int32, error) {
	uv, err := d.ReadVarUint()
	if err != nil {
		return 0, err
	}
	return UnZigZag32(uv), nil
}

// ReadVarFloat reads a float32 carried as a varint of its byte-reversed bits.
func (d *Decoder) ReadVarFloat() (float32, error) {
	v, err := d.ReadVarInt()
	if err != nil {
		return 0, err
	}
	d.view.SetU32(SwapFloatBits(uint32(v)))
	return d.view.F32(), nil
}

// ReadStringNT reads UTF-8 text up to the next zero byte and consumes the
// terminator. The terminator is not part of the result.
func (d *Decoder) ReadStringNT() (string, error) {
	if d.OOB() {
		return "", ErrOutOfBounds
	}
	end := bytes.IndexByte(d.buf[d.pos:], 0)
	if end < 0 {
		return "", ErrUnterminatedString
	}
	s := d.text.Decode(d.buf[d.pos : d.pos+end])
	d.pos += end + 1
	return s, nil
}

// Flush returns a copy of every byte from the current position to the end
// and moves the position to the end.
func (d *Decoder) Flush() []byte {
	if d.OOB() {
		return nil
	}
	out := bytes.Clone(d.buf[d.pos:])
	if out == nil {
		out = []byte{}
	}
	d.pos = len(d.buf)
	return out
}

// Decompress flushes the rest of the buffer and expands it with dc.
// size is the declared expanded length and is checked against
// MaxAllocation before dc runs.
func (d *Decoder) Decompress(dc Decompressor, size int) ([]byte, error) {
	if size < 0 || size > d.maxAlloc {
		return nil, ErrAllocationTooLarge
	}
	start := d.pos
	out, err := dc.Decompress(d.Flush(), size)
	if err != nil {
		d.pos = start
		return nil, err
	}
	return out, nil
}
