package protocol

import (
	"errors"
	"slices"
)

// ErrBufferFull is reported by Err when a write would exceed the limit of an
// encoder created with NewEncoderWithLimit.
var ErrBufferFull = errors.New("protocol: encoder buffer limit exceeded")

// Encoder is a binary encoder that appends data to an internal buffer.
// The buffer grows as needed; an optional limit turns growth past a fixed
// size into a sticky error instead.
type Encoder struct {
	buf   []byte
	limit int
	err   error
	view  NumericView
	text  *TextCodec
}

// NewEncoder creates a new encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return NewEncoderWithCap(256)
}

// NewEncoderWithCap creates a new encoder with the specified initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{
		buf:  make([]byte, 0, cap),
		text: NewTextCodec(),
	}
}

// NewEncoderWithLimit creates an encoder that never grows past limit bytes.
// A write that does not fit is dropped and recorded in Err; every later write
// is dropped as well.
func NewEncoderWithLimit(limit int) *Encoder {
	e := NewEncoderWithCap(limit)
	e.limit = limit
	return e
}

// Reset resets the encoder to empty state, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.err = nil
}

// Truncate discards everything written after the first n bytes. It is used to
// drop a partially written value after an error.
func (e *Encoder) Truncate(n int) {
	if n >= 0 && n < len(e.buf) {
		e.buf = e.buf[:n]
	}
}

// Bytes returns the encoded bytes, trimmed to the write position. The
// returned slice is valid until the next call to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Err returns the first limit violation, if any.
func (e *Encoder) Err() error {
	return e.err
}

// reserve reports whether n more bytes may be written.
func (e *Encoder) reserve(n int) bool {
	if e.err != nil {
		return false
	}
	if e.limit > 0 && len(e.buf)+n > e.limit {
		e.err = ErrBufferFull
		return false
	}
	return true
}

func (e *Encoder) put(b []byte) {
	if e.reserve(len(b)) {
		e.buf = append(e.buf, b...)
	}
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.put(b)
}

// WriteU8 appends an unsigned byte.
func (e *Encoder) WriteU8(v uint8) {
	e.view.SetU8(v)
	e.put(e.view.Bytes(1))
}

// WriteI8 appends a signed byte.
func (e *Encoder) WriteI8(v int8) {
	e.view.SetI8(v)
	e.put(e.view.Bytes(1))
}

// WriteU16 appends a little-endian uint16.
func (e *Encoder) WriteU16(v uint16) {
	e.view.SetU16(v)
	e.put(e.view.Bytes(2))
}

// WriteI16 appends a little-endian int16.
func (e *Encoder) WriteI16(v int16) {
	e.view.SetI16(v)
	e.put(e.view.Bytes(2))
}

// WriteU32 appends a little-endian uint32.
func (e *Encoder) WriteU32(v uint32) {
	e.view.SetU32(v)
	e.put(e.view.Bytes(4))
}

// WriteI32 appends a little-endian int32.
func (e *Encoder) WriteI32(v int32) {
	e.view.SetI32(v)
	e.put(e.view.Bytes(4))
}

// WriteU64 appends a little-endian uint64.
func (e *Encoder) WriteU64(v uint64) {
	e.view.SetU64(v)
	e.put(e.view.Bytes(8))
}

// WriteI64 appends a little-endian int64.
func (e *Encoder) WriteI64(v int64) {
	e.view.SetI64(v)
	e.put(e.view.Bytes(8))
}

// WriteF32 appends a little-endian IEEE 754 float32.
func (e *Encoder) WriteF32(v float32) {
	e.view.SetF32(v)
	e.put(e.view.Bytes(4))
}

// WriteF64 appends a little-endian IEEE 754 float64.
func (e *Encoder) WriteF64(v float64) {
	e.view.SetF64(v)
	e.put(e.view.Bytes(8))
}

// WriteVarUint appends an unsigned varint using the minimal number of groups.
func (e *Encoder) WriteVarUint(v uint32) {
	var tmp [MaxVarintLen]byte
	n := EncodeVarUint(tmp[:], v)
	e.put(tmp[:n])
}

// WriteVarInt appends a signed varint using ZigZag encoding.
func (e *Encoder) WriteVarInt(v int32) {
	e.WriteVarUint(ZigZag32(v))
}

// WriteVarFloat appends a float32 as the varint of its byte-reversed bits.
func (e *Encoder) WriteVarFloat(v float32) {
	e.view.SetF32(v)
	e.WriteVarInt(int32(SwapFloatBits(e.view.U32())))
}

// WriteStringNT appends the UTF-8 bytes of s followed by a zero byte.
// A string containing a zero byte is cut short at that byte when decoded.
func (e *Encoder) WriteStringNT(s string) {
	if !e.reserve(len(s) + 1) {
		return
	}
	e.buf = slices.Grow(e.buf, len(s)+1)
	read, written := e.text.EncodeInto(e.buf[len(e.buf):cap(e.buf)], s)
	if read == len(s) {
		if !e.reserve(written + 1) {
			return
		}
		e.buf = append(e.buf[:len(e.buf)+written], 0)
		return
	}
	// ill-formed input grew past the spare capacity after replacement
	e.put(e.text.Encode(s))
	e.put([]byte{0})
}
