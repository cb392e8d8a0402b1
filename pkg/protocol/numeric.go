package protocol

import (
	"encoding/binary"
	"math"
)

// ByteOrder is the byte order of every fixed-width value on the wire.
// The game client runs on little-endian typed arrays, so the order is fixed
// here rather than taken from the host.
var ByteOrder = binary.LittleEndian

// NumericView is an 8-byte scratch region that can be reinterpreted as any
// fixed-width integer or float. Values are laid out in ByteOrder starting at
// offset 0, so a value written as one width can be read back as another.
type NumericView [8]byte

// Bytes returns the first n bytes of the view.
func (v *NumericView) Bytes(n int) []byte {
	return v[:n]
}

// Load copies b into the start of the view and zeroes the rest.
func (v *NumericView) Load(b []byte) {
	n := copy(v[:], b)
	clear(v[n:])
}

func (v *NumericView) U8() uint8       { return v[0] }
func (v *NumericView) I8() int8        { return int8(v[0]) }
func (v *NumericView) U16() uint16     { return ByteOrder.Uint16(v[:]) }
func (v *NumericView) I16() int16      { return int16(ByteOrder.Uint16(v[:])) }
func (v *NumericView) U32() uint32     { return ByteOrder.Uint32(v[:]) }
func (v *NumericView) I32() int32      { return int32(ByteOrder.Uint32(v[:])) }
func (v *NumericView) U64() uint64     { return ByteOrder.Uint64(v[:]) }
func (v *NumericView) I64() int64      { return int64(ByteOrder.Uint64(v[:])) }
func (v *NumericView) F32() float32    { return math.Float32frombits(v.U32()) }
func (v *NumericView) F64() float64    { return math.Float64frombits(v.U64()) }
func (v *NumericView) SetU8(x uint8)   { v[0] = x }
func (v *NumericView) SetI8(x int8)    { v[0] = byte(x) }
func (v *NumericView) SetU16(x uint16) { ByteOrder.PutUint16(v[:], x) }
func (v *NumericView) SetI16(x int16)  { ByteOrder.PutUint16(v[:], uint16(x)) }
func (v *NumericView) SetU32(x uint32) { ByteOrder.PutUint32(v[:], x) }
func (v *NumericView) SetI32(x int32)  { ByteOrder.PutUint32(v[:], uint32(x)) }
func (v *NumericView) SetU64(x uint64) { ByteOrder.PutUint64(v[:], x) }
func (v *NumericView) SetI64(x int64)  { ByteOrder.PutUint64(v[:], uint64(x)) }
func (v *NumericView) SetF32(x float32) {
	v.SetU32(math.Float32bits(x))
}
func (v *NumericView) SetF64(x float64) {
	v.SetU64(math.Float64bits(x))
}

// SwapFloatBits reverses the four bytes of a 32-bit pattern. Varfloats are
// carried as the zigzag varint of the float's bits with this permutation
// applied; the swap is its own inverse.
func SwapFloatBits(bits uint32) uint32 {
	return bits<<24 | (bits&0xFF00)<<8 | (bits>>8)&0xFF00 | bits>>24
}
