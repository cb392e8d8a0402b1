package protocol

// MaxVarintLen is the maximum number of bytes a varuint can occupy.
// Values are 32 bits wide, so at most five 7-bit groups are used.
const MaxVarintLen = 5

// EncodeVarUint encodes v as a varuint into buf.
// Returns the number of bytes written.
// buf must have at least MaxVarintLen bytes available.
// Each byte carries 7 bits of data, least significant group first; the high
// bit marks that another byte follows. Zero encodes as a single byte.
func EncodeVarUint(buf []byte, v uint32) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)
	return i + 1
}

// DecodeVarUint decodes a varuint from buf.
// Returns (value, bytesRead). If bytesRead < 0, decoding failed:
//   - -1: buffer too short (incomplete varuint)
//   - -2: varuint overflow (continuation past MaxVarintLen bytes)
//
// Bits of the fifth byte that do not fit in 32 bits are discarded.
func DecodeVarUint(buf []byte) (uint32, int) {
	var v uint32
	var shift uint

	for i, b := range buf {
		if i >= MaxVarintLen {
			return 0, -2
		}
		v |= uint32(b&0x7F) << shift
		if b < 0x80 {
			return v, i + 1
		}
		shift += 7
	}
	if len(buf) >= MaxVarintLen {
		return 0, -2
	}
	return 0, -1
}

// ZigZag32 maps a signed value to an unsigned one so that small magnitudes of
// either sign stay small: 0->0, -1->1, 1->2, -2->3.
func ZigZag32(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}

// UnZigZag32 reverses ZigZag32: (raw >>> 1) ^ -(raw & 1).
func UnZigZag32(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// EncodeVarInt encodes a signed value as a zigzag varuint.
// Returns the number of bytes written.
func EncodeVarInt(buf []byte, v int32) int {
	return EncodeVarUint(buf, ZigZag32(v))
}

// DecodeVarInt decodes a zigzag varuint.
// Returns (value, bytesRead). Negative bytesRead indicates error (see DecodeVarUint).
func DecodeVarInt(buf []byte) (int32, int) {
	uv, n := DecodeVarUint(buf)
	if n < 0 {
		return 0, n
	}
	return UnZigZag32(uv), n
}

// VarUintLen returns the number of bytes needed to encode v as a varuint.
func VarUintLen(v uint32) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}

// VarIntLen returns the number of bytes needed to encode v as a varint.
func VarIntLen(v int32) int {
	return VarUintLen(ZigZag32(v))
}
