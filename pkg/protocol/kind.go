package protocol

import (
	"errors"
	"fmt"
)

// ErrKindMismatch reports a value whose Go type does not match the element
// kind it is written as.
var ErrKindMismatch = errors.New("protocol: value does not match element kind")

// ElementKind names a primitive wire type for homogeneous arrays and jump
// tables.
type ElementKind uint8

const (
	KindU8 ElementKind = iota + 1
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF32
	KindF64
	KindVarUint
	KindVarInt
	KindVarFloat
	KindStringNT
)

var kindNames = map[ElementKind]string{
	KindU8:       "u8",
	KindI8:       "i8",
	KindU16:      "u16",
	KindI16:      "i16",
	KindU32:      "u32",
	KindI32:      "i32",
	KindU64:      "u64",
	KindI64:      "i64",
	KindF32:      "f32",
	KindF64:      "f64",
	KindVarUint:  "vu",
	KindVarInt:   "vi",
	KindVarFloat: "vf",
	KindStringNT: "stringNT",
}

// String returns the short wire name of the kind ("u8", "vu", "stringNT", ...).
func (k ElementKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ElementKind(%d)", uint8(k))
}

// ParseElementKind resolves a short wire name to its kind.
func ParseElementKind(s string) (ElementKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("protocol: unknown element kind %q", s)
}

// ReadKind reads one value of kind k. The dynamic type of the result is the
// Go type of the matching Read method.
func (d *Decoder) ReadKind(k ElementKind) (any, error) {
	switch k {
	case KindU8:
		return d.ReadU8()
	case KindI8:
		return d.ReadI8()
	case KindU16:
		return d.ReadU16()
	case KindI16:
		return d.ReadI16()
	case KindU32:
		return d.ReadU32()
	case KindI32:
		return d.ReadI32()
	case KindU64:
		return d.ReadU64()
	case KindI64:
		return d.ReadI64()
	case KindF32:
		return d.ReadF32()
	case KindF64:
		return d.ReadF64()
	case KindVarUint:
		return d.ReadVarUint()
	case KindVarInt:
		return d.ReadVarInt()
	case KindVarFloat:
		return d.ReadVarFloat()
	case KindStringNT:
		return d.ReadStringNT()
	default:
		return nil, fmt.Errorf("protocol: unknown element kind %d", uint8(k))
	}
}

// WriteKind writes v as kind k. v must have the Go type ReadKind returns for k.
func (e *Encoder) WriteKind(k ElementKind, v any) error {
	ok := true
	switch k {
	case KindU8:
		var x uint8
		if x, ok = v.(uint8); ok {
			e.WriteU8(x)
		}
	case KindI8:
		var x int8
		if x, ok = v.(int8); ok {
			e.WriteI8(x)
		}
	case KindU16:
		var x uint16
		if x, ok = v.(uint16); ok {
			e.WriteU16(x)
		}
	case KindI16:
		var x int16
		if x, ok = v.(int16); ok {
			e.WriteI16(x)
		}
	case KindU32:
		var x uint32
		if x, ok = v.(uint32); ok {
			e.WriteU32(x)
		}
	case KindI32:
		var x int32
		if x, ok = v.(int32); ok {
			e.WriteI32(x)
		}
	case KindU64:
		var x uint64
		if x, ok = v.(uint64); ok {
			e.WriteU64(x)
		}
	case KindI64:
		var x int64
		if x, ok = v.(int64); ok {
			e.WriteI64(x)
		}
	case KindF32:
		var x float32
		if x, ok = v.(float32); ok {
			e.WriteF32(x)
		}
	case KindF64:
		var x float64
		if x, ok = v.(float64); ok {
			e.WriteF64(x)
		}
	case KindVarUint:
		var x uint32
		if x, ok = v.(uint32); ok {
			e.WriteVarUint(x)
		}
	case KindVarInt:
		var x int32
		if x, ok = v.(int32); ok {
			e.WriteVarInt(x)
		}
	case KindVarFloat:
		var x float32
		if x, ok = v.(float32); ok {
			e.WriteVarFloat(x)
		}
	case KindStringNT:
		var x string
		if x, ok = v.(string); ok {
			e.WriteStringNT(x)
		}
	default:
		return fmt.Errorf("protocol: unknown element kind %d", uint8(k))
	}
	if !ok {
		return fmt.Errorf("%w: %s given %T", ErrKindMismatch, k, v)
	}
	return nil
}
