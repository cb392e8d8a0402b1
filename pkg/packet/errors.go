package packet

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedTag is returned by writers for tags they cannot encode
	// and for payloads whose type does not match the tag.
	ErrUnsupportedTag = errors.New("packet: unsupported tag")

	// ErrDecompress wraps failures of the block decompressor.
	ErrDecompress = errors.New("packet: decompression failed")

	// ErrInvalidPartyID reports a party id that is not an even-length hex
	// string.
	ErrInvalidPartyID = errors.New("packet: invalid party id")
)

// DecodeError records which variant failed to decode and the offset of the
// field that could not be read.
type DecodeError struct {
	Direction Direction
	Header    byte
	Kind      Kind
	Offset    int
	Err       error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("packet: decode %s %s at offset %d: %v", e.Direction, e.Kind, e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

func unsupported(tag byte, data Payload) error {
	if data == nil {
		return fmt.Errorf("%w: 0x%02X", ErrUnsupportedTag, tag)
	}
	return fmt.Errorf("%w: 0x%02X with %T payload", ErrUnsupportedTag, tag, data)
}
