package protocol

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TextCodec converts between Go strings and UTF-8 byte spans. Ill-formed
// input is replaced with U+FFFD in both directions, matching what a browser
// TextEncoder/TextDecoder pair produces.
//
// A TextCodec holds transformer state and must not be shared between
// goroutines.
type TextCodec struct {
	enc *encoding.Encoder
	dec *encoding.Decoder
}

// NewTextCodec creates a UTF-8 text codec.
func NewTextCodec() *TextCodec {
	return &TextCodec{
		enc: unicode.UTF8.NewEncoder(),
		dec: unicode.UTF8.NewDecoder(),
	}
}

// Encode returns the UTF-8 bytes of s in a new slice.
func (tc *TextCodec) Encode(s string) []byte {
	if utf8.ValidString(s) {
		return []byte(s)
	}
	out, err := tc.enc.String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(out)
}

// EncodeInto writes as much of s into dst as fits without splitting a code
// point. It returns the number of source bytes consumed and the number of
// bytes written.
func (tc *TextCodec) EncodeInto(dst []byte, s string) (read, written int) {
	if s == "" {
		return 0, 0
	}
	tc.enc.Reset()
	nDst, nSrc, err := tc.enc.Transform(dst, []byte(s), true)
	if err != nil && !errors.Is(err, transform.ErrShortDst) {
		return 0, 0
	}
	return nSrc, nDst
}

// Decode converts a UTF-8 byte span to a string.
func (tc *TextCodec) Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := tc.dec.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
