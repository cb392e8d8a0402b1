package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidColor reports a hex color that is not of the form "#RRGGBB".
var ErrInvalidColor = errors.New("protocol: invalid hex color")

// Color is an RGB triple. Channels are 8 bits wide; constructors taking ints
// truncate out-of-range values the same way a byte write does.
type Color struct {
	R, G, B uint8
}

// ColorFromRGB builds a color from red, green and blue channels.
func ColorFromRGB(r, g, b int) Color {
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}
}

// ColorFromBGR builds a color from channels given in blue, green, red order.
func ColorFromBGR(b, g, r int) Color {
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}
}

// ParseHexColor parses a 7-character "#RRGGBB" string. Digits may be either
// case.
func ParseHexColor(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// RGB returns the channels in red, green, blue order.
func (c Color) RGB() [3]uint8 {
	return [3]uint8{c.R, c.G, c.B}
}

// BGR returns the channels in blue, green, red order.
func (c Color) BGR() [3]uint8 {
	return [3]uint8{c.B, c.G, c.R}
}

// Hex returns the color as a lowercase "#rrggbb" string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

// MarshalText implements encoding.TextMarshaler using the hex form.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the hex form.
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseHexColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
