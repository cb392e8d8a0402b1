package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/diepwire/pkg/names"
)

// Name lookup errors, re-exported from the names package.
var (
	ErrUnknownName  = names.ErrUnknownName
	ErrUnknownIndex = names.ErrUnknownIndex
)

// ErrFlagOverflow reports a named flag whose bit position does not fit in a
// 32-bit varuint.
var ErrFlagOverflow = errors.New("protocol: flag bit out of range")

// Position is a 2D position carried as two varints.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// PositionF is a 2D position carried as two varfloats.
type PositionF struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Flags is a decoded bitfield. Bits lists every bit of the value, least
// significant first. Named is set only when the mapping passed to
// DataReader.Flags covers every bit.
type Flags struct {
	Bits  []bool          `json:"bits"`
	Named map[string]bool `json:"named,omitempty"`
}

// Has reports whether the named flag is set.
func (f Flags) Has(name string) bool {
	return f.Named[name]
}

// DataReader decodes game values layered on the primitive Decoder.
type DataReader struct {
	*Decoder
	tables *names.Tables
}

// NewDataReader creates a reader over buf. A nil tables uses names.Default().
func NewDataReader(buf []byte, tables *names.Tables) *DataReader {
	if tables == nil {
		tables = names.Default()
	}
	return &DataReader{Decoder: NewDecoder(buf), tables: tables}
}

// Tables returns the name tables the reader resolves indices against.
func (r *DataReader) Tables() *names.Tables {
	return r.tables
}

func (r *DataReader) lookup(t *names.Table, i int, start int) (string, error) {
	name, err := t.Name(i)
	return name, r.restore(start, err)
}

// NetColor reads a varuint index into the color table.
func (r *DataReader) NetColor() (string, error) {
	start := r.pos
	i, err := r.ReadVarUint()
	if err != nil {
		return "", err
	}
	return r.lookup(r.tables.Colors, int(i), start)
}

// TankID reads a varint index into the tank table.
func (r *DataReader) TankID() (string, error) {
	start := r.pos
	i, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	return r.lookup(r.tables.Tanks, int(i), start)
}

// StatID reads a varint index into the stat table.
func (r *DataReader) StatID() (string, error) {
	start := r.pos
	i, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	return r.lookup(r.tables.Stats, int(i), start)
}

func (r *DataReader) channels() (a, b, c uint8, err error) {
	bs, err := r.ReadBytes(3)
	if err != nil {
		return 0, 0, 0, err
	}
	return bs[0], bs[1], bs[2], nil
}

// RGBColor reads three bytes in red, green, blue order.
func (r *DataReader) RGBColor() (Color, error) {
	red, green, blue, err := r.channels()
	return Color{R: red, G: green, B: blue}, err
}

// BGRColor reads three bytes in blue, green, red order.
func (r *DataReader) BGRColor() (Color, error) {
	blue, green, red, err := r.channels()
	return Color{R: red, G: green, B: blue}, err
}

// HexColor reads a null-terminated "#RRGGBB" string.
func (r *DataReader) HexColor() (Color, error) {
	start := r.pos
	s, err := r.ReadStringNT()
	if err != nil {
		return Color{}, err
	}
	c, err := ParseHexColor(s)
	return c, r.restore(start, err)
}

// EntityID reads an entity id. A zero hash is the absent entity and decodes
// to nil without reading an id.
func (r *DataReader) EntityID() (*EntityID, error) {
	start := r.pos
	hash, err := r.ReadVarUint()
	if err != nil {
		return nil, err
	}
	if hash == 0 {
		return nil, nil
	}
	id, err := r.ReadVarUint()
	if err != nil {
		return nil, r.restore(start, err)
	}
	return &EntityID{Hash: hash, ID: id}, nil
}

// Flags reads a varuint bitfield. When mapping has at least as many names as
// the value has bits, Named maps each name to its bit, with bits past the
// value's length reported as false.
func (r *DataReader) Flags(mapping []string) (Flags, error) {
	v, err := r.ReadVarUint()
	if err != nil {
		return Flags{}, err
	}
	bits := []bool{v&1 == 1}
	for v >>= 1; v != 0; v >>= 1 {
		bits = append(bits, v&1 == 1)
	}
	f := Flags{Bits: bits}
	if len(mapping) == 0 || len(bits) > len(mapping) {
		return f, nil
	}
	f.Named = make(map[string]bool, len(mapping))
	for i, name := range mapping {
		f.Named[name] = i < len(bits) && bits[i]
	}
	return f, nil
}

// PositionVI reads x then y as varints.
func (r *DataReader) PositionVI() (Position, error) {
	start := r.pos
	x, err := r.ReadVarInt()
	if err != nil {
		return Position{}, err
	}
	y, err := r.ReadVarInt()
	if err != nil {
		return Position{}, r.restore(start, err)
	}
	return Position{X: x, Y: y}, nil
}

// PositionVF reads x then y as varfloats.
func (r *DataReader) PositionVF() (PositionF, error) {
	start := r.pos
	x, err := r.ReadVarFloat()
	if err != nil {
		return PositionF{}, err
	}
	y, err := r.ReadVarFloat()
	if err != nil {
		return PositionF{}, r.restore(start, err)
	}
	return PositionF{X: x, Y: y}, nil
}

// Array reads n consecutive values of kind k.
func (r *DataReader) Array(n int, k ElementKind) ([]any, error) {
	return ReadArray(r.Decoder, n, func() (any, error) { return r.ReadKind(k) })
}

// ReadArray reads n values with read. The count is validated against
// MaxCollectionCount and the unread input before anything is allocated.
func ReadArray[T any](d *Decoder, n int, read func() (T, error)) ([]T, error) {
	if err := d.checkCount(n); err != nil {
		return nil, err
	}
	start := d.pos
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := read()
		if err != nil {
			return nil, d.restore(start, fmt.Errorf("element %d: %w", i, err))
		}
		out = append(out, v)
	}
	return out, nil
}

// DataWriter encodes game values layered on the primitive Encoder.
type DataWriter struct {
	*Encoder
	tables *names.Tables
}

// NewDataWriter creates a writer. A nil tables uses names.Default().
func NewDataWriter(tables *names.Tables) *DataWriter {
	return NewDataWriterWith(NewEncoder(), tables)
}

// NewDataWriterWith creates a writer appending to e.
func NewDataWriterWith(e *Encoder, tables *names.Tables) *DataWriter {
	if tables == nil {
		tables = names.Default()
	}
	return &DataWriter{Encoder: e, tables: tables}
}

// Tables returns the name tables the writer resolves names against.
func (w *DataWriter) Tables() *names.Tables {
	return w.tables
}

// WriteNetColor writes the color table index of name.
func (w *DataWriter) WriteNetColor(name string) error {
	i, err := w.tables.Colors.Index(name)
	if err != nil {
		return err
	}
	w.WriteVarUint(uint32(i))
	return nil
}

// WriteTankID writes the tank table index of name.
func (w *DataWriter) WriteTankID(name string) error {
	i, err := w.tables.Tanks.Index(name)
	if err != nil {
		return err
	}
	w.WriteVarInt(int32(i))
	return nil
}

// WriteStatID writes the stat table index of name.
func (w *DataWriter) WriteStatID(name string) error {
	i, err := w.tables.Stats.Index(name)
	if err != nil {
		return err
	}
	w.WriteVarInt(int32(i))
	return nil
}

// WriteRGBColor writes c in red, green, blue order.
func (w *DataWriter) WriteRGBColor(c Color) {
	w.WriteBytes([]byte{c.R, c.G, c.B})
}

// WriteBGRColor writes c in blue, green, red order.
func (w *DataWriter) WriteBGRColor(c Color) {
	w.WriteBytes([]byte{c.B, c.G, c.R})
}

// WriteHexColor writes c as a null-terminated "#rrggbb" string.
func (w *DataWriter) WriteHexColor(c Color) {
	w.WriteStringNT(c.Hex())
}

// WriteEntityID writes id. nil writes a single zero varuint. A present id
// with a zero hash would decode as absent and is rejected.
func (w *DataWriter) WriteEntityID(id *EntityID) error {
	if id == nil {
		w.WriteVarUint(0)
		return nil
	}
	if id.Hash == 0 {
		return fmt.Errorf("%w: zero hash with id %d", ErrInvalidEntityID, id.ID)
	}
	w.WriteVarUint(id.Hash)
	w.WriteVarUint(id.ID)
	return nil
}

// WriteEntityIDString writes the "<hash>#<id>" form; "" is the absent entity.
func (w *DataWriter) WriteEntityIDString(s string) error {
	id, err := ParseEntityID(s)
	if err != nil {
		return err
	}
	return w.WriteEntityID(id)
}

// WriteFlags ORs the given bit values together and writes them as a varuint.
func (w *DataWriter) WriteFlags(bits ...uint32) {
	var v uint32
	for _, b := range bits {
		v |= b
	}
	w.WriteVarUint(v)
}

// WriteNamedFlags writes the bitfield whose bit i is set[mapping[i]].
func (w *DataWriter) WriteNamedFlags(mapping []string, set map[string]bool) error {
	pos := make(map[string]int, len(mapping))
	for i, name := range mapping {
		pos[name] = i
	}
	var v uint32
	for name, on := range set {
		i, ok := pos[name]
		if !ok {
			return fmt.Errorf("%w: flag %q", ErrUnknownName, name)
		}
		if !on {
			continue
		}
		if i >= 32 {
			return fmt.Errorf("%w: %q at bit %d", ErrFlagOverflow, name, i)
		}
		v |= 1 << i
	}
	w.WriteVarUint(v)
	return nil
}

// WritePositionVI writes x then y as varints.
func (w *DataWriter) WritePositionVI(p Position) {
	w.WriteVarInt(p.X)
	w.WriteVarInt(p.Y)
}

// WritePositionVF writes x then y as varfloats.
func (w *DataWriter) WritePositionVF(p PositionF) {
	w.WriteVarFloat(p.X)
	w.WriteVarFloat(p.Y)
}

// WriteArrayKind writes every value in vals as kind k.
func (w *DataWriter) WriteArrayKind(k ElementKind, vals []any) error {
	for i, v := range vals {
		if err := w.WriteKind(k, v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// WriteArray writes every value in vals with write.
func WriteArray[T any](vals []T, write func(T)) {
	for _, v := range vals {
		write(v)
	}
}
