package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vango-dev/diepwire/pkg/names"
)

func TestNetColorRoundTrip(t *testing.T) {
	w := NewDataWriter(nil)
	if err := w.WriteNetColor("tank"); err != nil {
		t.Fatalf("WriteNetColor: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x02}) {
		t.Errorf("WriteNetColor(tank) = %x, want 02", w.Bytes())
	}

	r := NewDataReader(w.Bytes(), nil)
	got, err := r.NetColor()
	if err != nil || got != "tank" {
		t.Errorf("NetColor = %q, %v", got, err)
	}
}

func TestTankIDRoundTrip(t *testing.T) {
	tables := names.Default()
	for _, name := range tables.Tanks.Names() {
		w := NewDataWriter(tables)
		if err := w.WriteTankID(name); err != nil {
			t.Fatalf("WriteTankID(%q): %v", name, err)
		}
		got, err := NewDataReader(w.Bytes(), tables).TankID()
		if err != nil {
			t.Fatalf("TankID: %v", err)
		}
		// Duplicate names resolve to their first index, which maps back to
		// the same name.
		if got != name {
			t.Errorf("TankID = %q, want %q", got, name)
		}
	}
}

func TestStatIDWireBytes(t *testing.T) {
	w := NewDataWriter(nil)
	if err := w.WriteStatID("Reload"); err != nil {
		t.Fatal(err)
	}
	// Index 1 as a zigzag varint.
	if !bytes.Equal(w.Bytes(), []byte{0x02}) {
		t.Errorf("WriteStatID(Reload) = %x, want 02", w.Bytes())
	}
	got, err := NewDataReader(w.Bytes(), nil).StatID()
	if err != nil || got != "Reload" {
		t.Errorf("StatID = %q, %v", got, err)
	}
}

func TestUnknownNameFails(t *testing.T) {
	w := NewDataWriter(nil)
	if err := w.WriteTankID("doesnotexist"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("WriteTankID = %v, want ErrUnknownName", err)
	}
	if err := w.WriteNetColor("plaid"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("WriteNetColor = %v, want ErrUnknownName", err)
	}
	if err := w.WriteStatID("Luck"); !errors.Is(err, ErrUnknownName) {
		t.Errorf("WriteStatID = %v, want ErrUnknownName", err)
	}
	if w.Len() != 0 {
		t.Errorf("failed writes emitted %d bytes", w.Len())
	}
}

func TestUnknownIndexFails(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *DataReader) error
	}{
		{"color", []byte{0x7F}, func(r *DataReader) error { _, err := r.NetColor(); return err }},
		{"tank_negative", []byte{0x01}, func(r *DataReader) error { _, err := r.TankID(); return err }},
		{"tank_large", []byte{0xFE, 0x01}, func(r *DataReader) error { _, err := r.TankID(); return err }},
		{"stat", []byte{0x10}, func(r *DataReader) error { _, err := r.StatID(); return err }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewDataReader(tc.data, nil)
			if err := tc.read(r); !errors.Is(err, ErrUnknownIndex) {
				t.Errorf("err = %v, want ErrUnknownIndex", err)
			}
			if r.Position() != 0 {
				t.Errorf("position moved to %d", r.Position())
			}
		})
	}
}

func TestColorEncodings(t *testing.T) {
	c := ColorFromRGB(0x12, 0x34, 0x56)

	w := NewDataWriter(nil)
	w.WriteRGBColor(c)
	w.WriteBGRColor(c)
	w.WriteHexColor(c)

	want := append([]byte{0x12, 0x34, 0x56, 0x56, 0x34, 0x12}, "#123456\x00"...)
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("encoded = %x, want %x", w.Bytes(), want)
	}

	r := NewDataReader(w.Bytes(), nil)
	for i, read := range []func() (Color, error){r.RGBColor, r.BGRColor, r.HexColor} {
		got, err := read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got != c {
			t.Errorf("read %d = %v, want %v", i, got, c)
		}
	}
	if !r.EOF() {
		t.Errorf("%d bytes left over", r.Remaining())
	}
}

func TestHexColorInvalid(t *testing.T) {
	r := NewDataReader([]byte("#12345\x00"), nil)
	if _, err := r.HexColor(); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("HexColor = %v, want ErrInvalidColor", err)
	}
	if r.Position() != 0 {
		t.Errorf("position moved to %d", r.Position())
	}
}

func TestEntityIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   *EntityID
		want []byte
	}{
		{"absent", nil, []byte{0x00}},
		{"small", &EntityID{Hash: 1, ID: 2}, []byte{0x01, 0x02}},
		{"large", &EntityID{Hash: 300, ID: 0}, []byte{0xAC, 0x02, 0x00}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewDataWriter(nil)
			if err := w.WriteEntityID(tc.id); err != nil {
				t.Fatalf("WriteEntityID: %v", err)
			}
			if !bytes.Equal(w.Bytes(), tc.want) {
				t.Errorf("encoded = %x, want %x", w.Bytes(), tc.want)
			}

			r := NewDataReader(w.Bytes(), nil)
			got, err := r.EntityID()
			if err != nil {
				t.Fatalf("EntityID: %v", err)
			}
			switch {
			case tc.id == nil && got != nil:
				t.Errorf("EntityID = %v, want nil", got)
			case tc.id != nil && (got == nil || *got != *tc.id):
				t.Errorf("EntityID = %v, want %v", got, tc.id)
			}
			if !r.EOF() {
				t.Errorf("%d bytes left over", r.Remaining())
			}
		})
	}
}

func TestEntityIDZeroHashRejected(t *testing.T) {
	w := NewDataWriter(nil)
	if err := w.WriteEntityID(&EntityID{Hash: 0, ID: 5}); !errors.Is(err, ErrInvalidEntityID) {
		t.Errorf("WriteEntityID = %v, want ErrInvalidEntityID", err)
	}
	if err := w.WriteEntityIDString("0#5"); !errors.Is(err, ErrInvalidEntityID) {
		t.Errorf("WriteEntityIDString = %v, want ErrInvalidEntityID", err)
	}
	if err := w.WriteEntityIDString("7#9"); err != nil {
		t.Fatalf("WriteEntityIDString: %v", err)
	}
	if err := w.WriteEntityIDString(""); err != nil {
		t.Fatalf("WriteEntityIDString empty: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x07, 0x09, 0x00}) {
		t.Errorf("encoded = %x", w.Bytes())
	}
}

func TestEntityIDTruncatedRestores(t *testing.T) {
	r := NewDataReader([]byte{0x05}, nil)
	if _, err := r.EntityID(); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("EntityID = %v, want ErrOutOfBounds", err)
	}
	if r.Position() != 0 {
		t.Errorf("position moved to %d", r.Position())
	}
}

func TestParseEntityID(t *testing.T) {
	tests := []struct {
		in      string
		want    *EntityID
		wantErr bool
	}{
		{"", nil, false},
		{"3#4", &EntityID{Hash: 3, ID: 4}, false},
		{"4294967295#0", &EntityID{Hash: 4294967295, ID: 0}, false},
		{"3", nil, true},
		{"x#4", nil, true},
		{"3#-1", nil, true},
		{"4294967296#1", nil, true},
		{"0#1", nil, true},
	}

	for _, tc := range tests {
		got, err := ParseEntityID(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseEntityID(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if tc.want == nil && got != nil || tc.want != nil && (got == nil || *got != *tc.want) {
			t.Errorf("ParseEntityID(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if got != nil && got.String() != tc.in {
			t.Errorf("String() = %q, want %q", got.String(), tc.in)
		}
	}
}

func TestFlags(t *testing.T) {
	mapping := []string{"a", "b", "c"}

	tests := []struct {
		name      string
		value     uint32
		mapping   []string
		wantBits  []bool
		wantNamed map[string]bool
	}{
		{"zero", 0, nil, []bool{false}, nil},
		{"zero_named", 0, mapping, []bool{false}, map[string]bool{"a": false, "b": false, "c": false}},
		{"five", 5, mapping, []bool{true, false, true}, map[string]bool{"a": true, "b": false, "c": true}},
		{"two", 2, mapping, []bool{false, true}, map[string]bool{"a": false, "b": true, "c": false}},
		{"too_wide", 8, mapping, []bool{false, false, false, true}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := NewDataWriter(nil)
			w.WriteFlags(tc.value)
			f, err := NewDataReader(w.Bytes(), nil).Flags(tc.mapping)
			if err != nil {
				t.Fatalf("Flags: %v", err)
			}
			if len(f.Bits) != len(tc.wantBits) {
				t.Fatalf("Bits = %v, want %v", f.Bits, tc.wantBits)
			}
			for i := range f.Bits {
				if f.Bits[i] != tc.wantBits[i] {
					t.Errorf("Bits[%d] = %v, want %v", i, f.Bits[i], tc.wantBits[i])
				}
			}
			if (f.Named == nil) != (tc.wantNamed == nil) {
				t.Fatalf("Named = %v, want %v", f.Named, tc.wantNamed)
			}
			for k, v := range tc.wantNamed {
				if f.Named[k] != v {
					t.Errorf("Named[%q] = %v, want %v", k, f.Named[k], v)
				}
				if f.Has(k) != v {
					t.Errorf("Has(%q) = %v", k, f.Has(k))
				}
			}
		})
	}
}

func TestWriteFlagsORsBits(t *testing.T) {
	w := NewDataWriter(nil)
	w.WriteFlags(1, 4, 1<<10)
	if !bytes.Equal(w.Bytes(), []byte{0x85, 0x08}) {
		t.Errorf("WriteFlags = %x, want 8508", w.Bytes())
	}
}

func TestWriteNamedFlags(t *testing.T) {
	mapping := []string{"fire", "up", "left"}
	w := NewDataWriter(nil)
	if err := w.WriteNamedFlags(mapping, map[string]bool{"fire": true, "left": true, "up": false}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x05}) {
		t.Errorf("WriteNamedFlags = %x, want 05", w.Bytes())
	}

	if err := w.WriteNamedFlags(mapping, map[string]bool{"jump": true}); !errors.Is(err, ErrUnknownName) {
		t.Errorf("unknown flag = %v, want ErrUnknownName", err)
	}

	wide := make([]string, 40)
	for i := range wide {
		wide[i] = string(rune('A' + i))
	}
	if err := w.WriteNamedFlags(wide, map[string]bool{wide[35]: true}); !errors.Is(err, ErrFlagOverflow) {
		t.Errorf("wide flag = %v, want ErrFlagOverflow", err)
	}
}

func TestPositions(t *testing.T) {
	w := NewDataWriter(nil)
	w.WritePositionVI(Position{X: -3, Y: 70})
	w.WritePositionVF(PositionF{X: -0.5, Y: 1e6})

	r := NewDataReader(w.Bytes(), nil)
	p, err := r.PositionVI()
	if err != nil || p != (Position{X: -3, Y: 70}) {
		t.Errorf("PositionVI = %v, %v", p, err)
	}
	pf, err := r.PositionVF()
	if err != nil || pf != (PositionF{X: -0.5, Y: 1e6}) {
		t.Errorf("PositionVF = %v, %v", pf, err)
	}

	// x present, y truncated
	r = NewDataReader([]byte{0x02, 0x80}, nil)
	if _, err := r.PositionVI(); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("truncated PositionVI = %v", err)
	}
	if r.Position() != 0 {
		t.Errorf("position moved to %d", r.Position())
	}
}

func TestArray(t *testing.T) {
	w := NewDataWriter(nil)
	vals := []any{uint32(1), uint32(200), uint32(70000)}
	if err := w.WriteArrayKind(KindVarUint, vals); err != nil {
		t.Fatal(err)
	}

	r := NewDataReader(w.Bytes(), nil)
	got, err := r.Array(3, KindVarUint)
	if err != nil {
		t.Fatalf("Array: %v", err)
	}
	// Length is exactly n, with no leading placeholders.
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range vals {
		if got[i] != vals[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], vals[i])
		}
	}

	if err := w.WriteArrayKind(KindVarUint, []any{"x"}); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("WriteArrayKind mismatch = %v", err)
	}
}

func TestArrayGeneric(t *testing.T) {
	w := NewDataWriter(nil)
	WriteArray([]string{"a", "bc", ""}, w.WriteStringNT)
	r := NewDataReader(w.Bytes(), nil)
	got, err := ReadArray(r.Decoder, 3, r.ReadStringNT)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "bc" || got[2] != "" {
		t.Errorf("ReadArray = %q", got)
	}
}

func TestArrayTruncatedRestores(t *testing.T) {
	r := NewDataReader([]byte{0x01, 0x02, 0x80}, nil)
	if _, err := r.Array(3, KindVarUint); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Array = %v, want ErrOutOfBounds", err)
	}
	if r.Position() != 0 {
		t.Errorf("position moved to %d", r.Position())
	}
}

func TestArrayEmpty(t *testing.T) {
	got, err := NewDataReader(nil, nil).Array(0, KindU8)
	if err != nil || len(got) != 0 {
		t.Errorf("Array(0) = %v, %v", got, err)
	}
}

func TestEntityIDStringRoundTrip(t *testing.T) {
	w := NewDataWriter(nil)
	if err := w.WriteEntityIDString("12#34"); err != nil {
		t.Fatal(err)
	}
	id, err := NewDataReader(w.Bytes(), nil).EntityID()
	if err != nil {
		t.Fatal(err)
	}
	if id == nil || id.String() != "12#34" {
		t.Errorf("EntityID = %v, want 12#34", id)
	}
}
