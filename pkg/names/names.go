// Package names holds the ordered name tables the wire protocol indexes into:
// net colors, tank kinds and stat kinds.
//
// Tables are loaded once and never modified afterwards, so a single *Tables
// value can be shared by any number of readers and writers.
package names

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Table kinds.
const (
	Colors = "colors"
	Tanks  = "tanks"
	Stats  = "stats"
)

var (
	ErrUnknownName  = errors.New("names: unknown name")
	ErrUnknownIndex = errors.New("names: index out of range")
	ErrUnknownTable = errors.New("names: unknown table")
)

//go:embed data/*.json
var data embed.FS

// Table is an immutable ordered list of names.
type Table struct {
	kind  string
	names []string
	index map[string]int
}

// NewTable builds a table from an ordered list of names. When a name appears
// more than once, Index resolves it to its first position.
func NewTable(kind string, list []string) *Table {
	t := &Table{
		kind:  kind,
		names: append([]string(nil), list...),
		index: make(map[string]int, len(list)),
	}
	for i, n := range t.names {
		if _, dup := t.index[n]; !dup {
			t.index[n] = i
		}
	}
	return t
}

// Kind returns the table kind ("colors", "tanks" or "stats").
func (t *Table) Kind() string {
	return t.kind
}

// Len returns the number of names.
func (t *Table) Len() int {
	return len(t.names)
}

// Names returns a copy of the ordered names.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Name returns the name at index i.
func (t *Table) Name(i int) (string, error) {
	if i < 0 || i >= len(t.names) {
		return "", fmt.Errorf("%w: %s[%d]", ErrUnknownIndex, t.kind, i)
	}
	return t.names[i], nil
}

// Index returns the position of name.
func (t *Table) Index(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %s %q", ErrUnknownName, t.kind, name)
	}
	return i, nil
}

// MarshalJSON encodes the table as its ordered list of names.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.names)
}

// LoadTable reads a JSON array of strings.
func LoadTable(kind string, r io.Reader) (*Table, error) {
	var list []string
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("names: decode %s table: %w", kind, err)
	}
	return NewTable(kind, list), nil
}

// LoadFile reads a JSON array of strings from path.
func LoadFile(kind, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("names: open %s table: %w", kind, err)
	}
	defer f.Close()
	return LoadTable(kind, f)
}

// Tables groups the three tables the protocol uses.
type Tables struct {
	Colors *Table
	Tanks  *Table
	Stats  *Table
}

var defaultTables = sync.OnceValue(func() *Tables {
	load := func(kind string) *Table {
		f, err := data.Open("data/" + kind + ".json")
		if err != nil {
			panic(err)
		}
		defer f.Close()
		t, err := LoadTable(kind, f)
		if err != nil {
			panic(err)
		}
		return t
	}
	return &Tables{
		Colors: load(Colors),
		Tanks:  load(Tanks),
		Stats:  load(Stats),
	}
})

// Default returns the tables bundled with the package.
func Default() *Tables {
	return defaultTables()
}

// Lookup returns the table of the given kind.
func (ts *Tables) Lookup(kind string) (*Table, error) {
	switch kind {
	case Colors:
		return ts.Colors, nil
	case Tanks:
		return ts.Tanks, nil
	case Stats:
		return ts.Stats, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, kind)
	}
}

// WithOverrides returns a copy of ts where each table named in paths is
// replaced by the JSON file at that path. Empty paths are ignored.
func (ts *Tables) WithOverrides(paths map[string]string) (*Tables, error) {
	out := *ts
	for kind, path := range paths {
		if path == "" {
			continue
		}
		t, err := LoadFile(kind, path)
		if err != nil {
			return nil, err
		}
		switch kind {
		case Colors:
			out.Colors = t
		case Tanks:
			out.Tanks = t
		case Stats:
			out.Stats = t
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTable, kind)
		}
	}
	return &out, nil
}
