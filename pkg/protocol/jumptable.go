package protocol

import (
	"errors"
	"fmt"
	"slices"
)

// ErrJumpTableIndex reports a jump table entry outside its target range or
// out of order.
var ErrJumpTableIndex = errors.New("protocol: jump table index out of range")

// jumpTableEnd is the raw varuint that terminates a jump table. Each raw
// value is XORed with 1 to give the index delta, and a delta of zero ends the
// table.
const jumpTableEnd = 1

// JumpTable reads a sparse table, calling visit once per entry with its index.
// visit must consume the entry's value. Indices start at -1 and each raw
// varuint, XORed with 1, is added as a delta.
func (r *DataReader) JumpTable(visit func(index int) error) error {
	start := r.pos
	index := -1
	for {
		raw, err := r.ReadVarUint()
		if err != nil {
			return r.restore(start, err)
		}
		jump := raw ^ 1
		if jump == 0 {
			return nil
		}
		index += int(jump)
		if err := visit(index); err != nil {
			return r.restore(start, fmt.Errorf("jump table index %d: %w", index, err))
		}
	}
}

// JumpTableToArray reads a jump table of kind k values into a slice of
// length n. Missing indices are left nil.
func (r *DataReader) JumpTableToArray(n int, k ElementKind) ([]any, error) {
	return JumpTableToSlice(r, n, func() (any, error) { return r.ReadKind(k) })
}

// JumpTableToSlice reads a jump table into a slice of length n, leaving the
// zero value at indices the table skips.
func JumpTableToSlice[T any](r *DataReader, n int, read func() (T, error)) ([]T, error) {
	if n < 0 || n > MaxCollectionCount {
		return nil, ErrCollectionTooLarge
	}
	out := make([]T, n)
	err := r.JumpTable(func(index int) error {
		if index >= n {
			return fmt.Errorf("%w: %d >= %d", ErrJumpTableIndex, index, n)
		}
		v, err := read()
		if err != nil {
			return err
		}
		out[index] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteJumpTableIndices writes a jump table over strictly increasing
// non-negative indices, calling write after each index delta to emit that
// entry's value. The terminator is written last. On error nothing is
// written.
func (w *DataWriter) WriteJumpTableIndices(indices []int, write func(index int)) error {
	mark := w.Len()
	prev := -1
	for _, idx := range indices {
		if idx <= prev {
			w.Truncate(mark)
			return fmt.Errorf("%w: %d after %d", ErrJumpTableIndex, idx, prev)
		}
		w.WriteVarUint(uint32(idx-prev) ^ 1)
		write(idx)
		prev = idx
	}
	w.WriteVarUint(jumpTableEnd)
	return nil
}

// WriteJumpTable writes entries in increasing index order.
func WriteJumpTable[T any](w *DataWriter, entries map[int]T, write func(T)) error {
	indices := make([]int, 0, len(entries))
	for index := range entries {
		indices = append(indices, index)
	}
	slices.Sort(indices)
	return w.WriteJumpTableIndices(indices, func(index int) {
		write(entries[index])
	})
}
