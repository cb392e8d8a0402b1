package protocol

// Allocation limits to prevent hostile length fields from forcing huge
// allocations.
const (
	// DefaultMaxAllocation is the default maximum allocation size (4MB).
	// Decompressed game updates stay well below this.
	DefaultMaxAllocation = 4 * 1024 * 1024

	// HardMaxAllocation is the absolute ceiling for allocations (16MB).
	// Even if configured higher, allocations are capped at this limit.
	HardMaxAllocation = 16 * 1024 * 1024

	// MaxCollectionCount is the maximum number of items in an array read.
	// This prevents OOM from huge counts with small per-item overhead.
	MaxCollectionCount = 100_000
)

// ClampAllocation caps a requested allocation limit to HardMaxAllocation.
// Zero or negative values select DefaultMaxAllocation.
func ClampAllocation(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxAllocation
	case n > HardMaxAllocation:
		return HardMaxAllocation
	default:
		return n
	}
}

// checkCount validates an element count read from the wire against limits.
// Every element kind consumes at least one byte, so a count larger than the
// unread input cannot be satisfied.
func (d *Decoder) checkCount(n int) error {
	if n < 0 || n > MaxCollectionCount {
		return ErrCollectionTooLarge
	}
	if n > d.Remaining() {
		return ErrOutOfBounds
	}
	return nil
}
