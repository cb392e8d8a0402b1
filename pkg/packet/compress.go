package packet

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	"github.com/vango-dev/diepwire/pkg/protocol"
)

// LZ4Block handles raw LZ4 blocks, the format of compressed packet bodies.
// It implements protocol.Decompressor.
type LZ4Block struct {
	// MaxSize caps the declared expanded size. It passes through
	// protocol.ClampAllocation, so zero means protocol.DefaultMaxAllocation.
	MaxSize int
}

// Decompress expands src into a buffer of the declared size. A size above
// MaxSize fails with protocol.ErrAllocationTooLarge before anything is
// allocated; output shorter than size is an error.
func (b LZ4Block) Decompress(src []byte, size int) ([]byte, error) {
	if size < 0 || size > protocol.ClampAllocation(b.MaxSize) {
		return nil, protocol.ErrAllocationTooLarge
	}
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n != size {
		return nil, fmt.Errorf("lz4: expanded to %d bytes, declared %d", n, size)
	}
	return dst, nil
}

// Compress returns src as a single LZ4 block. Input that does not shrink is
// stored as literals.
func (LZ4Block) Compress(src []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return dst[:n], nil
}

// CompressPacket wraps an encoded clientbound packet in a compressed packet.
func CompressPacket(encoded []byte) (*Packet, error) {
	block, err := LZ4Block{}.Compress(encoded)
	if err != nil {
		return nil, err
	}
	return NewCompressed(uint32(len(encoded)), block), nil
}
