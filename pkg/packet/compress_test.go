package packet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/diepwire/pkg/protocol"
)

func compressibleUpdate() []byte {
	return append([]byte{TagUpdate}, bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 64)...)
}

func TestLZ4BlockRoundTrip(t *testing.T) {
	src := []byte(strings.Repeat("diep.io ", 40))
	block, err := LZ4Block{}.Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(block) >= len(src) {
		t.Errorf("block of %d bytes did not shrink %d bytes", len(block), len(src))
	}
	out, err := LZ4Block{}.Decompress(block, len(src))
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Errorf("Decompress = %q", out)
	}
}

func TestLZ4BlockCorrupt(t *testing.T) {
	if _, err := (LZ4Block{}).Decompress([]byte{0xF0, 0x01}, 64); err == nil {
		t.Error("expected error for corrupt block")
	}
}

func TestCompressedWithDecompressor(t *testing.T) {
	inner := compressibleUpdate()
	p, err := CompressPacket(inner)
	if err != nil {
		t.Fatalf("CompressPacket: %v", err)
	}
	b, err := EncodeClientbound(p)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeClientbound(b, WithDecompressor(LZ4Block{}))
	if err != nil {
		t.Fatalf("DecodeClientbound: %v", err)
	}
	c, ok := got.Data.(*Compressed)
	if !ok {
		t.Fatalf("Data = %T, want *Compressed", got.Data)
	}
	if c.DecompressedLength != uint32(len(inner)) {
		t.Errorf("DecompressedLength = %d, want %d", c.DecompressedLength, len(inner))
	}
	if !bytes.Equal(c.Payload, inner) {
		t.Errorf("Payload = %x, want %x", c.Payload, inner)
	}
	if !bytes.Equal(c.Block, p.Data.(*Compressed).Block) {
		t.Error("Block not kept alongside Payload")
	}

	// the expanded bytes are a packet of their own
	again, err := DecodeClientbound(c.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if again.Kind != KindUpdate || len(again.Raw) != len(inner)-1 {
		t.Errorf("inner packet = %s with %d raw bytes", again, len(again.Raw))
	}
}

func TestCompressedWithoutDecompressor(t *testing.T) {
	inner := compressibleUpdate()
	p, err := CompressPacket(inner)
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeClientbound(p)
	if err != nil {
		t.Fatal(err)
	}

	got, err := DecodeClientbound(b)
	if err != nil {
		t.Fatal(err)
	}
	c := got.Data.(*Compressed)
	if c.Payload != nil {
		t.Errorf("Payload = %x, want nil without a decompressor", c.Payload)
	}
	out, err := c.Expand(LZ4Block{})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !bytes.Equal(out, inner) {
		t.Errorf("Expand = %x", out)
	}
}

func TestCompressedDecompressFailure(t *testing.T) {
	data := []byte{TagCompressed, 0x40, 0x00, 0x00, 0x00, 0xF0, 0x01}
	r := NewClientboundReader(data, WithDecompressor(LZ4Block{}))
	_, err := r.Read()
	if !errors.Is(err, ErrDecompress) {
		t.Fatalf("err = %v, want ErrDecompress", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Kind != KindCompressed {
		t.Errorf("err = %#v, want DecodeError for COMPRESSED", err)
	}
	if r.Position() != 0 {
		t.Errorf("position left at %d", r.Position())
	}

	c := &Compressed{DecompressedLength: 64, Block: []byte{0xF0, 0x01}}
	if _, err := c.Expand(LZ4Block{}); !errors.Is(err, ErrDecompress) {
		t.Errorf("Expand = %v, want ErrDecompress", err)
	}
}

func TestCompressIncompressible(t *testing.T) {
	src := []byte{0x01, 0x02, 0x03}
	block, err := LZ4Block{}.Compress(src)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := LZ4Block{}.Decompress(block, len(src))
	if err != nil || !bytes.Equal(out, src) {
		t.Errorf("round trip = %x, %v", out, err)
	}
}

func TestLZ4BlockSizeLimit(t *testing.T) {
	tests := []struct {
		name  string
		block LZ4Block
		size  int
	}{
		{"default_limit", LZ4Block{}, protocol.DefaultMaxAllocation + 1},
		{"own_limit", LZ4Block{MaxSize: 1024}, 1025},
		{"hard_limit", LZ4Block{MaxSize: 1 << 30}, protocol.HardMaxAllocation + 1},
		{"negative", LZ4Block{}, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.block.Decompress([]byte{0x10, 0x05}, tc.size); !errors.Is(err, protocol.ErrAllocationTooLarge) {
				t.Errorf("Decompress(%d) = %v, want ErrAllocationTooLarge", tc.size, err)
			}
		})
	}
}

func TestExpandRejectsHugeLength(t *testing.T) {
	c := &Compressed{DecompressedLength: 64 << 20, Block: []byte{0x10, 0x05}}
	_, err := c.Expand(LZ4Block{})
	if !errors.Is(err, protocol.ErrAllocationTooLarge) {
		t.Errorf("Expand = %v, want ErrAllocationTooLarge", err)
	}
	if !errors.Is(err, ErrDecompress) {
		t.Errorf("Expand = %v, want ErrDecompress", err)
	}
}

func TestLZ4BlockLengthMismatch(t *testing.T) {
	block, err := LZ4Block{}.Compress([]byte{0x05})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := (LZ4Block{}).Decompress(block, 1000); err == nil {
		t.Error("Decompress accepted a block shorter than its declared size")
	}

	c := &Compressed{DecompressedLength: 1000, Block: block}
	if _, err := c.Expand(LZ4Block{}); !errors.Is(err, ErrDecompress) {
		t.Errorf("Expand = %v, want ErrDecompress", err)
	}
}

func TestReaderMaxAllocation(t *testing.T) {
	p, err := CompressPacket(compressibleUpdate())
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeClientbound(p)
	if err != nil {
		t.Fatal(err)
	}

	r := NewClientboundReader(b, WithDecompressor(LZ4Block{}), WithMaxAllocation(64))
	if _, err := r.Read(); !errors.Is(err, protocol.ErrAllocationTooLarge) {
		t.Errorf("Read = %v, want ErrAllocationTooLarge", err)
	}
	if r.Position() != 0 {
		t.Errorf("position left at %d", r.Position())
	}

	got, err := DecodeClientbound(b, WithDecompressor(LZ4Block{}), WithMaxAllocation(1024))
	if err != nil {
		t.Fatalf("Read with room: %v", err)
	}
	if c := got.Data.(*Compressed); !bytes.Equal(c.Payload, compressibleUpdate()) {
		t.Errorf("Payload = %x", c.Payload)
	}
}
