package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidEntityID reports an entity id that cannot be encoded or parsed.
var ErrInvalidEntityID = errors.New("protocol: invalid entity id")

// EntityID identifies a game entity by its hash and id. A nil *EntityID is the
// absent entity, which is encoded as a single zero varuint.
type EntityID struct {
	Hash uint32
	ID   uint32
}

// String returns the "<hash>#<id>" form.
func (e EntityID) String() string {
	return strconv.FormatUint(uint64(e.Hash), 10) + "#" + strconv.FormatUint(uint64(e.ID), 10)
}

// ParseEntityID parses the "<hash>#<id>" form. The empty string parses to nil.
func ParseEntityID(s string) (*EntityID, error) {
	if s == "" {
		return nil, nil
	}
	hash, id, ok := strings.Cut(s, "#")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityID, s)
	}
	h, err := strconv.ParseUint(hash, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityID, s)
	}
	i, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEntityID, s)
	}
	if h == 0 {
		return nil, fmt.Errorf("%w: zero hash in %q", ErrInvalidEntityID, s)
	}
	return &EntityID{Hash: uint32(h), ID: uint32(i)}, nil
}
