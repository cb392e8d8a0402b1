package errors

import (
	"context"
	"errors"

	"github.com/vango-dev/diepwire/pkg/capture"
	"github.com/vango-dev/diepwire/pkg/names"
	"github.com/vango-dev/diepwire/pkg/packet"
	"github.com/vango-dev/diepwire/pkg/protocol"
)

var codes = []struct {
	target error
	code   string
}{
	// Ordered: ErrUnterminatedString wraps ErrOutOfBounds, and an oversized
	// compressed packet wraps both ErrDecompress and ErrAllocationTooLarge.
	{protocol.ErrUnterminatedString, "D002"},
	{protocol.ErrOutOfBounds, "D001"},
	{names.ErrUnknownName, "D003"},
	{names.ErrUnknownIndex, "D003"},
	{packet.ErrUnsupportedTag, "D004"},
	{protocol.ErrAllocationTooLarge, "D008"},
	{packet.ErrDecompress, "D005"},
	{protocol.ErrVarintOverflow, "D006"},
	{protocol.ErrInvalidEntityID, "D007"},
	{protocol.ErrInvalidColor, "D007"},
	{protocol.ErrJumpTableIndex, "D007"},
	{protocol.ErrCollectionTooLarge, "D008"},
	{protocol.ErrBufferFull, "D008"},
	{packet.ErrInvalidPartyID, "D009"},
	{capture.ErrNotFound, "D050"},
	{capture.ErrBadMagic, "D051"},
	{capture.ErrBadDirection, "D051"},
	{capture.ErrInvalidID, "D052"},
	{names.ErrUnknownTable, "D123"},
}

// Code returns the registered code for err, or "" if none applies.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return ""
}

// Classify converts err into a DiepError. A packet.DecodeError contributes
// its offset. Unclassified errors are returned with no code.
func Classify(err error) *DiepError {
	if err == nil {
		return nil
	}
	var de *DiepError
	if errors.As(err, &de) {
		return de
	}

	var e *DiepError
	if code := Code(err); code != "" {
		e = New(code).Wrap(err)
	} else if errors.Is(err, context.Canceled) {
		e = Newf(CategoryCLI, "interrupted")
	} else {
		e = &DiepError{Message: err.Error()}
	}

	var decodeErr *packet.DecodeError
	if errors.As(err, &decodeErr) {
		e.WithOffset(decodeErr.Offset)
	}
	return e
}
