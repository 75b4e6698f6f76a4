package nbt

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated     = errors.New("nbt: truncated input")
	ErrUnknownTag    = errors.New("nbt: unknown tag type")
	ErrInvalidLength = errors.New("nbt: invalid length")
	ErrTooDeep       = errors.New("nbt: nesting too deep")
	ErrNotCompound   = errors.New("nbt: root tag is not a compound")
	ErrListType      = errors.New("nbt: list element type mismatch")
	ErrStringTooLong = errors.New("nbt: string longer than 65535 bytes")
	ErrTooManyTags   = errors.New("nbt: too many tags")
)

// SyntaxError describes where in the input a decode failed. Path is the
// dotted location of the tag being read, with list elements as [i].
type SyntaxError struct {
	Offset int
	Path   string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d (%s)", e.Err, e.Offset, e.Path)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
