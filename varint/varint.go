// Package varint packs palette indices as little-endian base-128 varints, the
// layout used by schematic block and biome data arrays.
package varint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// MaxLen is the widest varint accepted: five groups of seven bits cover a
// non-negative int32.
const MaxLen = 5

var ErrMalformed = errors.New("varint: malformed varint")

// Error reports the index of the value that failed and its byte offset.
type Error struct {
	Index  int
	Offset int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: value %d at offset %d: %s", ErrMalformed, e.Index, e.Offset, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrMalformed
}

// Append appends the minimal encoding of v to dst. v must not be negative.
func Append(dst []byte, v int32) []byte {
	if v < 0 {
		panic(fmt.Sprintf("varint: negative value %d", v))
	}
	return binary.AppendUvarint(dst, uint64(v))
}

// Size returns the number of bytes Append would write for v.
func Size(v int32) int {
	n := 1
	for uv := uint32(v); uv >= 0x80; uv >>= 7 {
		n++
	}
	return n
}

// Pack encodes every value. Values must not be negative.
func Pack(values []int32) []byte {
	size := 0
	for _, v := range values {
		size += Size(v)
	}
	out := make([]byte, 0, size)
	for _, v := range values {
		out = Append(out, v)
	}
	return out
}

// Unpack decodes exactly count values from data. Bytes after the last value
// are not examined.
func Unpack(data []byte, count int) ([]int32, error) {
	if count < 0 {
		return nil, fmt.Errorf("varint: negative count %d", count)
	}
	// Every value takes at least one byte, so a short input fails within
	// len(data)+1 values. Find that value before allocating.
	if count > len(data) {
		r := NewReader(data)
		for {
			if _, err := r.Next(); err != nil {
				return nil, err
			}
		}
	}
	out := make([]int32, count)
	r := NewReader(data)
	for i := range out {
		v, err := r.Next()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Reader decodes values one at a time without materialising the whole array.
type Reader struct {
	data  []byte
	off   int
	index int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Next decodes the next value.
func (r *Reader) Next() (int32, error) {
	rest := r.data[r.off:]
	if len(rest) > MaxLen {
		rest = rest[:MaxLen]
	}
	v, n := binary.Uvarint(rest)
	switch {
	case len(rest) == 0:
		return 0, &Error{Index: r.index, Offset: r.off, Reason: "no bytes left"}
	case n == 0 && len(rest) == MaxLen:
		return 0, &Error{Index: r.index, Offset: r.off, Reason: "continuation chain longer than 5 bytes"}
	case n == 0:
		return 0, &Error{Index: r.index, Offset: r.off, Reason: "input ended mid-value"}
	case n < 0:
		return 0, &Error{Index: r.index, Offset: r.off, Reason: "value overflows"}
	case v > math.MaxInt32:
		return 0, &Error{Index: r.index, Offset: r.off, Reason: "value exceeds int32"}
	}
	r.off += n
	r.index++
	return int32(v), nil
}
