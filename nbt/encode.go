package nbt

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// Marshal encodes a named root compound without compression.
func Marshal(name string, root *Compound) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(name, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type Encoder struct {
	w       io.Writer
	scratch [8]byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes root as a named compound. List element types are checked
// against their declared type; a mismatch fails with ErrListType.
func (e *Encoder) Encode(name string, root *Compound) error {
	if root == nil {
		root = NewCompound()
	}
	if err := e.writeTag(TagCompound, name); err != nil {
		return err
	}
	return e.writeCompound(root)
}

func (e *Encoder) writePayload(v Tag) error {
	switch val := v.(type) {
	case Byte:
		return e.writeByte(byte(val))

	case Short:
		return e.writeInt16(int16(val))

	case Int:
		return e.writeInt32(int32(val))

	case Long:
		return e.writeInt64(int64(val))

	case Float:
		return e.writeInt32(int32(math.Float32bits(float32(val))))

	case Double:
		return e.writeInt64(int64(math.Float64bits(float64(val))))

	case String:
		return e.writeString(string(val))

	case ByteArray:
		if err := e.writeInt32(int32(len(val))); err != nil {
			return err
		}
		_, err := e.w.Write(val)
		return err

	case IntArray:
		if err := e.writeInt32(int32(len(val))); err != nil {
			return err
		}
		for _, n := range val {
			if err := e.writeInt32(n); err != nil {
				return err
			}
		}
		return nil

	case LongArray:
		if err := e.writeInt32(int32(len(val))); err != nil {
			return err
		}
		for _, n := range val {
			if err := e.writeInt64(n); err != nil {
				return err
			}
		}
		return nil

	case *List:
		return e.writeList(val)

	case *Compound:
		return e.writeCompound(val)
	}
	return fmt.Errorf("%w: cannot encode %T", ErrUnknownTag, v)
}

func (e *Encoder) writeList(l *List) error {
	if !l.Elem.valid() {
		return fmt.Errorf("%w: list declares %s", ErrUnknownTag, l.Elem)
	}
	if l.Elem == TagEnd && len(l.Items) > 0 {
		return fmt.Errorf("%w: non-empty list declares %s", ErrListType, TagEnd)
	}
	if err := e.writeNamelessTag(l.Elem); err != nil {
		return err
	}
	if err := e.writeInt32(int32(len(l.Items))); err != nil {
		return err
	}
	for i, item := range l.Items {
		if item == nil || item.Type() != l.Elem {
			return fmt.Errorf("%w: element %d of list of %s", ErrListType, i, l.Elem)
		}
		if err := e.writePayload(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeCompound(c *Compound) error {
	for name, v := range c.All() {
		if v == nil {
			return fmt.Errorf("nbt: nil value for %q", name)
		}
		if err := e.writeTag(v.Type(), name); err != nil {
			return err
		}
		if err := e.writePayload(v); err != nil {
			return err
		}
	}
	return e.writeByte(byte(TagEnd))
}

func (e *Encoder) writeTag(tagType TagType, tagName string) error {
	if err := e.writeNamelessTag(tagType); err != nil {
		return err
	}
	return e.writeString(tagName)
}

func (e *Encoder) writeNamelessTag(tagType TagType) error {
	return e.writeByte(byte(tagType))
}

func (e *Encoder) writeString(s string) error {
	if len(s) > math.MaxUint16 {
		return ErrStringTooLong
	}
	if err := e.writeInt16(int16(uint16(len(s)))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) writeByte(b byte) error {
	e.scratch[0] = b
	_, err := e.w.Write(e.scratch[:1])
	return err
}

func (e *Encoder) writeInt16(n int16) error {
	e.scratch[0], e.scratch[1] = byte(n>>8), byte(n)
	_, err := e.w.Write(e.scratch[:2])
	return err
}

func (e *Encoder) writeInt32(n int32) error {
	e.scratch[0], e.scratch[1], e.scratch[2], e.scratch[3] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	_, err := e.w.Write(e.scratch[:4])
	return err
}

func (e *Encoder) writeInt64(n int64) error {
	e.scratch = [8]byte{
		byte(n >> 56), byte(n >> 48), byte(n >> 40), byte(n >> 32),
		byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	_, err := e.w.Write(e.scratch[:])
	return err
}
