package nbt

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// MaxDepth bounds compound/list nesting so hostile input cannot exhaust the stack.
const MaxDepth = 512

// DefaultMaxTags bounds how many tags Unmarshal materialises. An empty
// compound in a list costs one input byte but several dozen bytes of memory,
// so input length alone does not bound allocation.
const DefaultMaxTags = 1 << 21

// Unmarshal decodes an uncompressed tag tree whose root must be a named
// compound. It returns the root name and value.
func Unmarshal(data []byte) (name string, root *Compound, err error) {
	return UnmarshalLimit(data, DefaultMaxTags)
}

// UnmarshalLimit is Unmarshal with a custom tag budget. Every list element
// and compound entry counts as one tag; exceeding maxTags fails with
// ErrTooManyTags. maxTags <= 0 removes the bound.
func UnmarshalLimit(data []byte, maxTags int) (name string, root *Compound, err error) {
	d := &decoder{buf: data, tags: maxTags}
	if maxTags <= 0 {
		d.tags = math.MaxInt
	}
	return d.decodeRoot()
}

type decoder struct {
	buf   []byte
	off   int
	depth int
	tags  int
	path  []string
}

// charge takes n tags from the budget before they are allocated.
func (d *decoder) charge(n int) error {
	if n > d.tags {
		return d.fail(ErrTooManyTags)
	}
	d.tags -= n
	return nil
}

func (d *decoder) fail(err error) error {
	return &SyntaxError{Offset: d.off, Path: d.pathString(), Err: err}
}

func (d *decoder) pathString() string {
	var b strings.Builder
	for _, p := range d.path {
		if b.Len() > 0 && !strings.HasPrefix(p, "[") {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, d.fail(ErrInvalidLength)
	}
	if d.remaining() < n {
		return nil, d.fail(ErrTruncated)
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) decodeRoot() (string, *Compound, error) {
	tt, err := d.readType()
	if err != nil {
		return "", nil, err
	}
	if tt != TagCompound {
		return "", nil, d.fail(ErrNotCompound)
	}
	name, err := d.readString()
	if err != nil {
		return "", nil, err
	}
	d.path = append(d.path, name)
	c, err := d.readCompound()
	if err != nil {
		return "", nil, err
	}
	d.path = d.path[:0]
	return name, c, nil
}

func (d *decoder) readType() (TagType, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	tt := TagType(b[0])
	if !tt.valid() {
		d.off--
		return 0, d.fail(ErrUnknownTag)
	}
	return tt, nil
}

func (d *decoder) readUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *decoder) readInt32() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (d *decoder) readInt64() (int64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (d *decoder) readString() (string, error) {
	n, err := d.readUint16()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readCount reads an array or list length and checks that count elements of
// at least elemSize bytes each can still fit in the input.
func (d *decoder) readCount(elemSize int) (int, error) {
	n, err := d.readInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		d.off -= 4
		return 0, d.fail(ErrInvalidLength)
	}
	if elemSize > 0 && int64(n)*int64(elemSize) > int64(d.remaining()) {
		return 0, d.fail(ErrTruncated)
	}
	return int(n), nil
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > MaxDepth {
		return d.fail(ErrTooDeep)
	}
	return nil
}

func (d *decoder) readPayload(tt TagType) (Tag, error) {
	switch tt {
	case TagByte:
		b, err := d.take(1)
		if err != nil {
			return nil, err
		}
		return Byte(int8(b[0])), nil

	case TagShort:
		v, err := d.readUint16()
		return Short(int16(v)), err

	case TagInt:
		v, err := d.readInt32()
		return Int(v), err

	case TagLong:
		v, err := d.readInt64()
		return Long(v), err

	case TagFloat:
		v, err := d.readInt32()
		return Float(math.Float32frombits(uint32(v))), err

	case TagDouble:
		v, err := d.readInt64()
		return Double(math.Float64frombits(uint64(v))), err

	case TagString:
		s, err := d.readString()
		return String(s), err

	case TagByteArray:
		n, err := d.readCount(1)
		if err != nil {
			return nil, err
		}
		b, err := d.take(n)
		if err != nil {
			return nil, err
		}
		return append(ByteArray(nil), b...), nil

	case TagIntArray:
		n, err := d.readCount(4)
		if err != nil {
			return nil, err
		}
		out := make(IntArray, n)
		for i := range out {
			if out[i], err = d.readInt32(); err != nil {
				return nil, err
			}
		}
		return out, nil

	case TagLongArray:
		n, err := d.readCount(8)
		if err != nil {
			return nil, err
		}
		out := make(LongArray, n)
		for i := range out {
			if out[i], err = d.readInt64(); err != nil {
				return nil, err
			}
		}
		return out, nil

	case TagList:
		return d.readList()

	case TagCompound:
		return d.readCompound()
	}
	return nil, d.fail(ErrUnknownTag)
}

func (d *decoder) readList() (*List, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	elem, err := d.readType()
	if err != nil {
		return nil, err
	}
	n, err := d.readCount(elem.minPayload())
	if err != nil {
		return nil, err
	}
	if elem == TagEnd && n > 0 {
		return nil, d.fail(ErrListType)
	}
	if err := d.charge(n); err != nil {
		return nil, err
	}
	l := &List{Elem: elem, Items: make([]Tag, n)}
	for i := range l.Items {
		d.path = append(d.path, "["+strconv.Itoa(i)+"]")
		if l.Items[i], err = d.readPayload(elem); err != nil {
			return nil, err
		}
		d.path = d.path[:len(d.path)-1]
	}
	return l, nil
}

func (d *decoder) readCompound() (*Compound, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	c := NewCompound()
	for {
		tt, err := d.readType()
		if err != nil {
			return nil, err
		}
		if tt == TagEnd {
			return c, nil
		}
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		if err := d.charge(1); err != nil {
			return nil, err
		}
		d.path = append(d.path, name)
		v, err := d.readPayload(tt)
		if err != nil {
			return nil, err
		}
		d.path = d.path[:len(d.path)-1]
		c.Set(name, v)
	}
}
