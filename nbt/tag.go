package nbt

import (
	"fmt"
	"iter"
	"math"
)

// TagType is the one-byte type marker that precedes every tag payload.
type TagType byte

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

var tagNames = [...]string{
	TagEnd:       "TAG_End",
	TagByte:      "TAG_Byte",
	TagShort:     "TAG_Short",
	TagInt:       "TAG_Int",
	TagLong:      "TAG_Long",
	TagFloat:     "TAG_Float",
	TagDouble:    "TAG_Double",
	TagByteArray: "TAG_Byte_Array",
	TagString:    "TAG_String",
	TagList:      "TAG_List",
	TagCompound:  "TAG_Compound",
	TagIntArray:  "TAG_Int_Array",
	TagLongArray: "TAG_Long_Array",
}

func (t TagType) String() string {
	if t.valid() {
		return tagNames[t]
	}
	return fmt.Sprintf("TAG_Unknown(%d)", byte(t))
}

func (t TagType) valid() bool {
	return t <= TagLongArray
}

// minPayload is the smallest number of bytes a payload of this type can occupy.
// It bounds list counts against the remaining input before anything is allocated.
func (t TagType) minPayload() int {
	switch t {
	case TagByte, TagCompound:
		return 1
	case TagShort, TagString:
		return 2
	case TagInt, TagFloat, TagByteArray, TagIntArray:
		return 4
	case TagLong, TagDouble:
		return 8
	case TagList:
		return 5
	case TagLongArray:
		return 4
	}
	return 0
}

// Tag is a single node of a tag tree. The concrete type is selected by Type.
type Tag interface {
	Type() TagType
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	String    string
	ByteArray []byte
	IntArray  []int32
	LongArray []int64
)

func (Byte) Type() TagType      { return TagByte }
func (Short) Type() TagType     { return TagShort }
func (Int) Type() TagType       { return TagInt }
func (Long) Type() TagType      { return TagLong }
func (Float) Type() TagType     { return TagFloat }
func (Double) Type() TagType    { return TagDouble }
func (String) Type() TagType    { return TagString }
func (ByteArray) Type() TagType { return TagByteArray }
func (IntArray) Type() TagType  { return TagIntArray }
func (LongArray) Type() TagType { return TagLongArray }

// List is a homogeneous sequence of headerless payloads. Elem is written once
// in the list header; an empty list still carries it (usually TagEnd).
type List struct {
	Elem  TagType
	Items []Tag
}

func (*List) Type() TagType { return TagList }

// NewList creates an empty list declaring the given element type.
func NewList(elem TagType, items ...Tag) *List {
	return &List{Elem: elem, Items: items}
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.Items)
}

// Append adds a value, returning ErrListType if its type differs from Elem.
// Appending to an empty TagEnd list adopts the value's type.
func (l *List) Append(v Tag) error {
	if len(l.Items) == 0 && l.Elem == TagEnd {
		l.Elem = v.Type()
	}
	if v.Type() != l.Elem {
		return fmt.Errorf("%w: cannot append %s to list of %s", ErrListType, v.Type(), l.Elem)
	}
	l.Items = append(l.Items, v)
	return nil
}

// Compound is a map of names to tags that remembers insertion order so that an
// unmodified tree re-encodes to the same bytes it was decoded from.
type Compound struct {
	names  []string
	values map[string]Tag
}

func (*Compound) Type() TagType { return TagCompound }

// NewCompound returns an empty compound. Its map is made on the first Set.
func NewCompound() *Compound {
	return &Compound{}
}

// Set stores v under name. Replacing an existing name keeps its position.
func (c *Compound) Set(name string, v Tag) {
	if c.values == nil {
		c.values = make(map[string]Tag)
	}
	if _, ok := c.values[name]; !ok {
		c.names = append(c.names, name)
	}
	c.values[name] = v
}

func (c *Compound) Get(name string) (Tag, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[name]
	return v, ok
}

func (c *Compound) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Delete removes name, preserving the order of the remaining entries.
func (c *Compound) Delete(name string) {
	if _, ok := c.values[name]; !ok {
		return
	}
	delete(c.values, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i:i], c.names[i+1:]...)
			break
		}
	}
}

func (c *Compound) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns the keys in insertion order.
func (c *Compound) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.names...)
}

// All iterates over the entries in insertion order.
func (c *Compound) All() iter.Seq2[string, Tag] {
	return func(yield func(string, Tag) bool) {
		if c == nil {
			return
		}
		for _, n := range c.names {
			if !yield(n, c.values[n]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (c *Compound) Clone() *Compound {
	if c == nil {
		return nil
	}
	return Clone(c).(*Compound)
}

// Clone deep-copies any tag.
func Clone(t Tag) Tag {
	switch v := t.(type) {
	case ByteArray:
		return append(ByteArray(nil), v...)
	case IntArray:
		return append(IntArray(nil), v...)
	case LongArray:
		return append(LongArray(nil), v...)
	case *List:
		out := &List{Elem: v.Elem, Items: make([]Tag, len(v.Items))}
		for i, item := range v.Items {
			out.Items[i] = Clone(item)
		}
		return out
	case *Compound:
		out := &Compound{names: append([]string(nil), v.names...)}
		if len(v.values) > 0 {
			out.values = make(map[string]Tag, len(v.values))
		}
		for name, item := range v.values {
			out.values[name] = Clone(item)
		}
		return out
	}
	return t
}

// Equal reports structural equality, including list element types and compound
// key order. Floating point values compare by bit pattern, so equal trees
// encode to equal bytes.
func Equal(a, b Tag) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case ByteArray:
		return string(av) == string(b.(ByteArray))
	case IntArray:
		bv := b.(IntArray)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case LongArray:
		bv := b.(LongArray)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case *List:
		bv := b.(*List)
		if av.Elem != bv.Elem || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *Compound:
		bv := b.(*Compound)
		if av.Len() != bv.Len() {
			return false
		}
		for i, name := range av.names {
			if bv.names[i] != name || !Equal(av.values[name], bv.values[name]) {
				return false
			}
		}
		return true
	case Float:
		return math.Float32bits(float32(av)) == math.Float32bits(float32(b.(Float)))
	case Double:
		return math.Float64bits(float64(av)) == math.Float64bits(float64(b.(Double)))
	}
	return a == b
}
