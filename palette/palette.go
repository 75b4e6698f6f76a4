// Package palette maps compact integer indices to block-state or biome
// identifiers. Identifiers are stored once; voxels refer to them by index.
package palette

import (
	"errors"
	"fmt"
	"sort"

	"github.com/astei/spongeschem/nbt"
)

// DefaultBlock fills the implicit index 0 slot in formats that reserve it.
const DefaultBlock = "minecraft:air"

// MaxIndex bounds palette indices read from a file. It keeps a single hostile
// entry from forcing a huge allocation; real palettes are far smaller.
const MaxIndex = 1 << 20

var (
	ErrUnresolvedBlockState = errors.New("palette: unresolved block state")
	ErrUnresolvedBiome      = errors.New("palette: unresolved biome")
	ErrDuplicateIndex       = errors.New("palette: index claimed by more than one identifier")
	ErrInvalidEntry         = errors.New("palette: invalid entry")
)

// Kind selects which error a failed resolution reports.
type Kind int

const (
	Blocks Kind = iota
	Biomes
)

func (k Kind) String() string {
	if k == Biomes {
		return "biome"
	}
	return "block"
}

// Unresolved is the sentinel for identifiers of this kind that cannot be resolved.
func (k Kind) Unresolved() error {
	if k == Biomes {
		return ErrUnresolvedBiome
	}
	return ErrUnresolvedBlockState
}

// Palette is an immutable index to identifier table. Slots never assigned
// (holes) below Len resolve to the fallback identifier when one is set.
// Indices at or past Len never resolve.
type Palette struct {
	kind     Kind
	ids      []string
	index    map[string]int
	fallback string
}

// New builds a palette whose index i maps to ids[i]. Empty strings are holes.
// A fallback always covers index 0, even when ids is empty.
func New(kind Kind, ids []string, fallback string) (*Palette, error) {
	p := &Palette{kind: kind, ids: append([]string(nil), ids...), index: make(map[string]int, len(ids)), fallback: fallback}
	if fallback != "" && len(p.ids) == 0 {
		p.ids = []string{""}
	}
	for i, id := range p.ids {
		if id == "" {
			continue
		}
		if prev, ok := p.index[id]; ok {
			return nil, fmt.Errorf("%w: %q at %d and %d", ErrInvalidEntry, id, prev, i)
		}
		p.index[id] = i
	}
	return p, nil
}

func (p *Palette) Kind() Kind {
	return p.kind
}

// Len is one past the highest index.
func (p *Palette) Len() int {
	return len(p.ids)
}

// Fallback returns the identifier used for holes, or "" when holes are errors.
func (p *Palette) Fallback() string {
	return p.fallback
}

// Lookup returns the identifier at index i.
func (p *Palette) Lookup(i int) (string, bool) {
	if i < 0 || i >= len(p.ids) {
		return "", false
	}
	if p.ids[i] != "" {
		return p.ids[i], true
	}
	if p.fallback != "" {
		return p.fallback, true
	}
	return "", false
}

// Index returns the index assigned to id.
func (p *Palette) Index(id string) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// IDs returns the table by index; holes are empty strings.
func (p *Palette) IDs() []string {
	return append([]string(nil), p.ids...)
}

// Entries returns the number of assigned identifiers.
func (p *Palette) Entries() int {
	return len(p.index)
}

// Compound renders the palette as an identifier to Int compound in index order.
func (p *Palette) Compound() *nbt.Compound {
	c := nbt.NewCompound()
	for i, id := range p.ids {
		if id != "" {
			c.Set(id, nbt.Int(i))
		}
	}
	return c
}

// Decode inverts an identifier to Int compound into an index table. size is a
// declared minimum table length (PaletteMax); values below one are ignored.
// With a fallback, holes up to the highest assigned index resolve to it.
// Two identifiers claiming one index fail with ErrDuplicateIndex.
func Decode(kind Kind, tag *nbt.Compound, size int, fallback string) (*Palette, error) {
	type entry struct {
		id    string
		index int
	}
	entries := make([]entry, 0, tag.Len())
	maxIndex := -1
	for id, v := range tag.All() {
		n, ok := v.(nbt.Int)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q has type %s, want %s", ErrInvalidEntry, kind, id, v.Type(), nbt.TagInt)
		}
		if n < 0 || n >= MaxIndex {
			return nil, fmt.Errorf("%w: %s %q has index %d", ErrInvalidEntry, kind, id, n)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: empty %s identifier", ErrInvalidEntry, kind)
		}
		entries = append(entries, entry{id, int(n)})
		if int(n) > maxIndex {
			maxIndex = int(n)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	length := maxIndex + 1
	if size > length && size <= MaxIndex {
		length = size
	}
	if fallback != "" && length < 1 {
		length = 1
	}
	p := &Palette{kind: kind, ids: make([]string, length), index: make(map[string]int, len(entries)), fallback: fallback}
	for _, e := range entries {
		if p.ids[e.index] != "" {
			return nil, fmt.Errorf("%w: %d claimed by %q and %q", ErrDuplicateIndex, e.index, p.ids[e.index], e.id)
		}
		p.ids[e.index] = e.id
		p.index[e.id] = e.index
	}
	return p, nil
}

// Check verifies every assigned identifier (and the fallback) is known to c.
func (p *Palette) Check(c Checker) error {
	if c == nil {
		return nil
	}
	for i, id := range p.ids {
		if id != "" && !c.Known(id) {
			return fmt.Errorf("%w: %q at index %d", p.kind.Unresolved(), id, i)
		}
	}
	if p.fallback != "" && !c.Known(p.fallback) {
		return fmt.Errorf("%w: default %q", p.kind.Unresolved(), p.fallback)
	}
	return nil
}

// Builder assigns indices in first-seen order. With base 1, index 0 is
// reserved for the default identifier.
type Builder struct {
	kind     Kind
	ids      []string
	index    map[string]int
	fallback string
}

func NewBuilder(kind Kind, base int, def string) *Builder {
	b := &Builder{kind: kind, index: make(map[string]int)}
	if base > 0 {
		b.ids = make([]string, base)
		b.fallback = def
		b.index[def] = 0
	}
	return b
}

// Add returns the index of id, assigning the next free one on first sight.
func (b *Builder) Add(id string) int {
	if i, ok := b.index[id]; ok {
		if i == 0 && b.fallback == id {
			b.ids[0] = id
		}
		return i
	}
	i := len(b.ids)
	b.ids = append(b.ids, id)
	b.index[id] = i
	return i
}

// Palette freezes the builder's current state.
func (b *Builder) Palette() *Palette {
	p := &Palette{kind: b.kind, ids: append([]string(nil), b.ids...), index: make(map[string]int, len(b.ids)), fallback: b.fallback}
	for i, id := range p.ids {
		if id != "" {
			p.index[id] = i
		}
	}
	return p
}
