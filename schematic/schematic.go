// Package schematic holds the decoded, format-independent form of a schematic
// and the builder used to create or edit one.
package schematic

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/willf/bitset"

	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/palette"
)

const (
	// MaxDimension is the largest extent a format can store (an unsigned short).
	MaxDimension = math.MaxUint16
	// MaxVolume keeps every voxel addressable by a non-negative int32 index.
	MaxVolume = math.MaxInt32
)

var (
	ErrOutOfBounds          = errors.New("schematic: position out of bounds")
	ErrInvalidDimensions    = errors.New("schematic: invalid dimensions")
	ErrInconsistent         = errors.New("schematic: inconsistent data")
	ErrDuplicateBlockEntity = errors.New("schematic: more than one block entity at position")
	ErrIncompleteBiomes     = errors.New("schematic: biome data does not cover every voxel")
	ErrInvalidIdentifier    = errors.New("schematic: invalid identifier")
)

// Pos is a voxel position or an extent.
type Pos struct {
	X, Y, Z int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// BlockEntity is the extra data attached to one voxel, such as a chest's
// contents. Data excludes the Id and Pos keys.
type BlockEntity struct {
	Pos  Pos
	ID   string
	Data *nbt.Compound
}

// BiomeShape says how many biome entries a schematic stores.
type BiomeShape int

const (
	NoBiomes BiomeShape = iota
	// ColumnBiomes has one entry per (x, z) column.
	ColumnBiomes
	// VoxelBiomes has one entry per voxel.
	VoxelBiomes
)

func (s BiomeShape) String() string {
	switch s {
	case ColumnBiomes:
		return "column"
	case VoxelBiomes:
		return "voxel"
	}
	return "none"
}

// Parts is everything needed to assemble a Schematic. New takes ownership of
// the slices and compounds.
type Parts struct {
	Size   Pos
	Offset Pos
	Layout Layout

	Blocks    *palette.Palette
	BlockData []int32

	BiomeShape BiomeShape
	Biomes     *palette.Palette
	BiomeData  []int32

	BlockEntities []BlockEntity
	Entities      []*nbt.Compound

	Version     int
	DataVersion int32
	Metadata    *nbt.Compound
}

// Schematic is an immutable rectangular region of blocks. It is safe for
// concurrent readers.
type Schematic struct {
	size   Pos
	offset Pos
	layout Layout

	blocks    *palette.Palette
	blockData []int32

	biomeShape BiomeShape
	biomes     *palette.Palette
	biomeData  []int32

	blockEntities []BlockEntity
	entityAt      map[int]int
	entities      []*nbt.Compound

	version     int
	dataVersion int32
	metadata    *nbt.Compound
}

// ValidateSize checks that size describes a non-empty, addressable region.
func ValidateSize(size Pos) error {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return fmt.Errorf("%w: %v must be positive", ErrInvalidDimensions, size)
	}
	if size.X > MaxDimension || size.Y > MaxDimension || size.Z > MaxDimension {
		return fmt.Errorf("%w: %v exceeds %d", ErrInvalidDimensions, size, MaxDimension)
	}
	if int64(size.X)*int64(size.Y)*int64(size.Z) > MaxVolume {
		return fmt.Errorf("%w: %v has more than %d voxels", ErrInvalidDimensions, size, MaxVolume)
	}
	return nil
}

// New validates p and assembles a Schematic. Every stored index must resolve
// through its palette and every block entity must lie inside the region.
func New(p Parts) (*Schematic, error) {
	if err := ValidateSize(p.Size); err != nil {
		return nil, err
	}
	volume := p.Size.X * p.Size.Y * p.Size.Z

	if p.Blocks == nil {
		return nil, fmt.Errorf("%w: missing block palette", ErrInconsistent)
	}
	if len(p.BlockData) != volume {
		return nil, fmt.Errorf("%w: %d block indices for %d voxels", ErrInconsistent, len(p.BlockData), volume)
	}
	if err := checkIndices(p.Blocks, p.BlockData, func(i int) Pos { return p.Layout.Pos(p.Size, i) }); err != nil {
		return nil, err
	}

	switch p.BiomeShape {
	case NoBiomes:
		p.Biomes, p.BiomeData = nil, nil
	case ColumnBiomes, VoxelBiomes:
		want := volume
		posOf := func(i int) Pos { return p.Layout.Pos(p.Size, i) }
		if p.BiomeShape == ColumnBiomes {
			want = p.Size.X * p.Size.Z
			posOf = func(i int) Pos { return Pos{X: i % p.Size.X, Z: i / p.Size.X} }
		}
		if p.Biomes == nil {
			return nil, fmt.Errorf("%w: missing biome palette", ErrInconsistent)
		}
		if len(p.BiomeData) != want {
			return nil, fmt.Errorf("%w: %d biome indices for %s shape of %d", ErrInconsistent, len(p.BiomeData), p.BiomeShape, want)
		}
		if err := checkIndices(p.Biomes, p.BiomeData, posOf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown biome shape %d", ErrInconsistent, p.BiomeShape)
	}

	s := &Schematic{
		size:          p.Size,
		offset:        p.Offset,
		layout:        p.Layout,
		blocks:        p.Blocks,
		blockData:     p.BlockData,
		biomeShape:    p.BiomeShape,
		biomes:        p.Biomes,
		biomeData:     p.BiomeData,
		blockEntities: p.BlockEntities,
		entityAt:      make(map[int]int, len(p.BlockEntities)),
		entities:      p.Entities,
		version:       p.Version,
		dataVersion:   p.DataVersion,
		metadata:      p.Metadata,
	}
	if s.metadata == nil {
		s.metadata = nbt.NewCompound()
	}

	occupied := bitset.New(uint(volume))
	for i := range s.blockEntities {
		be := &s.blockEntities[i]
		if !s.Contains(be.Pos) {
			return nil, fmt.Errorf("%w: block entity %q at %v outside %v", ErrOutOfBounds, be.ID, be.Pos, s.size)
		}
		if be.Data == nil {
			be.Data = nbt.NewCompound()
		}
		idx := s.layout.Index(s.size, be.Pos)
		if occupied.Test(uint(idx)) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateBlockEntity, be.Pos)
		}
		occupied.Set(uint(idx))
		s.entityAt[idx] = i
	}
	return s, nil
}

// checkIndices confirms each distinct index resolves, reporting the first
// voxel that refers to a missing entry.
func checkIndices(p *palette.Palette, data []int32, posOf func(int) Pos) error {
	checked := bitset.New(uint(p.Len()))
	for i, v := range data {
		if v >= 0 && int(v) < p.Len() && checked.Test(uint(v)) {
			continue
		}
		if _, ok := p.Lookup(int(v)); !ok {
			return fmt.Errorf("%w: no palette entry for index %d at %v", p.Kind().Unresolved(), v, posOf(i))
		}
		if v >= 0 && int(v) < p.Len() {
			checked.Set(uint(v))
		}
	}
	return nil
}

// Dimensions returns width (X), height (Y) and length (Z).
func (s *Schematic) Dimensions() (width, height, length int) {
	return s.size.X, s.size.Y, s.size.Z
}

func (s *Schematic) Size() Pos {
	return s.size
}

func (s *Schematic) Volume() int {
	return len(s.blockData)
}

// Offset is the informational origin relative to where the region was copied.
func (s *Schematic) Offset() Pos {
	return s.offset
}

func (s *Schematic) Layout() Layout {
	return s.layout
}

// Version is the format version the schematic was read from; 0 when built.
func (s *Schematic) Version() int {
	return s.version
}

// DataVersion is the host data version tag, kept as read.
func (s *Schematic) DataVersion() int32 {
	return s.dataVersion
}

func (s *Schematic) Contains(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.Z >= 0 && p.X < s.size.X && p.Y < s.size.Y && p.Z < s.size.Z
}

// Index returns the array index of (x, y, z).
func (s *Schematic) Index(x, y, z int) (int, error) {
	p := Pos{x, y, z}
	if !s.Contains(p) {
		return 0, fmt.Errorf("%w: %v outside %v", ErrOutOfBounds, p, s.size)
	}
	return s.layout.Index(s.size, p), nil
}

// Block returns the block-state identifier at (x, y, z).
func (s *Schematic) Block(x, y, z int) (string, error) {
	i, err := s.Index(x, y, z)
	if err != nil {
		return "", err
	}
	id, _ := s.blocks.Lookup(int(s.blockData[i]))
	return id, nil
}

// BlockPalette returns the palette indexed by BlockIndex values.
func (s *Schematic) BlockPalette() *palette.Palette {
	return s.blocks
}

// BlockIndex returns the raw palette index at (x, y, z).
func (s *Schematic) BlockIndex(x, y, z int) (int32, error) {
	i, err := s.Index(x, y, z)
	if err != nil {
		return 0, err
	}
	return s.blockData[i], nil
}

// AllBlocks yields every voxel's array index and identifier in layout order.
func (s *Schematic) AllBlocks() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i, v := range s.blockData {
			id, _ := s.blocks.Lookup(int(v))
			if !yield(i, id) {
				return
			}
		}
	}
}

// Blocks yields the position and identifier of every voxel that is not
// palette.DefaultBlock. Each call starts a fresh pass.
func (s *Schematic) Blocks() iter.Seq2[Pos, string] {
	return func(yield func(Pos, string) bool) {
		for i, v := range s.blockData {
			id, _ := s.blocks.Lookup(int(v))
			if id == palette.DefaultBlock {
				continue
			}
			if !yield(s.layout.Pos(s.size, i), id) {
				return
			}
		}
	}
}

// BiomeShape reports whether biomes are stored, and at what granularity.
func (s *Schematic) BiomeShape() BiomeShape {
	return s.biomeShape
}

func (s *Schematic) BiomePalette() *palette.Palette {
	return s.biomes
}

// Biome returns the biome at (x, y, z). Column biomes ignore y once it has
// been bounds checked. A schematic without biomes returns "".
func (s *Schematic) Biome(x, y, z int) (string, error) {
	i, err := s.Index(x, y, z)
	if err != nil {
		return "", err
	}
	switch s.biomeShape {
	case ColumnBiomes:
		i = s.layout.ColumnIndex(s.size, x, z)
	case NoBiomes:
		return "", nil
	}
	id, _ := s.biomes.Lookup(int(s.biomeData[i]))
	return id, nil
}

// AllBiomes yields biome identifiers in storage order: per column for
// ColumnBiomes, per voxel for VoxelBiomes.
func (s *Schematic) AllBiomes() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i, v := range s.biomeData {
			id, _ := s.biomes.Lookup(int(v))
			if !yield(i, id) {
				return
			}
		}
	}
}

// BlockEntities returns copies of the block entities in their original order.
func (s *Schematic) BlockEntities() []BlockEntity {
	out := make([]BlockEntity, len(s.blockEntities))
	for i, be := range s.blockEntities {
		out[i] = BlockEntity{Pos: be.Pos, ID: be.ID, Data: be.Data.Clone()}
	}
	return out
}

// BlockEntity returns the block entity at (x, y, z), if any.
func (s *Schematic) BlockEntity(x, y, z int) (BlockEntity, bool, error) {
	i, err := s.Index(x, y, z)
	if err != nil {
		return BlockEntity{}, false, err
	}
	n, ok := s.entityAt[i]
	if !ok {
		return BlockEntity{}, false, nil
	}
	be := s.blockEntities[n]
	return BlockEntity{Pos: be.Pos, ID: be.ID, Data: be.Data.Clone()}, true, nil
}

// Entities returns copies of the free-standing entities.
func (s *Schematic) Entities() []*nbt.Compound {
	out := make([]*nbt.Compound, len(s.entities))
	for i, e := range s.entities {
		out[i] = e.Clone()
	}
	return out
}

// Metadata returns a copy of the metadata compound.
func (s *Schematic) Metadata() *nbt.Compound {
	return s.metadata.Clone()
}

func (s *Schematic) metadataString(name string) string {
	if v, ok := s.metadata.Get(name); ok {
		if str, ok := v.(nbt.String); ok {
			return string(str)
		}
	}
	return ""
}

// Name is Metadata.Name, or "".
func (s *Schematic) Name() string {
	return s.metadataString("Name")
}

// Author is Metadata.Author, or "".
func (s *Schematic) Author() string {
	return s.metadataString("Author")
}

// Date is Metadata.Date, stored as milliseconds since the Unix epoch.
func (s *Schematic) Date() (time.Time, bool) {
	if v, ok := s.metadata.Get("Date"); ok {
		if ms, ok := v.(nbt.Long); ok {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
	}
	return time.Time{}, false
}

// RequiredMods is Metadata.RequiredMods.
func (s *Schematic) RequiredMods() []string {
	v, ok := s.metadata.Get("RequiredMods")
	if !ok {
		return nil
	}
	list, ok := v.(*nbt.List)
	if !ok || list.Elem != nbt.TagString {
		return nil
	}
	out := make([]string, 0, list.Len())
	for _, item := range list.Items {
		out = append(out, string(item.(nbt.String)))
	}
	return out
}

// ResolveBlocks resolves the block palette through the host, returning states
// indexed like BlockPalette.
func ResolveBlocks[S any](s *Schematic, r palette.Resolver[S]) ([]S, error) {
	return palette.ResolveAll(s.blocks, r)
}
