package schematic

import (
	"fmt"
	"time"

	"github.com/willf/bitset"

	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/palette"
)

// Builder assembles a Schematic voxel by voxel. Identifiers are interned in
// an arena and voxels hold arena indices; Build drops unused identifiers and
// renumbers the rest densely in first-seen order.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	size   Pos
	offset Pos

	blockIDs   []string
	blockIndex map[string]int32
	blocks     []int32

	biomeIDs   []string
	biomeIndex map[string]int32
	biomes     []int32
	biomeSet   *bitset.BitSet

	blockEntities []BlockEntity
	entityAt      map[int]int
	entities      []*nbt.Compound

	dataVersion int32
	metadata    *nbt.Compound
}

// NewBuilder starts an empty region filled with palette.DefaultBlock.
func NewBuilder(width, height, length int) (*Builder, error) {
	size := Pos{width, height, length}
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	volume := width * height * length
	return &Builder{
		size:       size,
		blockIDs:   []string{palette.DefaultBlock},
		blockIndex: map[string]int32{palette.DefaultBlock: 0},
		blocks:     make([]int32, volume),
		biomeIndex: make(map[string]int32),
		biomeSet:   bitset.New(uint(volume)),
		entityAt:   make(map[int]int),
		metadata:   nbt.NewCompound(),
	}, nil
}

// NewBuilderFrom starts a builder holding a copy of s. Column biomes are
// expanded to one entry per voxel.
func NewBuilderFrom(s *Schematic) (*Builder, error) {
	b, err := NewBuilder(s.size.X, s.size.Y, s.size.Z)
	if err != nil {
		return nil, err
	}
	b.offset = s.offset
	b.dataVersion = s.dataVersion
	b.metadata = s.metadata.Clone()
	b.entities = s.Entities()

	for i, v := range s.blockData {
		id, _ := s.blocks.Lookup(int(v))
		b.blocks[i] = b.internBlock(id)
	}
	if s.biomeShape != NoBiomes {
		for i := range s.blockData {
			p := s.layout.Pos(s.size, i)
			id, _ := s.Biome(p.X, p.Y, p.Z)
			b.setBiomeAt(b.index(p), id)
		}
	}
	for _, be := range s.BlockEntities() {
		if err := b.AddBlockEntity(be.Pos, be.ID, be.Data); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (b *Builder) index(p Pos) int {
	return LayoutYZX.Index(b.size, p)
}

func (b *Builder) check(p Pos) error {
	if p.X < 0 || p.Y < 0 || p.Z < 0 || p.X >= b.size.X || p.Y >= b.size.Y || p.Z >= b.size.Z {
		return fmt.Errorf("%w: %v outside %v", ErrOutOfBounds, p, b.size)
	}
	return nil
}

func (b *Builder) internBlock(id string) int32 {
	if i, ok := b.blockIndex[id]; ok {
		return i
	}
	i := int32(len(b.blockIDs))
	b.blockIDs = append(b.blockIDs, id)
	b.blockIndex[id] = i
	return i
}

func (b *Builder) setBiomeAt(i int, id string) {
	n, ok := b.biomeIndex[id]
	if !ok {
		n = int32(len(b.biomeIDs))
		b.biomeIDs = append(b.biomeIDs, id)
		b.biomeIndex[id] = n
	}
	if b.biomes == nil {
		b.biomes = make([]int32, len(b.blocks))
	}
	b.biomes[i] = n
	b.biomeSet.Set(uint(i))
}

// Size returns the builder's extent.
func (b *Builder) Size() Pos {
	return b.size
}

// SetBlock places the block-state identifier id at (x, y, z).
func (b *Builder) SetBlock(x, y, z int, id string) error {
	p := Pos{x, y, z}
	if err := b.check(p); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: empty block state at %v", ErrInvalidIdentifier, p)
	}
	b.blocks[b.index(p)] = b.internBlock(id)
	return nil
}

// Block returns the identifier currently at (x, y, z).
func (b *Builder) Block(x, y, z int) (string, error) {
	p := Pos{x, y, z}
	if err := b.check(p); err != nil {
		return "", err
	}
	return b.blockIDs[b.blocks[b.index(p)]], nil
}

// SetState places a host state, identified through r.
func SetState[S any](b *Builder, x, y, z int, state S, r palette.Resolver[S]) error {
	id, ok := r.Identify(state)
	if !ok {
		return fmt.Errorf("%w: no identifier for state %v at %v", palette.ErrUnresolvedBlockState, state, Pos{x, y, z})
	}
	return b.SetBlock(x, y, z, id)
}

// SetBiome sets the biome of one voxel. Once any biome is set, Build requires
// every voxel to have one.
func (b *Builder) SetBiome(x, y, z int, id string) error {
	p := Pos{x, y, z}
	if err := b.check(p); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: empty biome at %v", ErrInvalidIdentifier, p)
	}
	b.setBiomeAt(b.index(p), id)
	return nil
}

// FillBiome sets the biome of every voxel.
func (b *Builder) FillBiome(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty biome", ErrInvalidIdentifier)
	}
	for i := range b.blocks {
		b.setBiomeAt(i, id)
	}
	return nil
}

// AddBlockEntity attaches data to the voxel at pos, replacing any block
// entity already there. data is copied.
func (b *Builder) AddBlockEntity(pos Pos, id string, data *nbt.Compound) error {
	if err := b.check(pos); err != nil {
		return fmt.Errorf("block entity %q: %w", id, err)
	}
	if id == "" {
		return fmt.Errorf("%w: empty block entity id at %v", ErrInvalidIdentifier, pos)
	}
	if data == nil {
		data = nbt.NewCompound()
	}
	be := BlockEntity{Pos: pos, ID: id, Data: data.Clone()}
	i := b.index(pos)
	if n, ok := b.entityAt[i]; ok {
		b.blockEntities[n] = be
		return nil
	}
	b.entityAt[i] = len(b.blockEntities)
	b.blockEntities = append(b.blockEntities, be)
	return nil
}

// AddEntity appends a free-standing entity. e is copied.
func (b *Builder) AddEntity(e *nbt.Compound) {
	b.entities = append(b.entities, e.Clone())
}

func (b *Builder) SetOffset(p Pos) {
	b.offset = p
}

func (b *Builder) SetDataVersion(v int32) {
	b.dataVersion = v
}

// SetMetadata replaces the metadata compound with a copy of m.
func (b *Builder) SetMetadata(m *nbt.Compound) {
	if m == nil {
		m = nbt.NewCompound()
	}
	b.metadata = m.Clone()
}

func (b *Builder) SetName(name string) {
	b.metadata.Set("Name", nbt.String(name))
}

func (b *Builder) SetAuthor(author string) {
	b.metadata.Set("Author", nbt.String(author))
}

func (b *Builder) SetDate(t time.Time) {
	b.metadata.Set("Date", nbt.Long(t.UnixMilli()))
}

// Build validates the builder and freezes it into a Schematic. The builder
// stays usable; later changes do not affect the result.
func (b *Builder) Build() (*Schematic, error) {
	blocks, blockData := compact(palette.Blocks, b.blockIDs, b.blocks)

	parts := Parts{
		Size:          b.size,
		Offset:        b.offset,
		Layout:        LayoutYZX,
		Blocks:        blocks,
		BlockData:     blockData,
		BlockEntities: make([]BlockEntity, len(b.blockEntities)),
		Entities:      make([]*nbt.Compound, len(b.entities)),
		DataVersion:   b.dataVersion,
		Metadata:      b.metadata.Clone(),
	}
	switch set := b.biomeSet.Count(); {
	case set == 0:
		parts.BiomeShape = NoBiomes
	case set == uint(len(b.blocks)):
		parts.BiomeShape = VoxelBiomes
		parts.Biomes, parts.BiomeData = compact(palette.Biomes, b.biomeIDs, b.biomes)
	default:
		return nil, fmt.Errorf("%w: %d of %d voxels have a biome", ErrIncompleteBiomes, set, len(b.blocks))
	}
	for i, be := range b.blockEntities {
		parts.BlockEntities[i] = BlockEntity{Pos: be.Pos, ID: be.ID, Data: be.Data.Clone()}
	}
	for i, e := range b.entities {
		parts.Entities[i] = e.Clone()
	}
	return New(parts)
}

// compact renumbers the arena indices in data so that only identifiers that
// occur are kept, numbered from 0 in the order they first occur.
func compact(kind palette.Kind, ids []string, data []int32) (*palette.Palette, []int32) {
	seen := bitset.New(uint(len(ids)))
	remap := make([]int32, len(ids))
	pb := palette.NewBuilder(kind, 0, "")
	out := make([]int32, len(data))
	for i, v := range data {
		if !seen.Test(uint(v)) {
			seen.Set(uint(v))
			remap[v] = int32(pb.Add(ids[v]))
		}
		out[i] = remap[v]
	}
	return pb.Palette(), out
}
