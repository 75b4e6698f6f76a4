package schema

import (
	"fmt"

	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/palette"
	"github.com/astei/spongeschem/schematic"
	"github.com/astei/spongeschem/varint"
)

// RootName is the name of the Schematic compound, either as the root tag
// itself or nested under an unnamed root.
const RootName = "Schematic"

type decodeOptions struct {
	blocks palette.Checker
	biomes palette.Checker
}

type DecodeOption func(*decodeOptions)

// WithBlockChecker makes decoding fail with palette.ErrUnresolvedBlockState
// when the block palette names an identifier c does not know.
func WithBlockChecker(c palette.Checker) DecodeOption {
	return func(o *decodeOptions) { o.blocks = c }
}

// WithBiomeChecker is WithBlockChecker for the biome palette.
func WithBiomeChecker(c palette.Checker) DecodeOption {
	return func(o *decodeOptions) { o.biomes = c }
}

// Find locates the Schematic compound under a root tag named name.
func Find(name string, root *nbt.Compound) (*nbt.Compound, error) {
	switch name {
	case RootName:
		return root, nil
	case "":
		c, _, err := field[*nbt.Compound](root, RootName, RootName, true)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotSchematic, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: root tag is named %q", ErrNotSchematic, name)
}

// ReadVersion reads the Version field of a Schematic compound and returns its
// layout. Nothing else is inspected.
func ReadVersion(c *nbt.Compound) (*Version, error) {
	n, _, err := field[nbt.Int](c, "Version", "Version", false)
	if err != nil {
		return nil, err
	}
	v, err := Lookup(int(n))
	if err != nil {
		return nil, fieldErr("Version", err)
	}
	return v, nil
}

// Decode turns a root tag and its name into a Schematic. The version field is
// checked before any other field is interpreted. The Schematic shares
// compounds with root, so root must not be modified afterwards.
func Decode(name string, root *nbt.Compound, opts ...DecodeOption) (*schematic.Schematic, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}
	c, err := Find(name, root)
	if err != nil {
		return nil, err
	}
	v, err := ReadVersion(c)
	if err != nil {
		return nil, err
	}
	r := &reader{c: c, v: v, opts: o}
	return r.readSchematic()
}

type reader struct {
	c     *nbt.Compound
	v     *Version
	opts  decodeOptions
	parts schematic.Parts
}

func (r *reader) readSchematic() (*schematic.Schematic, error) {
	r.parts.Version = r.v.Number
	r.parts.Layout = r.v.Layout

	for _, step := range []func() error{
		r.readHeader,
		r.readOffset,
		r.readBlocks,
		r.readBlockEntities,
		r.readBiomes,
		r.readEntities,
	} {
		if err := step(); err != nil {
			return nil, err
		}
	}
	s, err := schematic.New(r.parts)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", r.v, err)
	}
	return s, nil
}

func (r *reader) readHeader() (err error) {
	var size schematic.Pos
	if size.X, err = dimension(r.c, "Width"); err != nil {
		return
	}
	if size.Y, err = dimension(r.c, "Height"); err != nil {
		return
	}
	if size.Z, err = dimension(r.c, "Length"); err != nil {
		return
	}
	if err = schematic.ValidateSize(size); err != nil {
		return fieldErr("Width/Height/Length", err)
	}
	r.parts.Size = size

	if r.v.HasDataVersion {
		dv, _, err := field[nbt.Int](r.c, "DataVersion", "DataVersion", false)
		if err != nil {
			return err
		}
		if dv < 0 {
			return fieldErr("DataVersion", fmt.Errorf("%w: %d", ErrInvalidValue, dv))
		}
		r.parts.DataVersion = int32(dv)
	}

	meta, ok, err := field[*nbt.Compound](r.c, "Metadata", "Metadata", false)
	if err != nil {
		return err
	}
	if !ok {
		meta = nbt.NewCompound()
	}
	r.parts.Metadata = meta
	return nil
}

func (r *reader) readOffset() error {
	offset, _, err := position(r.c, "Offset", "Offset", false)
	if err != nil {
		return err
	}
	if r.v.WEOffset && r.parts.Metadata.Has("WEOffsetX") {
		var we [3]nbt.Int
		for i, axis := range []string{"WEOffsetX", "WEOffsetY", "WEOffsetZ"} {
			if we[i], _, err = field[nbt.Int](r.parts.Metadata, "Metadata."+axis, axis, true); err != nil {
				return err
			}
		}
		offset = schematic.Pos{X: int(we[0]), Y: int(we[1]), Z: int(we[2])}
	}
	r.parts.Offset = offset
	return nil
}

// container returns the compound holding a group of fields.
func (r *reader) container(name string, required bool) (*nbt.Compound, bool, error) {
	if name == "" {
		return r.c, true, nil
	}
	return field[*nbt.Compound](r.c, name, name, required)
}

func (r *reader) readBlocks() error {
	blocks, _, err := r.container(r.v.BlockContainer, true)
	if err != nil {
		return err
	}
	fallback := ""
	if r.v.ImplicitDefault {
		fallback = palette.DefaultBlock
	}
	p, err := r.readPalette(palette.Blocks, blocks, r.v.blockPath(r.v.Palette), r.v.Palette, r.v.PaletteMax, fallback, r.opts.blocks)
	if err != nil {
		return err
	}
	volume := r.parts.Size.X * r.parts.Size.Y * r.parts.Size.Z
	data, err := readIndices(blocks, r.v.blockPath(r.v.BlockData), r.v.BlockData, volume)
	if err != nil {
		return err
	}
	r.parts.Blocks, r.parts.BlockData = p, data
	return nil
}

func (r *reader) readPalette(kind palette.Kind, c *nbt.Compound, path, name, maxName, fallback string, check palette.Checker) (*palette.Palette, error) {
	tag, _, err := field[*nbt.Compound](c, path, name, true)
	if err != nil {
		return nil, err
	}
	size := 0
	if maxName != "" {
		n, _, err := field[nbt.Int](c, join(pathContainer(path), maxName), maxName, false)
		if err != nil {
			return nil, err
		}
		size = int(n)
	}
	p, err := palette.Decode(kind, tag, size, fallback)
	if err != nil {
		return nil, fieldErr(path, err)
	}
	if err := p.Check(check); err != nil {
		return nil, fieldErr(path, err)
	}
	return p, nil
}

// pathContainer strips the last element of a dotted path.
func pathContainer(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return ""
}

// readIndices unpacks count varints from a ByteArray field.
func readIndices(c *nbt.Compound, path, name string, count int) ([]int32, error) {
	raw, _, err := field[nbt.ByteArray](c, path, name, true)
	if err != nil {
		return nil, err
	}
	data, err := varint.Unpack(raw, count)
	if err != nil {
		return nil, fieldErr(path, err)
	}
	return data, nil
}

func (r *reader) readBlockEntities() error {
	blocks, _, err := r.container(r.v.BlockContainer, true)
	if err != nil {
		return err
	}
	path := r.v.blockPath(r.v.BlockEntities)
	list, err := compoundList(blocks, path, r.v.BlockEntities)
	if err != nil {
		return err
	}
	r.parts.BlockEntities = make([]schematic.BlockEntity, 0, len(list))
	for i, c := range list {
		be, err := r.readBlockEntity(fmt.Sprintf("%s[%d]", path, i), c)
		if err != nil {
			return err
		}
		r.parts.BlockEntities = append(r.parts.BlockEntities, be)
	}
	return nil
}

func (r *reader) readBlockEntity(path string, c *nbt.Compound) (be schematic.BlockEntity, err error) {
	id, _, err := field[nbt.String](c, path+".Id", "Id", true)
	if err != nil {
		return
	}
	if be.Pos, _, err = position(c, path+".Pos", "Pos", true); err != nil {
		return
	}
	be.ID = string(id)

	if r.v.InlineBlockEntities {
		be.Data = nbt.NewCompound()
		for k, v := range c.All() {
			if !inlineReserved(k) {
				be.Data.Set(k, v)
			}
		}
		return
	}
	data, ok, err := field[*nbt.Compound](c, path+".Data", "Data", false)
	if err != nil {
		return
	}
	if !ok {
		data = nbt.NewCompound()
	}
	be.Data = data
	return
}

// inlineReserved lists keys an inline block entity uses for itself.
func inlineReserved(key string) bool {
	return key == "Id" || key == "Pos" || key == "ContentVersion"
}

func (r *reader) readBiomes() error {
	if !r.v.HasBiomes() {
		return nil
	}
	biomes, ok, err := r.container(r.v.BiomeContainer, false)
	if err != nil || !ok {
		return err
	}
	if !biomes.Has(r.v.BiomePalette) && !biomes.Has(r.v.BiomeData) {
		return nil
	}
	p, err := r.readPalette(palette.Biomes, biomes, r.v.biomePath(r.v.BiomePalette), r.v.BiomePalette, r.v.BiomePaletteMax, "", r.opts.biomes)
	if err != nil {
		return err
	}
	size := r.parts.Size
	count := size.X * size.Z
	if r.v.BiomeShape == schematic.VoxelBiomes {
		count *= size.Y
	}
	data, err := readIndices(biomes, r.v.biomePath(r.v.BiomeData), r.v.BiomeData, count)
	if err != nil {
		return err
	}
	r.parts.BiomeShape, r.parts.Biomes, r.parts.BiomeData = r.v.BiomeShape, p, data
	return nil
}

func (r *reader) readEntities() error {
	if !r.v.HasEntities {
		return nil
	}
	list, err := compoundList(r.c, "Entities", "Entities")
	if err != nil {
		return err
	}
	r.parts.Entities = list
	return nil
}
