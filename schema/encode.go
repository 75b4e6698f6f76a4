package schema

import (
	"fmt"
	"iter"

	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/palette"
	"github.com/astei/spongeschem/schematic"
	"github.com/astei/spongeschem/varint"
)

// Dropped field names reported when the target version cannot hold them.
const (
	DropDataVersion    = "DataVersion"
	DropBiomes         = "Biomes"
	DropVerticalBiomes = "biomes.vertical"
	DropEntities       = "Entities"
)

// Report lists what an encode had to leave out. It is never an error: the
// caller picked a version that lacks the fields.
type Report struct {
	Version int
	Dropped []string
}

// Lossless reports whether everything in the schematic was written.
func (r *Report) Lossless() bool {
	return len(r.Dropped) == 0
}

func (r *Report) drop(field string) {
	r.Dropped = append(r.Dropped, field)
}

// Encode lays s out in the given version. It returns the root tag name and
// compound ready for nbt.Marshal, plus a report of dropped fields.
func Encode(s *schematic.Schematic, version int) (name string, root *nbt.Compound, report *Report, err error) {
	v, err := Lookup(version)
	if err != nil {
		return "", nil, nil, err
	}
	w := &writer{s: s, v: v, c: nbt.NewCompound(), report: &Report{Version: v.Number}}
	if err = w.writeSchematic(); err != nil {
		return "", nil, nil, err
	}
	if v.Nested {
		root = nbt.NewCompound()
		root.Set(RootName, w.c)
		return "", root, w.report, nil
	}
	return RootName, w.c, w.report, nil
}

type writer struct {
	s      *schematic.Schematic
	v      *Version
	c      *nbt.Compound
	report *Report
}

func (w *writer) writeSchematic() (err error) {
	if err = w.writeHeader(); err != nil {
		return
	}
	if err = w.writeBlocks(); err != nil {
		return
	}
	if err = w.writeBlockEntities(); err != nil {
		return
	}
	if err = w.writeBiomes(); err != nil {
		return
	}
	return w.writeEntities()
}

func (w *writer) writeHeader() error {
	w.c.Set("Version", nbt.Int(w.v.Number))
	if w.v.HasDataVersion {
		w.c.Set("DataVersion", nbt.Int(w.s.DataVersion()))
	} else if w.s.DataVersion() != 0 {
		w.report.drop(DropDataVersion)
	}

	meta := w.s.Metadata()
	if w.v.WEOffset && meta.Has("WEOffsetX") {
		// Readers prefer these over Offset, so keep them in step with it.
		off := w.s.Offset()
		meta.Set("WEOffsetX", nbt.Int(off.X))
		meta.Set("WEOffsetY", nbt.Int(off.Y))
		meta.Set("WEOffsetZ", nbt.Int(off.Z))
	}
	if meta.Len() > 0 {
		w.c.Set("Metadata", meta)
	}

	width, height, length := w.s.Dimensions()
	w.c.Set("Width", nbt.Short(uint16(width)))
	w.c.Set("Height", nbt.Short(uint16(height)))
	w.c.Set("Length", nbt.Short(uint16(length)))
	w.c.Set("Offset", positionTag(w.s.Offset()))
	return nil
}

// container returns the compound a group of fields is written to, creating
// and attaching it on first use.
func (w *writer) container(name string) *nbt.Compound {
	if name == "" {
		return w.c
	}
	if t, ok := w.c.Get(name); ok {
		return t.(*nbt.Compound)
	}
	c := nbt.NewCompound()
	w.c.Set(name, c)
	return c
}

// packed rebuilds a palette in first-seen order and packs the matching
// indices.
func packed(kind palette.Kind, base int, ids iter.Seq2[int, string]) (*palette.Palette, []byte) {
	b := palette.NewBuilder(kind, base, palette.DefaultBlock)
	var out []byte
	for _, id := range ids {
		out = varint.Append(out, int32(b.Add(id)))
	}
	return b.Palette(), out
}

func (w *writer) writeBlocks() error {
	base := 0
	if w.v.ImplicitDefault {
		base = 1
	}
	p, data := packed(palette.Blocks, base, w.s.AllBlocks())

	c := w.container(w.v.BlockContainer)
	if w.v.PaletteMax != "" {
		c.Set(w.v.PaletteMax, nbt.Int(p.Len()))
	}
	c.Set(w.v.Palette, p.Compound())
	c.Set(w.v.BlockData, nbt.ByteArray(data))
	return nil
}

func (w *writer) writeBlockEntities() error {
	path := w.v.blockPath(w.v.BlockEntities)
	list := nbt.NewList(nbt.TagCompound)
	for i, be := range w.s.BlockEntities() {
		c := nbt.NewCompound()
		c.Set("Id", nbt.String(be.ID))
		c.Set("Pos", positionTag(be.Pos))
		if w.v.InlineBlockEntities {
			for k, v := range be.Data.All() {
				if inlineReserved(k) {
					return fieldErr(fmt.Sprintf("%s[%d]", path, i), fmt.Errorf("%w: %q", ErrReservedKey, k))
				}
				c.Set(k, v)
			}
		} else {
			c.Set("Data", be.Data)
		}
		list.Items = append(list.Items, c)
	}
	// Written even when empty: WorldEdit rejects files without it.
	w.container(w.v.BlockContainer).Set(w.v.BlockEntities, list)
	return nil
}

func (w *writer) writeBiomes() error {
	shape := w.s.BiomeShape()
	if shape == schematic.NoBiomes {
		return nil
	}
	if !w.v.HasBiomes() {
		w.report.drop(DropBiomes)
		return nil
	}

	var ids iter.Seq2[int, string]
	switch w.v.BiomeShape {
	case schematic.ColumnBiomes:
		ids = w.columnBiomes()
	case schematic.VoxelBiomes:
		ids = w.voxelBiomes()
	}
	p, data := packed(palette.Biomes, 0, ids)

	c := w.container(w.v.BiomeContainer)
	if w.v.BiomePaletteMax != "" {
		c.Set(w.v.BiomePaletteMax, nbt.Int(p.Len()))
	}
	c.Set(w.v.BiomePalette, p.Compound())
	c.Set(w.v.BiomeData, nbt.ByteArray(data))
	return nil
}

// columnBiomes yields the y=0 biome of each column and reports a drop if any
// column varies with height.
func (w *writer) columnBiomes() iter.Seq2[int, string] {
	width, height, length := w.s.Dimensions()
	return func(yield func(int, string) bool) {
		vertical := false
		for z := 0; z < length; z++ {
			for x := 0; x < width; x++ {
				id, _ := w.s.Biome(x, 0, z)
				for y := 1; y < height && !vertical && w.s.BiomeShape() == schematic.VoxelBiomes; y++ {
					if other, _ := w.s.Biome(x, y, z); other != id {
						vertical = true
					}
				}
				if !yield(x+z*width, id) {
					return
				}
			}
		}
		if vertical {
			w.report.drop(DropVerticalBiomes)
		}
	}
}

// voxelBiomes yields one biome per voxel in the version's layout.
func (w *writer) voxelBiomes() iter.Seq2[int, string] {
	size := w.s.Size()
	return func(yield func(int, string) bool) {
		for i := 0; i < w.s.Volume(); i++ {
			p := w.v.Layout.Pos(size, i)
			id, _ := w.s.Biome(p.X, p.Y, p.Z)
			if !yield(i, id) {
				return
			}
		}
	}
}

func (w *writer) writeEntities() error {
	entities := w.s.Entities()
	if len(entities) == 0 {
		return nil
	}
	if !w.v.HasEntities {
		w.report.drop(DropEntities)
		return nil
	}
	list := nbt.NewList(nbt.TagCompound)
	for _, e := range entities {
		list.Items = append(list.Items, e)
	}
	w.c.Set("Entities", list)
	return nil
}
