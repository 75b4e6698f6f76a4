// Package schema maps Sponge schematic tag trees to and from the canonical
// schematic model. Each supported format version is described by a Version
// record; decoding and encoding consult the record instead of branching on
// version numbers.
package schema

import (
	"fmt"

	"github.com/astei/spongeschem/schematic"
)

const (
	MinVersion    = 1
	LatestVersion = 3
)

// Version is the field layout of one format revision.
type Version struct {
	Number int

	// Nested versions use an unnamed root holding a "Schematic" compound.
	Nested bool

	// HasDataVersion reports whether DataVersion is part of the layout.
	HasDataVersion bool
	// WEOffset reports whether Metadata.WEOffsetX/Y/Z override Offset.
	WEOffset bool

	// BlockContainer names the compound holding the block fields, or "" for
	// the schematic compound itself.
	BlockContainer string
	Palette        string
	PaletteMax     string
	BlockData      string
	// ImplicitDefault reserves index 0 for palette.DefaultBlock; unassigned
	// indices resolve to it.
	ImplicitDefault bool

	BlockEntities string
	// InlineBlockEntities stores the payload beside Id and Pos instead of
	// under a Data compound.
	InlineBlockEntities bool

	BiomeShape      schematic.BiomeShape
	BiomeContainer  string
	BiomePalette    string
	BiomePaletteMax string
	BiomeData       string

	HasEntities bool

	Layout schematic.Layout
}

var versions = [...]Version{
	{
		Number:              1,
		WEOffset:            true,
		Palette:             "Palette",
		PaletteMax:          "PaletteMax",
		BlockData:           "BlockData",
		BlockEntities:       "TileEntities",
		InlineBlockEntities: true,
		BiomeShape:          schematic.NoBiomes,
		Layout:              schematic.LayoutYZX,
	},
	{
		Number:              2,
		HasDataVersion:      true,
		WEOffset:            true,
		Palette:             "Palette",
		PaletteMax:          "PaletteMax",
		BlockData:           "BlockData",
		BlockEntities:       "BlockEntities",
		InlineBlockEntities: true,
		BiomeShape:          schematic.ColumnBiomes,
		BiomePalette:        "BiomePalette",
		BiomePaletteMax:     "BiomePaletteMax",
		BiomeData:           "BiomeData",
		HasEntities:         true,
		Layout:              schematic.LayoutYZX,
	},
	{
		Number:          3,
		Nested:          true,
		HasDataVersion:  true,
		BlockContainer:  "Blocks",
		Palette:         "Palette",
		BlockData:       "Data",
		ImplicitDefault: true,
		BlockEntities:   "BlockEntities",
		BiomeShape:      schematic.VoxelBiomes,
		BiomeContainer:  "Biomes",
		BiomePalette:    "Palette",
		BiomeData:       "Data",
		HasEntities:     true,
		Layout:          schematic.LayoutYZX,
	},
}

// Lookup returns the layout for a version number. 0 is accepted as 1, since
// early writers omitted the field.
func Lookup(n int) (*Version, error) {
	if n == 0 {
		n = 1
	}
	if n < MinVersion || n > LatestVersion {
		return nil, fmt.Errorf("%w: %d (supported %d to %d)", ErrUnsupportedVersion, n, MinVersion, LatestVersion)
	}
	return &versions[n-1], nil
}

// Versions lists the supported version numbers in ascending order.
func Versions() []int {
	out := make([]int, len(versions))
	for i, v := range versions {
		out[i] = v.Number
	}
	return out
}

func (v *Version) String() string {
	return fmt.Sprintf("sponge v%d", v.Number)
}

// HasBiomes reports whether the version stores biomes at all.
func (v *Version) HasBiomes() bool {
	return v.BiomeShape != schematic.NoBiomes
}

func (v *Version) blockPath(field string) string {
	return join(v.BlockContainer, field)
}

func (v *Version) biomePath(field string) string {
	return join(v.BiomeContainer, field)
}

func join(container, field string) string {
	if container == "" {
		return field
	}
	return container + "." + field
}
