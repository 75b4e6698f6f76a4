package schematic

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/palette"
)

// checkerboard builds the 2x2x2 region with "A" where x+y+z is even and "B"
// elsewhere.
func checkerboard(t *testing.T) *Schematic {
	t.Helper()
	b, err := NewBuilder(2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 2; y++ {
		for z := 0; z < 2; z++ {
			for x := 0; x < 2; x++ {
				id := "B"
				if (x+y+z)%2 == 0 {
					id = "A"
				}
				if err := b.SetBlock(x, y, z, id); err != nil {
					t.Fatal(err)
				}
			}
		}
	}
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestLayoutInverse(t *testing.T) {
	dims := Pos{3, 4, 5}
	for i := 0; i < 60; i++ {
		p := LayoutYZX.Pos(dims, i)
		if got := LayoutYZX.Index(dims, p); got != i {
			t.Fatalf("Index(Pos(%d)) = %d (pos %v)", i, got, p)
		}
	}
	if got := LayoutYZX.Index(dims, Pos{1, 2, 3}); got != 1+3*3+2*3*5 {
		t.Errorf("Index = %d", got)
	}
}

func TestCheckerboardPalette(t *testing.T) {
	s := checkerboard(t)
	if diff := cmp.Diff([]string{"A", "B"}, s.BlockPalette().IDs()); diff != "" {
		t.Errorf("palette (-want +got):\n%s", diff)
	}
	if s.Volume() != 8 {
		t.Errorf("Volume = %d", s.Volume())
	}
	for y := 0; y < 2; y++ {
		for z := 0; z < 2; z++ {
			for x := 0; x < 2; x++ {
				want := "B"
				if (x+y+z)%2 == 0 {
					want = "A"
				}
				if got, err := s.Block(x, y, z); err != nil || got != want {
					t.Errorf("Block(%d,%d,%d) = %q, %v; want %q", x, y, z, got, err, want)
				}
			}
		}
	}
}

func TestOutOfBounds(t *testing.T) {
	s := checkerboard(t)
	for _, p := range []Pos{{-1, 0, 0}, {2, 0, 0}, {0, 2, 0}, {0, 0, 2}, {0, -1, 0}} {
		if _, err := s.Block(p.X, p.Y, p.Z); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Block%v: err = %v", p, err)
		}
		if _, err := s.Biome(p.X, p.Y, p.Z); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Biome%v: err = %v", p, err)
		}
		if _, _, err := s.BlockEntity(p.X, p.Y, p.Z); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("BlockEntity%v: err = %v", p, err)
		}
	}

	b, _ := NewBuilder(1, 1, 1)
	if err := b.SetBlock(1, 0, 0, "x"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetBlock: err = %v", err)
	}
	if err := b.SetBiome(0, 0, 5, "x"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetBiome: err = %v", err)
	}
	if err := b.AddBlockEntity(Pos{0, 1, 0}, "chest", nil); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("AddBlockEntity: err = %v", err)
	}
}

func TestBlocksSkipsDefaultAndRestarts(t *testing.T) {
	b, _ := NewBuilder(3, 1, 1)
	b.SetBlock(1, 0, 0, "minecraft:stone")
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	for pass := 0; pass < 2; pass++ {
		var got []Pos
		for p, id := range s.Blocks() {
			if id != "minecraft:stone" {
				t.Errorf("unexpected %q", id)
			}
			got = append(got, p)
		}
		if diff := cmp.Diff([]Pos{{1, 0, 0}}, got); diff != "" {
			t.Errorf("pass %d (-want +got):\n%s", pass, diff)
		}
	}

	n := 0
	for range s.AllBlocks() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early break yielded %d", n)
	}
}

func TestBuildCompactsPalette(t *testing.T) {
	b, _ := NewBuilder(2, 1, 1)
	b.SetBlock(0, 0, 0, "minecraft:dirt")
	b.SetBlock(0, 0, 0, "minecraft:stone")
	b.SetBlock(1, 0, 0, "minecraft:stone")
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"minecraft:stone"}, s.BlockPalette().IDs()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBuildFirstSeenOrder(t *testing.T) {
	b, _ := NewBuilder(4, 1, 1)
	for x, id := range []string{"c", "a", "c", "b"} {
		b.SetBlock(x, 0, 0, id)
	}
	s, _ := b.Build()
	if diff := cmp.Diff([]string{"c", "a", "b"}, s.BlockPalette().IDs()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBiomes(t *testing.T) {
	b, _ := NewBuilder(2, 2, 1)
	b.SetBiome(0, 0, 0, "minecraft:plains")
	if _, err := b.Build(); !errors.Is(err, ErrIncompleteBiomes) {
		t.Fatalf("partial biomes: err = %v", err)
	}
	b.FillBiome("minecraft:plains")
	b.SetBiome(1, 1, 0, "minecraft:desert")
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if s.BiomeShape() != VoxelBiomes {
		t.Errorf("shape = %v", s.BiomeShape())
	}
	if got, _ := s.Biome(1, 1, 0); got != "minecraft:desert" {
		t.Errorf("Biome(1,1,0) = %q", got)
	}
	if got, _ := s.Biome(1, 0, 0); got != "minecraft:plains" {
		t.Errorf("Biome(1,0,0) = %q", got)
	}

	none := checkerboard(t)
	if none.BiomeShape() != NoBiomes {
		t.Errorf("shape = %v", none.BiomeShape())
	}
	if got, err := none.Biome(0, 0, 0); err != nil || got != "" {
		t.Errorf("Biome = %q, %v", got, err)
	}
}

func TestColumnBiomes(t *testing.T) {
	blocks, _ := palette.New(palette.Blocks, []string{"a"}, "")
	biomes, _ := palette.New(palette.Biomes, []string{"p", "d"}, "")
	s, err := New(Parts{
		Size:       Pos{2, 3, 1},
		Blocks:     blocks,
		BlockData:  make([]int32, 6),
		BiomeShape: ColumnBiomes,
		Biomes:     biomes,
		BiomeData:  []int32{0, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 3; y++ {
		if got, _ := s.Biome(1, y, 0); got != "d" {
			t.Errorf("Biome(1,%d,0) = %q", y, got)
		}
	}

	b, err := NewBuilderFrom(s)
	if err != nil {
		t.Fatal(err)
	}
	voxel, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if voxel.BiomeShape() != VoxelBiomes {
		t.Errorf("shape = %v", voxel.BiomeShape())
	}
	if got, _ := voxel.Biome(1, 2, 0); got != "d" {
		t.Errorf("Biome = %q", got)
	}
}

func TestNewValidates(t *testing.T) {
	blocks, _ := palette.New(palette.Blocks, []string{"a"}, "")
	tests := []struct {
		name  string
		parts Parts
		want  error
	}{
		{"zero width", Parts{Size: Pos{0, 1, 1}, Blocks: blocks}, ErrInvalidDimensions},
		{"too wide", Parts{Size: Pos{MaxDimension + 1, 1, 1}, Blocks: blocks}, ErrInvalidDimensions},
		{"too many voxels", Parts{Size: Pos{MaxDimension, MaxDimension, MaxDimension}, Blocks: blocks}, ErrInvalidDimensions},
		{"short data", Parts{Size: Pos{2, 1, 1}, Blocks: blocks, BlockData: []int32{0}}, ErrInconsistent},
		{"hole", Parts{Size: Pos{2, 1, 1}, Blocks: blocks, BlockData: []int32{0, 3}}, palette.ErrUnresolvedBlockState},
		{"entity outside", Parts{Size: Pos{1, 1, 1}, Blocks: blocks, BlockData: []int32{0},
			BlockEntities: []BlockEntity{{Pos: Pos{0, 0, 1}, ID: "chest"}}}, ErrOutOfBounds},
		{"entity twice", Parts{Size: Pos{1, 1, 1}, Blocks: blocks, BlockData: []int32{0},
			BlockEntities: []BlockEntity{{ID: "chest"}, {ID: "sign"}}}, ErrDuplicateBlockEntity},
		{"biome count", Parts{Size: Pos{1, 1, 1}, Blocks: blocks, BlockData: []int32{0},
			BiomeShape: VoxelBiomes, Biomes: blocks, BiomeData: []int32{0, 0}}, ErrInconsistent},
	}
	for _, tt := range tests {
		if _, err := New(tt.parts); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestImplicitDefaultHole(t *testing.T) {
	blocks, _ := palette.New(palette.Blocks, []string{"", "minecraft:stone"}, palette.DefaultBlock)
	s, err := New(Parts{Size: Pos{2, 1, 1}, Blocks: blocks, BlockData: []int32{0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Block(0, 0, 0); got != palette.DefaultBlock {
		t.Errorf("Block = %q", got)
	}
}

func TestBlockEntities(t *testing.T) {
	b, _ := NewBuilder(2, 2, 2)
	data := nbt.NewCompound()
	data.Set("Items", nbt.NewList(nbt.TagEnd))
	b.AddBlockEntity(Pos{1, 1, 1}, "minecraft:chest", data)
	b.AddBlockEntity(Pos{0, 0, 0}, "minecraft:sign", nil)
	b.AddBlockEntity(Pos{1, 1, 1}, "minecraft:barrel", nil)
	data.Set("Lock", nbt.String("mutated"))

	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	all := s.BlockEntities()
	if len(all) != 2 || all[0].ID != "minecraft:barrel" || all[1].ID != "minecraft:sign" {
		t.Fatalf("BlockEntities = %+v", all)
	}
	all[0].Data.Set("x", nbt.Int(1))
	be, ok, err := s.BlockEntity(1, 1, 1)
	if err != nil || !ok {
		t.Fatalf("BlockEntity = %v, %v", ok, err)
	}
	if be.Data.Has("x") {
		t.Error("caller mutation leaked into the schematic")
	}
	if _, ok, _ := s.BlockEntity(0, 1, 0); ok {
		t.Error("unexpected block entity")
	}
}

func TestMetadata(t *testing.T) {
	b, _ := NewBuilder(1, 1, 1)
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b.SetName("house")
	b.SetAuthor("builder")
	b.SetDate(when)
	mods := nbt.NewList(nbt.TagString, nbt.String("worldedit"))
	m := b.metadata.Clone()
	m.Set("RequiredMods", mods)
	b.SetMetadata(m)
	b.SetDataVersion(3700)
	b.SetOffset(Pos{-1, 2, -3})

	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "house" || s.Author() != "builder" {
		t.Errorf("Name %q Author %q", s.Name(), s.Author())
	}
	if got, ok := s.Date(); !ok || !got.Equal(when) {
		t.Errorf("Date = %v, %v", got, ok)
	}
	if diff := cmp.Diff([]string{"worldedit"}, s.RequiredMods()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if s.DataVersion() != 3700 || s.Offset() != (Pos{-1, 2, -3}) {
		t.Errorf("DataVersion %d Offset %v", s.DataVersion(), s.Offset())
	}
	s.Metadata().Set("Name", nbt.String("changed"))
	if s.Name() != "house" {
		t.Error("Metadata returned the backing compound")
	}
}

type states struct{}

func (states) Resolve(id string) (int, bool) {
	if id == "minecraft:stone" {
		return 1, true
	}
	if id == palette.DefaultBlock {
		return 0, true
	}
	return 0, false
}

func (states) Identify(s int) (string, bool) {
	switch s {
	case 0:
		return palette.DefaultBlock, true
	case 1:
		return "minecraft:stone", true
	}
	return "", false
}

func TestSetStateAndResolve(t *testing.T) {
	b, _ := NewBuilder(2, 1, 1)
	if err := SetState[int](b, 0, 0, 0, 1, states{}); err != nil {
		t.Fatal(err)
	}
	if err := SetState[int](b, 1, 0, 0, 7, states{}); !errors.Is(err, palette.ErrUnresolvedBlockState) {
		t.Errorf("err = %v", err)
	}
	s, _ := b.Build()
	resolved, err := ResolveBlocks[int](s, states{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 0}, resolved); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestBuilderFromRoundTrip(t *testing.T) {
	s := checkerboard(t)
	b, err := NewBuilderFrom(s)
	if err != nil {
		t.Fatal(err)
	}
	b.SetBlock(0, 0, 0, "C")
	edited, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Block(0, 0, 0); got != "A" {
		t.Errorf("original changed: %q", got)
	}
	if got, _ := edited.Block(0, 0, 0); got != "C" {
		t.Errorf("edited = %q", got)
	}
	if diff := cmp.Diff([]string{"C", "B", "A"}, edited.BlockPalette().IDs()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
