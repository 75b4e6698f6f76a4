package schematic

import "fmt"

// Layout is the order in which voxels appear in a packed data array.
type Layout int

const (
	// LayoutYZX walks X fastest, then Z, then Y: index = x + z*W + y*W*L.
	LayoutYZX Layout = iota
)

func (l Layout) String() string {
	if l == LayoutYZX {
		return "yzx"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// Index maps a position inside dims to its array index.
func (l Layout) Index(dims Pos, p Pos) int {
	return p.X + p.Z*dims.X + p.Y*dims.X*dims.Z
}

// Pos is the inverse of Index.
func (l Layout) Pos(dims Pos, i int) Pos {
	layer := dims.X * dims.Z
	return Pos{X: i % dims.X, Y: i / layer, Z: (i % layer) / dims.X}
}

// ColumnIndex maps an (x, z) column to its index in a two-dimensional array.
func (l Layout) ColumnIndex(dims Pos, x, z int) int {
	return x + z*dims.X
}
