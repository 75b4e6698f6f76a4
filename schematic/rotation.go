package schematic

import (
	"fmt"
	"iter"

	"github.com/astei/spongeschem/palette"
)

// Rotation is a clockwise quarter turn around the Y axis, seen from above.
type Rotation int

const (
	RotateNone Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// RotationFromDegrees accepts multiples of 90, including negative ones.
func RotationFromDegrees(deg int) (Rotation, error) {
	if deg%90 != 0 {
		return RotateNone, fmt.Errorf("schematic: rotation of %d degrees is not a quarter turn", deg)
	}
	return Rotation(((deg/90)%4 + 4) % 4), nil
}

func (r Rotation) Degrees() int {
	return int(r.normal()) * 90
}

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", r.Degrees())
}

func (r Rotation) normal() Rotation {
	return (r%4 + 4) % 4
}

// Then returns the rotation equal to r followed by next.
func (r Rotation) Then(next Rotation) Rotation {
	return (r + next).normal()
}

// Apply rotates p around the origin. North is -Z, so a quarter turn sends
// north to east: (x, z) becomes (-z, x).
func (r Rotation) Apply(p Pos) Pos {
	switch r.normal() {
	case Rotate90:
		return Pos{X: -p.Z, Y: p.Y, Z: p.X}
	case Rotate180:
		return Pos{X: -p.X, Y: p.Y, Z: -p.Z}
	case Rotate270:
		return Pos{X: p.Z, Y: p.Y, Z: -p.X}
	}
	return p
}

// Size returns the extent of a region of the given size after rotating it.
func (r Rotation) Size(size Pos) Pos {
	if r.normal()%2 == 1 {
		return Pos{X: size.Z, Y: size.Y, Z: size.X}
	}
	return size
}

var horizontal = []string{"north", "east", "south", "west"}

// Facing rotates a horizontal direction name. Other values, such as "up", are
// returned unchanged. Rewriting block-state properties is left to the caller
// since identifiers are opaque here.
func (r Rotation) Facing(dir string) string {
	for i, d := range horizontal {
		if d == dir {
			return horizontal[(i+int(r.normal()))%4]
		}
	}
	return dir
}

// BlocksRotated is Blocks with each position moved by the schematic offset
// and then rotated around the paste origin.
func (s *Schematic) BlocksRotated(r Rotation) iter.Seq2[Pos, string] {
	return func(yield func(Pos, string) bool) {
		for i, v := range s.blockData {
			id, _ := s.blocks.Lookup(int(v))
			if id == palette.DefaultBlock {
				continue
			}
			p := s.layout.Pos(s.size, i)
			p = Pos{X: p.X + s.offset.X, Y: p.Y + s.offset.Y, Z: p.Z + s.offset.Z}
			if !yield(r.Apply(p), id) {
				return
			}
		}
	}
}
