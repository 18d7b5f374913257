package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// The grid is centered on the continuous-space origin along X and Z: cell
// (x,y,z) occupies the unit cube centered at (x-halfX+0.5, y+0.5, z-halfZ+0.5).
// Y is never offset; world elevation 0 is the bottom of row y=0 (the ground
// plane). Both conversions are exact for integer cells, so grid -> world ->
// grid round-trips every valid coordinate.

func (s Size) halfX() float64 { return float64(s.X) / 2 }
func (s Size) halfZ() float64 { return float64(s.Z) / 2 }

// GridToWorld returns the center of cell p in continuous space.
func (s Size) GridToWorld(p Vec3i) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(p.X) - s.halfX() + 0.5,
		float64(p.Y) + 0.5,
		float64(p.Z) - s.halfZ() + 0.5,
	}
}

// WorldToGrid returns the cell containing the continuous-space point v.
func (s Size) WorldToGrid(v mgl64.Vec3) Vec3i {
	return Vec3i{
		X: int(math.Floor(v.X() + s.halfX())),
		Y: int(math.Floor(v.Y())),
		Z: int(math.Floor(v.Z() + s.halfZ())),
	}
}

// CellBounds returns the min and max corners of cell p's unit cube.
func (s Size) CellBounds(p Vec3i) (min, max mgl64.Vec3) {
	c := s.GridToWorld(p)
	half := mgl64.Vec3{0.5, 0.5, 0.5}
	return c.Sub(half), c.Add(half)
}
