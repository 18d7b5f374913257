package world

// Vec3i addresses one voxel cell. Value type; usable as a map key.
type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) Add(o Vec3i) Vec3i {
	return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Size is the declared bounding extent of a world. It gates placement
// (cells outside [0,dim) are rejected) but is advisory on import.
type Size struct {
	X int
	Y int
	Z int
}

func (s Size) Contains(p Vec3i) bool {
	return p.X >= 0 && p.X < s.X &&
		p.Y >= 0 && p.Y < s.Y &&
		p.Z >= 0 && p.Z < s.Z
}
