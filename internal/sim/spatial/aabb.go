package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a directed half-line in continuous space. Dir need not be
// normalized; distances are reported in units of |Dir|.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// AABB is an axis-aligned box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// Axis-aligned unit normals, indexed by axis and side.
var faceNormals = [3][2]mgl64.Vec3{
	{{-1, 0, 0}, {1, 0, 0}},
	{{0, -1, 0}, {0, 1, 0}},
	{{0, 0, -1}, {0, 0, 1}},
}

// IntersectRay runs the slab test. On a hit it returns the entry distance
// and the outward normal of the entered face. Rays starting inside the box
// miss: only positive-distance surface hits count.
//
// When the ray grazes an edge or corner exactly, the reported face is the
// first axis in X,Y,Z order whose slab is entered last. Deterministic, but
// not a semantic tie-break.
func (b AABB) IntersectRay(r Ray) (t float64, normal mgl64.Vec3, ok bool) {
	tEnter := math.Inf(-1)
	tExit := math.Inf(1)
	axis := -1
	side := 0

	for i := 0; i < 3; i++ {
		o, d := r.Origin[i], r.Dir[i]
		lo, hi := b.Min[i], b.Max[i]

		if d == 0 {
			if o < lo || o > hi {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}

		t1 := (lo - o) / d
		t2 := (hi - o) / d
		s := 0 // entering through the min face
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1
		}
		if t1 > tEnter {
			tEnter = t1
			axis = i
			side = s
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return 0, mgl64.Vec3{}, false
		}
	}

	if axis < 0 || tEnter <= hitEpsilon {
		return 0, mgl64.Vec3{}, false
	}
	return tEnter, faceNormals[axis][side], true
}

// hitEpsilon guards against self-hits from a camera sitting exactly on a
// surface.
const hitEpsilon = 1e-9
