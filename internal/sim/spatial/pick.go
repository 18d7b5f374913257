// Package spatial resolves pick rays against the placed blocks and the
// ground plane: which cell a click removes, and which adjacent cell a click
// fills.
package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"voxelforge.dev/internal/sim/world"
)

// Hit is the result of a resolved pick ray.
type Hit struct {
	// Target is the cell a placement would fill: the ground cell under the
	// hit point, or the struck cell's neighbor along the hit face normal.
	Target world.Vec3i
	// Struck is the cell of the intersected block; valid only when HitBlock.
	Struck world.Vec3i
	// HitBlock distinguishes a block hit (removal offered) from a
	// ground-plane hit (placement only).
	HitBlock bool

	Distance float64
	Point    mgl64.Vec3
}

// Engine casts rays against unit cells plus the infinite ground plane at
// world elevation 0. It holds no block state of its own; callers pass the
// occupied cells per query.
type Engine struct {
	size        world.Size
	maxDistance float64
}

func NewEngine(size world.Size, maxDistance float64) *Engine {
	return &Engine{size: size, maxDistance: maxDistance}
}

// SetSize follows a wholesale world replacement (import).
func (e *Engine) SetSize(size world.Size) { e.size = size }

// Pick returns the nearest positive-distance surface hit among the given
// cells and the ground plane, or ok=false when the ray escapes. The same
// face-normal convention applies in every camera mode.
func (e *Engine) Pick(r Ray, cells []world.Vec3i) (Hit, bool) {
	best := Hit{Distance: math.Inf(1)}
	found := false

	// Ground plane at y=0, hittable only from above.
	if r.Dir.Y() != 0 {
		t := -r.Origin.Y() / r.Dir.Y()
		if t > hitEpsilon && t <= e.maxDistance && r.Origin.Y() > 0 {
			p := r.At(t)
			target := e.size.WorldToGrid(p)
			target.Y = 0 // guard against float drift across the plane
			best = Hit{Target: target, Distance: t, Point: p}
			found = true
		}
	}

	for _, cell := range cells {
		min, max := e.size.CellBounds(cell)
		t, normal, ok := AABB{Min: min, Max: max}.IntersectRay(r)
		if !ok || t > e.maxDistance || t >= best.Distance {
			continue
		}
		best = Hit{
			Target:   cell.Add(normalStep(normal)),
			Struck:   cell,
			HitBlock: true,
			Distance: t,
			Point:    r.At(t),
		}
		found = true
	}

	if !found {
		return Hit{}, false
	}
	return best, true
}

func normalStep(n mgl64.Vec3) world.Vec3i {
	return world.Vec3i{
		X: int(math.Round(n.X())),
		Y: int(math.Round(n.Y())),
		Z: int(math.Round(n.Z())),
	}
}
