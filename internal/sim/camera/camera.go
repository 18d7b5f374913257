// Package camera integrates the free-flying editor viewpoint from thrust
// flags and pointer-look deltas. It knows nothing about rendering; the
// session reads the pose back each step.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type Mode int

const (
	// ModeFree is first-person flight: pointer look plus keyboard thrust.
	ModeFree Mode = iota
	// ModeOrbit delegates the pose to an external orbit controller; the
	// integrator only stores what is written back via SetPose.
	ModeOrbit
)

type Direction int

const (
	Forward Direction = iota
	Back
	Left
	Right
	Up
	Down
	directionCount
)

// pitchLimit keeps the pitch just inside +-90 degrees so the view never
// flips over the pole.
const pitchLimit = math.Pi/2 - 0.001

type Config struct {
	Position    mgl64.Vec3
	Yaw         float64 // radians, 0 = looking toward -Z
	Pitch       float64
	MoveSpeed   float64 // thrust acceleration, units/s^2
	DampingRate float64 // exponential velocity decay, 1/s
	LookSens    float64 // radians per pointer unit
}

type Camera struct {
	mode   Mode
	pos    mgl64.Vec3
	vel    mgl64.Vec3
	yaw    float64
	pitch  float64
	thrust [directionCount]bool

	moveSpeed float64
	damping   float64
	lookSens  float64
}

func New(cfg Config) *Camera {
	return &Camera{
		pos:       cfg.Position,
		yaw:       cfg.Yaw,
		pitch:     clampPitch(cfg.Pitch),
		moveSpeed: cfg.MoveSpeed,
		damping:   cfg.DampingRate,
		lookSens:  cfg.LookSens,
	}
}

func (c *Camera) Mode() Mode { return c.mode }

// SetMode switches interaction modes. Entering orbit stops residual free-fly
// motion.
func (c *Camera) SetMode(m Mode) {
	if m == c.mode {
		return
	}
	c.mode = m
	c.vel = mgl64.Vec3{}
	c.thrust = [directionCount]bool{}
}

func (c *Camera) SetThrust(d Direction, on bool) {
	if d < 0 || d >= directionCount {
		return
	}
	c.thrust[d] = on
}

// Look applies pointer deltas: dx yaws, dy pitches (clamped).
func (c *Camera) Look(dx, dy float64) {
	c.yaw -= dx * c.lookSens
	c.pitch = clampPitch(c.pitch - dy*c.lookSens)
}

// ReleaseCapture is the only cancellation in the input model: losing the
// pointer zeroes velocity and all thrust flags so the camera never coasts
// while input is not being received.
func (c *Camera) ReleaseCapture() {
	c.vel = mgl64.Vec3{}
	c.thrust = [directionCount]bool{}
}

// Step advances one simulated step of dt seconds. Thrust stays level with
// the ground plane: the horizontal basis comes from yaw alone, pitch never
// leaks into movement. Diagonal thrust is normalized so it is no faster
// than orthogonal.
func (c *Camera) Step(dt float64) {
	if c.mode != ModeFree || dt <= 0 {
		return
	}

	sin, cos := math.Sin(c.yaw), math.Cos(c.yaw)
	fwd := mgl64.Vec3{-sin, 0, -cos}
	right := mgl64.Vec3{cos, 0, -sin}

	f := axisInput(c.thrust[Forward], c.thrust[Back])
	r := axisInput(c.thrust[Right], c.thrust[Left])
	u := axisInput(c.thrust[Up], c.thrust[Down])

	dir := fwd.Mul(f).Add(right.Mul(r))
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	dir[1] = u

	c.vel = c.vel.Add(dir.Mul(c.moveSpeed * dt))
	c.vel = c.vel.Mul(math.Exp(-c.damping * dt))
	c.pos = c.pos.Add(c.vel)
}

// Forward returns the full look direction including pitch, for pick rays.
func (c *Camera) Forward() mgl64.Vec3 {
	cp := math.Cos(c.pitch)
	return mgl64.Vec3{
		-math.Sin(c.yaw) * cp,
		math.Sin(c.pitch),
		-math.Cos(c.yaw) * cp,
	}
}

func (c *Camera) Position() mgl64.Vec3 { return c.pos }
func (c *Camera) Velocity() mgl64.Vec3 { return c.vel }
func (c *Camera) Yaw() float64         { return c.yaw }
func (c *Camera) Pitch() float64       { return c.pitch }

// SetPose writes back an externally controlled pose (orbit mode readback).
func (c *Camera) SetPose(pos mgl64.Vec3, yaw, pitch float64) {
	c.pos = pos
	c.yaw = yaw
	c.pitch = clampPitch(pitch)
}

func axisInput(pos, neg bool) float64 {
	v := 0.0
	if pos {
		v++
	}
	if neg {
		v--
	}
	return v
}

func clampPitch(p float64) float64 {
	if p > pitchLimit {
		return pitchLimit
	}
	if p < -pitchLimit {
		return -pitchLimit
	}
	return p
}
