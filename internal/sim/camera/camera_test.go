package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testConfig() Config {
	return Config{
		MoveSpeed:   10,
		DampingRate: 5,
		LookSens:    0.002,
	}
}

func TestStep_ForwardThrustMovesAlongYaw(t *testing.T) {
	c := New(testConfig()) // yaw 0: facing -Z
	c.SetThrust(Forward, true)
	c.Step(1.0 / 60)

	if c.Position().Z() >= 0 {
		t.Fatalf("expected -Z movement, got %v", c.Position())
	}
	if c.Position().X() != 0 || c.Position().Y() != 0 {
		t.Fatalf("forward thrust must stay on the yaw axis: %v", c.Position())
	}
}

func TestStep_PitchDoesNotAffectThrustDirection(t *testing.T) {
	level := New(testConfig())
	tilted := New(testConfig())
	tilted.Look(0, -400) // pitch steeply up

	for _, c := range []*Camera{level, tilted} {
		c.SetThrust(Forward, true)
		for i := 0; i < 10; i++ {
			c.Step(1.0 / 60)
		}
	}
	if tilted.Position().Y() != 0 {
		t.Fatalf("thrust leaked into Y while pitched: %v", tilted.Position())
	}
	if math.Abs(level.Position().Z()-tilted.Position().Z()) > 1e-12 {
		t.Fatalf("pitch changed horizontal speed: %v vs %v", level.Position(), tilted.Position())
	}
}

func TestStep_DiagonalThrustNormalized(t *testing.T) {
	straight := New(testConfig())
	straight.SetThrust(Forward, true)

	diagonal := New(testConfig())
	diagonal.SetThrust(Forward, true)
	diagonal.SetThrust(Right, true)

	for i := 0; i < 30; i++ {
		straight.Step(1.0 / 60)
		diagonal.Step(1.0 / 60)
	}

	ds := straight.Position().Len()
	dd := diagonal.Position().Len()
	if math.Abs(ds-dd) > 1e-9 {
		t.Fatalf("diagonal speed %v != orthogonal speed %v", dd, ds)
	}
}

func TestStep_DampingCoastsToRest(t *testing.T) {
	c := New(testConfig())
	c.SetThrust(Forward, true)
	for i := 0; i < 30; i++ {
		c.Step(1.0 / 60)
	}
	c.SetThrust(Forward, false)

	v0 := c.Velocity().Len()
	for i := 0; i < 300; i++ {
		c.Step(1.0 / 60)
	}
	v1 := c.Velocity().Len()

	if v0 == 0 {
		t.Fatalf("expected residual velocity after thrust")
	}
	if v1 >= v0*0.01 {
		t.Fatalf("velocity did not decay: %v -> %v", v0, v1)
	}
}

func TestReleaseCapture_StopsAllMotion(t *testing.T) {
	c := New(testConfig())
	c.SetThrust(Forward, true)
	c.SetThrust(Up, true)
	for i := 0; i < 10; i++ {
		c.Step(1.0 / 60)
	}

	c.ReleaseCapture()
	if c.Velocity() != (mgl64.Vec3{}) {
		t.Fatalf("velocity not zeroed: %v", c.Velocity())
	}

	pos := c.Position()
	c.Step(1.0 / 60) // thrust flags must be cleared too
	if c.Position() != pos {
		t.Fatalf("camera kept moving after capture loss: %v -> %v", pos, c.Position())
	}
}

func TestLook_PitchClampedInsideNinetyDegrees(t *testing.T) {
	c := New(testConfig())
	c.Look(0, -1e9)
	if c.Pitch() >= math.Pi/2 {
		t.Fatalf("pitch reached +90: %v", c.Pitch())
	}
	c.Look(0, 1e9)
	if c.Pitch() <= -math.Pi/2 {
		t.Fatalf("pitch reached -90: %v", c.Pitch())
	}
}

func TestForward_MatchesYawPitch(t *testing.T) {
	c := New(testConfig())
	f := c.Forward()
	if math.Abs(f.X()) > 1e-12 || math.Abs(f.Z()+1) > 1e-12 {
		t.Fatalf("yaw 0 must face -Z: %v", f)
	}

	c.Look(0, -1e9) // pitch clamps near +90
	f = c.Forward()
	if f.Y() < 0.999 {
		t.Fatalf("steep pitch must look nearly straight up: %v", f)
	}
	if math.Abs(f.Len()-1) > 1e-9 {
		t.Fatalf("forward must be a unit vector: %v", f.Len())
	}
}

func TestOrbitMode_PoseWritebackOnly(t *testing.T) {
	c := New(testConfig())
	c.SetMode(ModeOrbit)
	c.SetThrust(Forward, true)
	c.Step(1.0 / 60)
	if c.Position() != (mgl64.Vec3{}) {
		t.Fatalf("orbit mode must not integrate thrust: %v", c.Position())
	}

	c.SetPose(mgl64.Vec3{1, 2, 3}, 0.5, 0.25)
	if c.Position() != (mgl64.Vec3{1, 2, 3}) || c.Yaw() != 0.5 || c.Pitch() != 0.25 {
		t.Fatalf("pose writeback lost: %v %v %v", c.Position(), c.Yaw(), c.Pitch())
	}
}
