package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning carries every knob of the editor core. Load reads tuning.yaml;
// missing values fall back to Default().
type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	World struct {
		SizeX int `yaml:"size_x"`
		SizeY int `yaml:"size_y"`
		SizeZ int `yaml:"size_z"`
	} `yaml:"world"`

	Camera struct {
		MoveSpeed   float64 `yaml:"move_speed"`
		DampingRate float64 `yaml:"damping_rate"`
		LookSens    float64 `yaml:"look_sensitivity"`
		StartHeight float64 `yaml:"start_height"`
		StartDist   float64 `yaml:"start_distance"`
	} `yaml:"camera"`

	MaxRayDistance float64 `yaml:"max_ray_distance"`

	TelemetryEveryTicks int `yaml:"telemetry_every_ticks"`
	AutosaveEveryTicks  int `yaml:"autosave_every_ticks"`
}

func Default() Tuning {
	var t Tuning
	t.TickRateHz = 60
	t.World.SizeX = 64
	t.World.SizeY = 64
	t.World.SizeZ = 64
	t.Camera.MoveSpeed = 25
	t.Camera.DampingRate = 10
	t.Camera.LookSens = 0.002
	t.Camera.StartHeight = 8
	t.Camera.StartDist = 12
	t.MaxRayDistance = 250
	t.TelemetryEveryTicks = 30
	t.AutosaveEveryTicks = 1800
	return t
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if t.World.SizeX <= 0 || t.World.SizeY <= 0 || t.World.SizeZ <= 0 {
		return fmt.Errorf("world size must be positive, got %dx%dx%d", t.World.SizeX, t.World.SizeY, t.World.SizeZ)
	}
	if t.MaxRayDistance <= 0 {
		return fmt.Errorf("max_ray_distance must be positive, got %v", t.MaxRayDistance)
	}
	return nil
}
