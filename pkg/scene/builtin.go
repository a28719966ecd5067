package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/physics"
	"github.com/df07/go-geodesic-raytracer/pkg/renderer"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

// DefaultSceneName is used when no scene is requested
const DefaultSceneName = "sagittarius"

const (
	sagittariusDescription = "Lone black hole with its accretion disk"
	binaryStarDescription  = "Black hole with a companion star and a banded gas giant"
)

type builtin struct {
	name        string
	displayName string
	description string
	config      func() Config
}

var builtins = map[string]builtin{
	"sagittarius": {
		name:        "sagittarius",
		displayName: "Sagittarius A*",
		description: sagittariusDescription,
		config:      sagittariusConfig,
	},
	"binary-star": {
		name:        "binary-star",
		displayName: "Binary Star",
		description: binaryStarDescription,
		config:      binaryStarConfig,
	},
}

// BuiltinNames returns the built-in scene names in a stable order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinConfig returns the config of a built-in scene
func BuiltinConfig(name string) (Config, error) {
	b, ok := builtins[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return b.config(), nil
}

// NewBuiltin builds a built-in scene by name
func NewBuiltin(name string) (*Scene, error) {
	cfg, err := BuiltinConfig(name)
	if err != nil {
		return nil, err
	}
	return Build(cfg)
}

func sagittariusConfig() Config {
	orbit := renderer.DefaultOrbitCamera()
	progressive := renderer.DefaultProgressiveConfig()
	return Config{
		Scene: SceneSection{
			Name:        "sagittarius",
			Description: sagittariusDescription,
			Group:       builtInGroup,
			Base:        "sagittarius",
		},
		Physics:    PhysicsSection{Mass: physics.SagittariusAMass},
		Integrator: integrator.DefaultConfig(),
		Warp:       warp.DefaultParams(),
		Grid:       warp.DefaultGridSpec(),
		Camera: CameraSection{
			Azimuth:   orbit.Azimuth,
			Elevation: orbit.Elevation,
			Radius:    orbit.Radius,
			Fov:       60,
		},
		Render: RenderSection{
			Width:    800,
			Height:   600,
			Samples:  progressive.MaxSamplesPerPixel,
			Passes:   progressive.MaxPasses,
			TileSize: progressive.TileSize,
		},
		Body: map[string]*BodyConfig{},
	}
}

func binaryStarConfig() Config {
	cfg := sagittariusConfig()
	cfg.Scene.Name = "binary-star"
	cfg.Scene.Description = binaryStarDescription
	cfg.Scene.Base = "binary-star"

	// Slightly above the disk plane so the disk and its lensed image stay visible
	cfg.Camera.Elevation = math.Pi/2 - 0.15
	cfg.Camera.Radius = 2.5e11

	cfg.Body["companion"] = &BodyConfig{
		X:           6e10,
		Z:           -9e10,
		SolarMasses: 1,
		Radius:      9e9,
		R:           1,
		G:           0.85,
		B:           0.6,
		Material:    MaterialEmissive,
	}
	cfg.Body["giant"] = &BodyConfig{
		X:           -5e10,
		Y:           1.5e10,
		Z:           8e10,
		SolarMasses: 1e-3,
		Radius:      6e9,
		R:           0.85,
		G:           0.7,
		B:           0.5,
		Material:    MaterialBands,
	}
	return cfg
}
