package scene

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/material"
	"github.com/df07/go-geodesic-raytracer/pkg/physics"
)

func TestBuiltinScenesBuild(t *testing.T) {
	for _, name := range BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			s, err := NewBuiltin(name)
			require.NoError(t, err)
			assert.Equal(t, name, s.Name)
			assert.InEpsilon(t, 1.269e10, s.SchwarzschildRadius(), 1e-3)

			snapshot, err := s.Snapshot()
			require.NoError(t, err)
			assert.Len(t, snapshot.Occluders(), s.Catalog.Len()-1)

			store, err := s.NewMeshStore()
			require.NoError(t, err)
			mesh := store.Current()
			require.NotNil(t, mesh)
			side := s.Grid.Size + 1
			assert.Len(t, mesh.Vertices, side*side)
		})
	}
}

func TestBinaryStarBodies(t *testing.T) {
	s, err := NewBuiltin("binary-star")
	require.NoError(t, err)

	bodies := s.Catalog.Bodies()
	require.Len(t, bodies, 2)
	// Bodies are ordered by section name
	assert.Equal(t, "companion", bodies[0].Name)
	assert.Equal(t, "giant", bodies[1].Name)
	assert.InEpsilon(t, physics.SolarMass, bodies[0].Mass, 1e-12)

	require.Len(t, s.Materials, 2)
	assert.IsType(t, &material.Emissive{}, s.Materials[0])
	assert.IsType(t, &material.Headlamp{}, s.Materials[1])
}

func TestUnknownScene(t *testing.T) {
	_, err := NewBuiltin("andromeda")
	assert.ErrorIs(t, err, ErrUnknownScene)

	_, err = Load("file:../../etc/passwd")
	assert.ErrorIs(t, err, ErrUnknownScene)
}

func TestReadConfigStringOverridesBase(t *testing.T) {
	base, err := BuiltinConfig("sagittarius")
	require.NoError(t, err)

	cfg, err := ReadConfigString(base, `
[scene]
name = test

[integrator]
scheme = euler
maxSteps = 1234

[camera]
elevation = 1.2

[render]
width = 320
height = 240

[body "moon"]
x = 1e11
radius = 5e9
solarMasses = 0.5
material = emissive
`)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Scene.Name)
	assert.Equal(t, integrator.SchemeEuler, cfg.Integrator.Scheme)
	assert.Equal(t, 1234, cfg.Integrator.MaxSteps)
	// Values missing from the text keep the base
	assert.Equal(t, base.Integrator.BaseStep, cfg.Integrator.BaseStep)
	assert.Equal(t, base.Camera.Radius, cfg.Camera.Radius)
	assert.InDelta(t, 1.2, cfg.Camera.Elevation, 1e-12)

	require.Contains(t, cfg.Body, "moon")
	moon := cfg.Body["moon"]
	assert.Equal(t, "moon", moon.Name)
	assert.InEpsilon(t, 0.5*physics.SolarMass, moon.Mass, 1e-12)
	assert.Equal(t, MaterialEmissive, moon.Material)
	assert.Equal(t, 1.0, moon.R, "color defaults to white")

	// The base is not modified
	assert.Empty(t, base.Body)
	assert.Equal(t, integrator.SchemeRK4, base.Integrator.Scheme)

	s, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 320, s.Width)
	assert.Equal(t, 240, s.Height)
	assert.Equal(t, 1, s.Catalog.Len()-1)
}

func TestReadConfigStringUpdatesExistingBody(t *testing.T) {
	base, err := BuiltinConfig("binary-star")
	require.NoError(t, err)

	cfg, err := ReadConfigString(base, "[body \"companion\"]\nradius = 2e10\n")
	require.NoError(t, err)

	assert.Equal(t, 2e10, cfg.Body["companion"].Radius)
	assert.Equal(t, 6e10, cfg.Body["companion"].X, "unspecified fields keep the base value")
	assert.Equal(t, 9e9, base.Body["companion"].Radius, "base must not share body pointers")
}

func TestReadConfigStringErrors(t *testing.T) {
	base, err := BuiltinConfig("sagittarius")
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
	}{
		{"bad scheme", "[integrator]\nscheme = leapfrog\n"},
		{"zero max steps", "[integrator]\nmaxSteps = 0\n"},
		{"negative mass", "[physics]\nmass = -1\n"},
		{"body without radius", "[body \"rock\"]\nmass = 1e20\n"},
		{"body without mass", "[body \"rock\"]\nradius = 1e9\n"},
		{"unknown material", "[body \"rock\"]\nradius = 1e9\nmass = 1e20\nmaterial = glass\n"},
		{"bad fov", "[camera]\nfov = 200\n"},
		{"zero grid", "[grid]\nsize = 0\n"},
		{"bad syntax", "[integrator\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadConfigString(base, tt.text)
			assert.Error(t, err)
		})
	}
}

func TestBuildClampsInitialSamples(t *testing.T) {
	base, err := BuiltinConfig("sagittarius")
	require.NoError(t, err)
	base.Render.Samples = 1
	base.Render.Passes = 1

	s, err := Build(base)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Progressive.MaxSamplesPerPixel)
	assert.Equal(t, 1, s.Progressive.InitialSamples)
}

func TestSceneCameraHelpers(t *testing.T) {
	s, err := NewBuiltin("sagittarius")
	require.NoError(t, err)

	moved := s.WithCamera(s.Camera.Drag(10, 0))
	assert.NotEqual(t, s.Camera.Azimuth, moved.Camera.Azimuth)
	assert.Equal(t, 0.0, s.Camera.Azimuth, "the original scene is unchanged")

	small, err := s.WithSize(40, 30)
	require.NoError(t, err)
	cam := small.CameraState()
	assert.InDelta(t, 4.0/3.0, cam.Aspect, 1e-12)

	_, err = s.WithSize(0, 30)
	assert.Error(t, err)

	eye := s.Eye()
	assert.InEpsilon(t, s.Camera.Radius, eye.Length(), 1e-12)
	assert.False(t, math.IsNaN(s.Field().Height(0, 0)))
}

func TestLoadConfigFileUsesBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.ini")
	require.NoError(t, os.WriteFile(path, []byte(`
[scene]
name = Wide Binary
base = binary-star

[body "companion"]
x = 1.2e11
`), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Wide Binary", cfg.Scene.Name)
	require.Contains(t, cfg.Body, "giant", "bodies of the base scene are kept")
	assert.Equal(t, 1.2e11, cfg.Body["companion"].X)

	badBase := filepath.Join(dir, "bad.ini")
	require.NoError(t, os.WriteFile(badBase, []byte("[scene]\nbase = nowhere\n"), 0o644))
	_, err = LoadConfigFile(badBase)
	assert.ErrorIs(t, err, ErrUnknownScene)
}
