package scene

import (
	"errors"
	"fmt"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/material"
	"github.com/df07/go-geodesic-raytracer/pkg/physics"
	"github.com/df07/go-geodesic-raytracer/pkg/renderer"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

// ErrUnknownScene is returned when a scene name matches no built-in scene or file
var ErrUnknownScene = errors.New("scene: unknown scene")

// Scene contains all the elements needed for rendering
type Scene struct {
	Name        string
	Description string
	Catalog     *physics.Catalog
	Materials   []material.Material // indexed like Catalog.Bodies()
	Integrator  integrator.Config
	Warp        warp.Params
	Grid        warp.GridSpec
	Camera      renderer.OrbitCamera
	VFov        float64 // degrees
	Width       int
	Height      int
	Progressive renderer.ProgressiveConfig
}

// Build validates a config and assembles the scene it describes
func Build(cfg Config) (*Scene, error) {
	if err := cfg.CheckInit(); err != nil {
		return nil, err
	}

	bh, err := physics.NewBlackHole(cfg.Physics.Mass)
	if err != nil {
		return nil, err
	}

	names := cfg.BodyNames()
	bodies := make([]physics.Body, 0, len(names))
	materials := make([]material.Material, 0, len(names))
	for _, name := range names {
		bc := cfg.Body[name]
		body, err := physics.NewSceneBody(name, bc.Position(), bc.Mass, bc.Radius, bc.Color())
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
		materials = append(materials, newMaterial(bc))
	}

	catalog, err := physics.NewCatalog(bh, bodies...)
	if err != nil {
		return nil, err
	}

	progressive := renderer.DefaultProgressiveConfig()
	if cfg.Render.Samples > 0 {
		progressive.MaxSamplesPerPixel = cfg.Render.Samples
	}
	if cfg.Render.Passes > 0 {
		progressive.MaxPasses = cfg.Render.Passes
	}
	if cfg.Render.TileSize > 0 {
		progressive.TileSize = cfg.Render.TileSize
	}
	progressive.NumWorkers = cfg.Render.Workers
	if progressive.InitialSamples > progressive.MaxSamplesPerPixel {
		progressive.InitialSamples = progressive.MaxSamplesPerPixel
	}
	if err := progressive.Validate(); err != nil {
		return nil, err
	}

	name := cfg.Scene.Name
	if name == "" {
		name = cfg.Scene.Base
	}

	return &Scene{
		Name:        name,
		Description: cfg.Scene.Description,
		Catalog:     catalog,
		Materials:   materials,
		Integrator:  cfg.Integrator,
		Warp:        cfg.Warp,
		Grid:        cfg.Grid,
		Camera: renderer.OrbitCamera{
			Azimuth:   cfg.Camera.Azimuth,
			Elevation: cfg.Camera.Elevation,
			Radius:    cfg.Camera.Radius,
		},
		VFov:        cfg.Camera.Fov,
		Width:       cfg.Render.Width,
		Height:      cfg.Render.Height,
		Progressive: progressive,
	}, nil
}

func newMaterial(bc *BodyConfig) material.Material {
	color := bc.Color()
	switch bc.Material {
	case MaterialEmissive:
		return material.NewEmissive(color)
	case MaterialBands:
		return material.NewTexturedHeadlamp(material.NewLatitudeBands(color, color.Multiply(0.6), color.Multiply(0.85), color.Multiply(0.5)))
	default:
		return material.NewHeadlamp(color)
	}
}

// Snapshot freezes the scene for a render
func (s *Scene) Snapshot() (*renderer.Snapshot, error) {
	return renderer.NewSnapshot(s.Catalog, s.Integrator, s.Materials)
}

// CameraState returns the per-frame camera for the scene's orbit and image size
func (s *Scene) CameraState() renderer.CameraState {
	return renderer.NewCameraState(s.Camera, s.VFov, s.Width, s.Height)
}

// Field returns the warp field over every body in the scene
func (s *Scene) Field() *warp.Field {
	return warp.NewField(s.Catalog, s.Warp)
}

// NewMeshStore builds the warped grid once and returns a store holding it
func (s *Scene) NewMeshStore() (*warp.MeshStore, error) {
	store := warp.NewMeshStore(s.Grid, s.Warp)
	if _, err := store.Rebuild(s.Catalog); err != nil {
		return nil, err
	}
	return store, nil
}

// SchwarzschildRadius returns r_s of the scene's black hole
func (s *Scene) SchwarzschildRadius() float64 {
	return s.Catalog.BlackHole().SchwarzschildRadius()
}

// WithCamera returns a copy of the scene viewed from a different orbit position
func (s *Scene) WithCamera(orbit renderer.OrbitCamera) *Scene {
	copied := *s
	copied.Camera = orbit
	return &copied
}

// WithSize returns a copy of the scene rendered at a different size
func (s *Scene) WithSize(width, height int) (*Scene, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("image size must be positive, got %dx%d", width, height)
	}
	copied := *s
	copied.Width, copied.Height = width, height
	return &copied, nil
}

// Eye returns the camera position
func (s *Scene) Eye() core.Vec3 {
	return s.Camera.Position()
}
