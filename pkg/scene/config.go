package scene

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/physics"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

// Config is the file form of a scene. Files are read over a base config, so a
// variable missing from the file keeps the base value.
//
//	[scene]
//	name = Wide Binary
//	base = binary-star
//
//	[integrator]
//	scheme = euler
//	maxSteps = 5000
//
//	[body "companion"]
//	x = 9e10
//	radius = 1.2e10
type Config struct {
	Scene      SceneSection
	Physics    PhysicsSection
	Integrator integrator.Config
	Warp       warp.Params
	Grid       warp.GridSpec
	Camera     CameraSection
	Render     RenderSection
	Body       map[string]*BodyConfig
}

// SceneSection carries metadata shown by scene listings
type SceneSection struct {
	Name        string
	Description string
	Group       string
	Base        string // built-in scene the file starts from
}

// PhysicsSection configures the black hole
type PhysicsSection struct {
	Mass float64 // kg
}

// CameraSection places the orbit camera
type CameraSection struct {
	Azimuth   float64 // radians
	Elevation float64 // radians from +Y
	Radius    float64 // meters
	Fov       float64 // vertical, degrees
}

// RenderSection sets the image size and pass schedule
type RenderSection struct {
	Width    int
	Height   int
	Samples  int // max samples per pixel
	Passes   int
	TileSize int
	Workers  int // 0 = CPU count
}

// BodyConfig describes one scene body
type BodyConfig struct {
	// Required
	Radius float64 // visual radius, meters

	// Optional
	X, Y, Z     float64
	Mass        float64 // kg
	SolarMasses float64 // used when Mass is unset
	R, G, B     float64 // linear color, white when all zero
	Material    string  // headlamp, emissive or bands
	Name        string
}

// Material names accepted in body sections
const (
	MaterialHeadlamp = "headlamp"
	MaterialEmissive = "emissive"
	MaterialBands    = "bands"
)

// CheckInit validates a body section and fills in defaults
func (b *BodyConfig) CheckInit(name string) error {
	if b.Radius <= 0 || math.IsNaN(b.Radius) {
		return fmt.Errorf("need to specify a positive radius for body '%s'", name)
	}
	if b.Mass == 0 && b.SolarMasses != 0 {
		b.Mass = b.SolarMasses * physics.SolarMass
	}
	if b.Mass <= 0 {
		return fmt.Errorf("need to specify a positive mass or solarMasses for body '%s'", name)
	}

	b.Name = name
	if b.R == 0 && b.G == 0 && b.B == 0 {
		b.R, b.G, b.B = 1, 1, 1
	}
	b.Material = strings.ToLower(strings.TrimSpace(b.Material))
	switch b.Material {
	case "":
		b.Material = MaterialHeadlamp
	case MaterialHeadlamp, MaterialEmissive, MaterialBands:
	default:
		return fmt.Errorf("unknown material %q for body '%s'", b.Material, name)
	}
	return nil
}

// Position returns the body centre
func (b *BodyConfig) Position() core.Vec3 {
	return core.NewVec3(b.X, b.Y, b.Z)
}

// Color returns the body color
func (b *BodyConfig) Color() core.Vec3 {
	return core.NewVec3(b.R, b.G, b.B)
}

// CheckInit validates every section
func (c *Config) CheckInit() error {
	if c.Physics.Mass <= 0 || math.IsNaN(c.Physics.Mass) || math.IsInf(c.Physics.Mass, 0) {
		return fmt.Errorf("need to specify a positive black hole mass, got %g", c.Physics.Mass)
	}
	if err := c.Integrator.Validate(); err != nil {
		return err
	}
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if c.Camera.Radius <= 0 {
		return fmt.Errorf("camera radius must be positive, got %g", c.Camera.Radius)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("camera fov must be in (0, 180) degrees, got %g", c.Camera.Fov)
	}
	if c.Render.Width < 1 || c.Render.Height < 1 {
		return fmt.Errorf("image size must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	for _, name := range c.BodyNames() {
		if err := c.Body[name].CheckInit(name); err != nil {
			return err
		}
	}
	return nil
}

// BodyNames returns the body section names in a stable order
func (c *Config) BodyNames() []string {
	names := make([]string, 0, len(c.Body))
	for name := range c.Body {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy
func (c Config) Clone() Config {
	out := c
	out.Body = make(map[string]*BodyConfig, len(c.Body))
	for name, b := range c.Body {
		copied := *b
		out.Body[name] = &copied
	}
	return out
}

// ReadConfigString reads gcfg text over base and validates the result
func ReadConfigString(base Config, text string) (Config, error) {
	cfg := base.Clone()
	if err := gcfg.ReadStringInto(&cfg, text); err != nil {
		return Config{}, err
	}
	if err := cfg.CheckInit(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ReadConfigFile reads a gcfg file over base and validates the result
func ReadConfigFile(base Config, path string) (Config, error) {
	cfg := base.Clone()
	if err := gcfg.ReadFileInto(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := cfg.CheckInit(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFile reads a scene file over the built-in scene named by its
// [scene] base variable, or the default scene when base is unset.
func LoadConfigFile(path string) (Config, error) {
	var header struct{ Scene SceneSection }
	if err := gcfg.FatalOnly(gcfg.ReadFileInto(&header, path)); err != nil {
		return Config{}, err
	}

	baseName := header.Scene.Base
	if baseName == "" {
		baseName = DefaultSceneName
	}
	base, err := BuiltinConfig(baseName)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return ReadConfigFile(base, path)
}
