package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"golang.org/x/image/draw"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/renderer"
	"github.com/df07/go-geodesic-raytracer/pkg/scene"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

// overrides holds the command line values that replace scene settings.
// Pointer fields are nil when the flag was not given.
type overrides struct {
	width, height int
	scheme        string
	azimuth       *float64
	elevation     *float64
	radius        *float64
	samples       int
	passes        int
	workers       int
}

// frameOptions controls how a single frame is rendered and finished
type frameOptions struct {
	ssaa    int  // supersampling factor, 1 renders at the output size
	grid    bool // draw the warp grid over the frame
	caption bool // write scene and camera info in the corner
}

func main() {
	// Parse command line flags
	sceneID := flag.String("scene", scene.DefaultSceneName, "Scene ID: a built-in name or file:<name> from the scenes directory")
	configPath := flag.String("config", "", "Path to a scene .ini file (overrides -scene)")
	width := flag.Int("width", 0, "Image width (0 keeps the scene value)")
	height := flag.Int("height", 0, "Image height (0 keeps the scene value)")
	scheme := flag.String("scheme", "", "Integration scheme: rk4 or euler")
	azimuth := flag.Float64("azimuth", 0, "Camera azimuth in radians")
	elevation := flag.Float64("elevation", 0, "Camera elevation from +Y in radians")
	radius := flag.Float64("radius", 0, "Camera orbit radius in meters")
	samples := flag.Int("samples", 0, "Maximum samples per pixel (0 keeps the scene value)")
	passes := flag.Int("passes", 0, "Maximum progressive passes (0 keeps the scene value)")
	workers := flag.Int("workers", 0, "Number of render workers (0 = CPU count)")
	grid := flag.Bool("grid", false, "Draw the warped reference grid over the image")
	ssaa := flag.Int("ssaa", 1, "Supersampling factor; the frame is rendered larger and downscaled")
	caption := flag.Bool("caption", false, "Write scene and camera info on the image")
	frames := flag.Int("frames", 0, "Render a turntable of this many frames instead of a single image")
	gifDelay := flag.Int("gif-delay", 8, "Delay between turntable frames in 100ths of a second")
	meshOut := flag.Bool("mesh", false, "Also write the warped grid mesh as JSON")
	drift := flag.Int("drift", 0, "Print an energy drift chart over this many steps and exit")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	// Show help if requested
	if *help {
		fmt.Println("Geodesic Raytracer")
		fmt.Println("Usage: raytracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Available scenes:")
		for _, info := range scene.ListBuiltinScenes() {
			fmt.Printf("  %-12s - %s\n", info.ID, info.Description)
		}
		if files, err := scene.ListFileScenes(); err == nil {
			for _, info := range files {
				fmt.Printf("  %-12s - %s\n", info.ID, info.Description)
			}
		}
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
		return
	}

	o := overrides{
		width:   *width,
		height:  *height,
		scheme:  *scheme,
		samples: *samples,
		passes:  *passes,
		workers: *workers,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "azimuth":
			o.azimuth = azimuth
		case "elevation":
			o.elevation = elevation
		case "radius":
			o.radius = radius
		}
	})

	fmt.Println("Starting Geodesic Raytracer...")

	selectedScene, err := createScene(*sceneID, *configPath)
	if err != nil {
		fmt.Printf("Error loading scene: %v\n", err)
		os.Exit(1)
	}
	selectedScene, err = applyOverrides(selectedScene, o)
	if err != nil {
		fmt.Printf("Error applying options: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Using scene %q (%d bodies, r_s = %.4g m, scheme %s)\n",
		selectedScene.Name, selectedScene.Catalog.Len(), selectedScene.SchwarzschildRadius(), selectedScene.Integrator.Scheme)

	if *drift > 0 {
		chart, err := driftChart(selectedScene, *drift)
		if err != nil {
			fmt.Printf("Error computing drift: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(chart)
		return
	}

	outputDir := createOutputDir(*sceneID, *configPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	timestamp := time.Now().Format("20060102_150405")

	ctx := context.Background()
	opts := frameOptions{ssaa: *ssaa, grid: *grid, caption: *caption}
	logger := renderer.NewDefaultLogger()

	if *meshOut {
		filename := filepath.Join(outputDir, fmt.Sprintf("mesh_%s.json", timestamp))
		if err := writeMesh(filename, selectedScene); err != nil {
			fmt.Printf("Error writing mesh: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Mesh saved as %s\n", filename)
	}

	startTime := time.Now()
	if *frames > 0 {
		images, err := renderTurntable(ctx, selectedScene, *frames, opts, logger)
		if err != nil {
			fmt.Printf("Error rendering turntable: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Turntable of %d frames completed in %v\n", len(images), time.Since(startTime))

		filename := filepath.Join(outputDir, fmt.Sprintf("turntable_%s.gif", timestamp))
		if err := writeGIF(filename, images, *gifDelay); err != nil {
			fmt.Printf("Error saving GIF: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Turntable saved as %s\n", filename)
		return
	}

	img, stats, err := renderFrame(ctx, selectedScene, opts, logger)
	if err != nil {
		fmt.Printf("Error rendering: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render completed in %v\n", time.Since(startTime))
	fmt.Printf("Samples per pixel: %.1f (range %d - %d), %.0f steps/ray\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, stats.MeanSteps())
	for _, outcome := range integrator.Outcomes {
		fmt.Printf("  %-9s %d rays\n", outcome, stats.Count(outcome))
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	if err := writePNG(filename, img); err != nil {
		fmt.Printf("Error saving PNG: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", filename)
}

// createScene loads a scene from an explicit config file, or else by scene ID
func createScene(sceneID, configPath string) (*scene.Scene, error) {
	if configPath != "" {
		cfg, err := scene.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		return scene.Build(cfg)
	}
	if sceneID == "" {
		return nil, errors.New("no scene given")
	}
	return scene.Load(sceneID)
}

// createOutputDir names the output directory after the scene or config file
func createOutputDir(sceneID, configPath string) string {
	name := strings.TrimPrefix(sceneID, "file:")
	if configPath != "" {
		name = strings.TrimSuffix(filepath.Base(configPath), filepath.Ext(configPath))
	}
	if name == "" {
		name = scene.DefaultSceneName
	}
	return filepath.Join("output", name)
}

// applyOverrides returns a copy of the scene with the command line values applied
func applyOverrides(s *scene.Scene, o overrides) (*scene.Scene, error) {
	width, height := s.Width, s.Height
	if o.width > 0 {
		width = o.width
	}
	if o.height > 0 {
		height = o.height
	}
	out, err := s.WithSize(width, height)
	if err != nil {
		return nil, err
	}

	if o.scheme != "" {
		scheme, err := integrator.ParseScheme(o.scheme)
		if err != nil {
			return nil, err
		}
		out.Integrator.Scheme = scheme
	}

	orbit := out.Camera
	if o.azimuth != nil {
		orbit.Azimuth = *o.azimuth
	}
	if o.elevation != nil {
		if *o.elevation < renderer.MinElevation || *o.elevation > renderer.MaxElevation {
			return nil, fmt.Errorf("elevation must be between %g and %g, got %g", renderer.MinElevation, renderer.MaxElevation, *o.elevation)
		}
		orbit.Elevation = *o.elevation
	}
	if o.radius != nil {
		if *o.radius < renderer.MinOrbitRadius || *o.radius > renderer.MaxOrbitRadius {
			return nil, fmt.Errorf("radius must be between %g and %g, got %g", renderer.MinOrbitRadius, renderer.MaxOrbitRadius, *o.radius)
		}
		orbit.Radius = *o.radius
	}
	out = out.WithCamera(orbit)

	if o.samples > 0 {
		out.Progressive.MaxSamplesPerPixel = o.samples
		out.Progressive.InitialSamples = min(out.Progressive.InitialSamples, o.samples)
	}
	if o.passes > 0 {
		out.Progressive.MaxPasses = o.passes
	}
	if o.workers > 0 {
		out.Progressive.NumWorkers = o.workers
	}
	if err := out.Progressive.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// renderFrame renders the scene at ssaa times its size, scales it down and
// composites it over black with the optional grid and caption
func renderFrame(ctx context.Context, s *scene.Scene, opts frameOptions, logger core.Logger) (*image.NRGBA, renderer.RenderStats, error) {
	ssaa := max(opts.ssaa, 1)
	large, err := s.WithSize(s.Width*ssaa, s.Height*ssaa)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}
	snapshot, err := large.Snapshot()
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}
	raytracer, err := renderer.NewProgressiveRaytracer(snapshot, large.CameraState(), large.Width, large.Height, large.Progressive, logger)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}
	img, stats, err := raytracer.Render(ctx)
	if err != nil {
		return nil, renderer.RenderStats{}, err
	}

	var frame image.Image = img
	if ssaa > 1 {
		scaled := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		frame = scaled
	}

	var mesh *warp.Mesh
	if opts.grid {
		store, err := s.NewMeshStore()
		if err != nil {
			return nil, renderer.RenderStats{}, err
		}
		mesh = store.Current()
	}
	out := renderer.Compose(frame, mesh, s.CameraState(), renderer.DefaultOverlayStyle())
	if opts.caption {
		renderer.DrawCaption(out, s.Name, fmt.Sprintf("%s  az %.2f  el %.2f  r %.3g m",
			s.Integrator.Scheme, s.Camera.Azimuth, s.Camera.Elevation, s.Camera.Radius))
	}
	return out, stats, nil
}

// renderTurntable renders frames evenly spaced in azimuth around the full orbit
func renderTurntable(ctx context.Context, s *scene.Scene, frames int, opts frameOptions, logger core.Logger) ([]*image.NRGBA, error) {
	if frames < 1 {
		return nil, fmt.Errorf("frame count must be at least 1, got %d", frames)
	}
	images := make([]*image.NRGBA, 0, frames)
	start := s.Camera
	for i := 0; i < frames; i++ {
		orbit := start
		orbit.Azimuth = start.Azimuth + 2*math.Pi*float64(i)/float64(frames)
		img, _, err := renderFrame(ctx, s.WithCamera(orbit), opts, logger)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i+1, err)
		}
		images = append(images, img)
		fmt.Printf("Frame %d/%d done\n", i+1, frames)
	}
	return images, nil
}

// writePNG saves an image as PNG
func writePNG(filename string, img image.Image) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}

// writeGIF dithers the frames to the Plan 9 palette and saves a looping GIF
func writeGIF(filename string, frames []*image.NRGBA, delay int) error {
	anim := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		paletted := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, frame.Bounds(), frame, frame.Bounds().Min)
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return gif.EncodeAll(file, anim)
}

// meshJSON is the file form of the warped grid
type meshJSON struct {
	Scene    string       `json:"scene"`
	Size     int          `json:"size"`
	Spacing  float64      `json:"spacing"`
	Vertices [][3]float64 `json:"vertices"`
	Indices  []uint32     `json:"indices"`
}

// writeMesh builds the scene's warped grid and saves it as JSON
func writeMesh(filename string, s *scene.Scene) error {
	store, err := s.NewMeshStore()
	if err != nil {
		return err
	}
	mesh := store.Current()
	out := meshJSON{
		Scene:    s.Name,
		Size:     mesh.Spec.Size,
		Spacing:  mesh.Spec.Spacing,
		Vertices: make([][3]float64, len(mesh.Vertices)),
		Indices:  mesh.Indices,
	}
	for i, v := range mesh.Vertices {
		out.Vertices[i] = [3]float64{v.X, v.Y, v.Z}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// driftSeries replays the ray through the point halfway between the image
// centre and its right edge with both schemes and returns the relative energy
// drift of each, Euler first
func driftSeries(s *scene.Scene, steps int) (euler, rk4 []float64) {
	camera := s.CameraState()
	rs := s.SchwarzschildRadius()
	sample := camera.InitialSample(camera.RayDirection(0.5, 0), rs, s.Integrator)
	cfg := s.Integrator
	cfg.Scheme = integrator.SchemeEuler
	euler = integrator.Drift(sample, rs, cfg, steps)
	cfg.Scheme = integrator.SchemeRK4
	rk4 = integrator.Drift(sample, rs, cfg, steps)
	return euler, rk4
}

// driftChart plots both drift series in parts per million
func driftChart(s *scene.Scene, steps int) (string, error) {
	euler, rk4 := driftSeries(s, steps)
	if len(euler) == 0 || len(rk4) == 0 {
		return "", errors.New("ray terminated before the first step")
	}

	toPPM := func(series []float64) []float64 {
		out := make([]float64, len(series))
		for i, v := range series {
			out[i] = v * 1e6
		}
		return out
	}
	chart := asciigraph.PlotMany([][]float64{toPPM(euler), toPPM(rk4)},
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
		asciigraph.Caption("relative energy drift (ppm): euler red, rk4 green"))

	summary := fmt.Sprintf("max drift over %d steps: euler %.3g, rk4 %.3g",
		steps, integrator.MaxDrift(euler), integrator.MaxDrift(rk4))
	return chart + "\n" + summary, nil
}
