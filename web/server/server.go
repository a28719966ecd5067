package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/renderer"
	"github.com/df07/go-geodesic-raytracer/pkg/scene"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

// Request limits shared by every endpoint
const (
	DefaultTileSize = 64
	DefaultWidth    = 400
	DefaultHeight   = 300
	MinImageSize    = 16
	MaxImageSize    = 2000
)

// Server handles web requests for the geodesic raytracer
type Server struct {
	port      int
	staticDir string

	mu     sync.Mutex
	meshes map[string]*warp.MeshStore // keyed by scene ID
}

// NewServer creates a new web server
func NewServer(port int) *Server {
	return &Server{
		port:      port,
		staticDir: "static/",
		meshes:    make(map[string]*warp.MeshStore),
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene              string            `json:"scene"`              // Scene ID from /api/scenes
	Width              int               `json:"width"`              // Image width
	Height             int               `json:"height"`             // Image height
	Scheme             integrator.Scheme `json:"scheme"`             // Integration scheme
	MaxSamples         int               `json:"maxSamples"`         // Maximum samples per pixel
	MaxPasses          int               `json:"maxPasses"`          // Maximum number of passes
	AdaptiveMinSamples float64           `json:"adaptiveMinSamples"` // Fraction of samples always taken
	AdaptiveThreshold  float64           `json:"adaptiveThreshold"`  // Relative error threshold
	Grid               bool              `json:"grid"`               // Draw the warp grid over pass images

	Camera renderer.OrbitCamera `json:"camera"` // Orbit position
}

// WithStaticDir sets the directory the front end is served from
func (s *Server) WithStaticDir(dir string) *Server {
	s.staticDir = dir
	return s
}

// Handler returns the HTTP handler with every route registered
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Serve static files
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))

	// API endpoints
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/grid", s.handleGrid)
	mux.HandleFunc("/api/inspect", s.handleInspect)

	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and scene files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// parseCommonSceneParams loads the requested scene and applies the image and
// camera parameters shared by render, grid and inspect requests. Parameters
// that are absent keep the scene's values.
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) (*scene.Scene, error) {
	values := r.URL.Query()

	req.Scene = values.Get("scene")
	if req.Scene == "" {
		req.Scene = scene.DefaultSceneName
	}
	sceneObj, err := scene.Load(req.Scene)
	if err != nil {
		return nil, err
	}

	if req.Width, err = parseIntParam(values, "width", DefaultWidth, MinImageSize, MaxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(values, "height", DefaultHeight, MinImageSize, MaxImageSize); err != nil {
		return nil, err
	}

	req.Scheme = sceneObj.Integrator.Scheme
	if name := values.Get("scheme"); name != "" {
		if req.Scheme, err = integrator.ParseScheme(name); err != nil {
			return nil, err
		}
	}

	orbit := sceneObj.Camera
	if orbit.Azimuth, err = parseFloatParam(values, "azimuth", orbit.Azimuth, -1e6, 1e6); err != nil {
		return nil, err
	}
	if orbit.Elevation, err = parseFloatParam(values, "elevation", orbit.Elevation, renderer.MinElevation, renderer.MaxElevation); err != nil {
		return nil, err
	}
	if orbit.Radius, err = parseFloatParam(values, "radius", orbit.Radius, renderer.MinOrbitRadius, renderer.MaxOrbitRadius); err != nil {
		return nil, err
	}
	req.Camera = orbit

	sized, err := sceneObj.WithSize(req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	configured := sized.WithCamera(orbit)
	configured.Integrator.Scheme = req.Scheme
	return configured, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseBoolParam parses a boolean parameter from URL query
func parseBoolParam(values url.Values, key string, defaultValue bool) (bool, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %s", key, value)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// meshStore returns the cached warp grid store for a scene, building it on first use
func (s *Server) meshStore(id string, sceneObj *scene.Scene) (*warp.MeshStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.meshes[id]; ok {
		return store, nil
	}
	store, err := sceneObj.NewMeshStore()
	if err != nil {
		return nil, err
	}
	s.meshes[id] = store
	return store, nil
}

// handleSceneConfig returns the configuration of a scene with validation limits
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	sceneObj, err := s.parseCommonSceneParams(r, req)
	if err != nil {
		writeSceneError(w, err)
		return
	}

	bodies := make([]map[string]interface{}, 0, sceneObj.Catalog.Len())
	for _, b := range sceneObj.Catalog.All() {
		bodies = append(bodies, map[string]interface{}{
			"name":                b.Name,
			"kind":                b.Kind.String(),
			"position":            [3]float64{b.Position.X, b.Position.Y, b.Position.Z},
			"mass":                b.Mass,
			"schwarzschildRadius": b.SchwarzschildRadius(),
			"visualRadius":        b.VisualRadius,
			"color":               hexColor(b.Color.X, b.Color.Y, b.Color.Z),
		})
	}

	cfg := sceneObj.Integrator
	response := map[string]interface{}{
		"scene":       req.Scene,
		"name":        sceneObj.Name,
		"description": sceneObj.Description,
		"bodies":      bodies,
		"defaults": map[string]interface{}{
			"width":           sceneObj.Width,
			"height":          sceneObj.Height,
			"maxSamples":      sceneObj.Progressive.MaxSamplesPerPixel,
			"maxPasses":       sceneObj.Progressive.MaxPasses,
			"scheme":          cfg.Scheme.String(),
			"azimuth":         sceneObj.Camera.Azimuth,
			"elevation":       sceneObj.Camera.Elevation,
			"radius":          sceneObj.Camera.Radius,
			"fov":             sceneObj.VFov,
			"baseStep":        cfg.BaseStep,
			"maxSteps":        cfg.MaxSteps,
			"escapeRadius":    cfg.EscapeRadius,
			"diskInner":       cfg.DiskInner,
			"diskOuter":       cfg.DiskOuter,
			"gridSize":        sceneObj.Grid.Size,
			"gridSpacing":     sceneObj.Grid.Spacing,
			"adaptiveMinimum": sceneObj.Progressive.Sampling.AdaptiveMinSamples,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": MinImageSize, "max": MaxImageSize},
			"height":     map[string]int{"min": MinImageSize, "max": MaxImageSize},
			"maxSamples": map[string]int{"min": 1, "max": 10000},
			"maxPasses":  map[string]int{"min": 1, "max": 10000},
			"elevation":  map[string]float64{"min": renderer.MinElevation, "max": renderer.MaxElevation},
			"radius":     map[string]float64{"min": renderer.MinOrbitRadius, "max": renderer.MaxOrbitRadius},
		},
	}

	writeJSON(w, http.StatusOK, response)
}

// GridResponse is the JSON form of the warped reference grid
type GridResponse struct {
	Scene    string       `json:"scene"`
	Version  uint64       `json:"version"`
	Size     int          `json:"size"`
	Spacing  float64      `json:"spacing"`
	Vertices [][3]float64 `json:"vertices"`
	Indices  []uint32     `json:"indices"`
}

// handleGrid returns the warped grid mesh of a scene
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	sceneObj, err := s.parseCommonSceneParams(r, req)
	if err != nil {
		writeSceneError(w, err)
		return
	}

	store, err := s.meshStore(req.Scene, sceneObj)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newGridResponse(req.Scene, store))
}

func newGridResponse(id string, store *warp.MeshStore) GridResponse {
	mesh := store.Current()
	vertices := make([][3]float64, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		vertices[i] = [3]float64{v.X, v.Y, v.Z}
	}
	return GridResponse{
		Scene:    id,
		Version:  store.Version(),
		Size:     mesh.Spec.Size,
		Spacing:  mesh.Spec.Spacing,
		Vertices: vertices,
		Indices:  mesh.Indices,
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeSceneError reports unknown scenes as 404 and everything else as a bad request
func writeSceneError(w http.ResponseWriter, err error) {
	if errors.Is(err, scene.ErrUnknownScene) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
}

func hexColor(r, g, b float64) string {
	to8 := func(v float64) int {
		return int(min(max(v, 0), 1)*255 + 0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", to8(r), to8(g), to8(b))
}
