package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/renderer"
	"github.com/df07/go-geodesic-raytracer/pkg/scene"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

// TileUpdate represents a single tile update sent via SSE
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`  // Current tile number in this pass (1-based)
	TotalTiles  int    `json:"totalTiles"`  // Total number of tiles in the image
	TotalPasses int    `json:"totalPasses"` // Total number of passes planned
}

// PassUpdate is sent when a pass finishes
type PassUpdate struct {
	Event          string         `json:"event"`
	PassNumber     int            `json:"passNumber"`
	TotalPasses    int            `json:"totalPasses"`
	ElapsedMs      int64          `json:"elapsedMs"`
	TotalPixels    int            `json:"totalPixels"`
	TotalSamples   int            `json:"totalSamples"`
	AverageSamples float64        `json:"averageSamples"`
	MaxSamples     int            `json:"maxSamples"`
	MinSamples     int            `json:"minSamples"`
	MaxSamplesUsed int            `json:"maxSamplesUsed"`
	Outcomes       map[string]int `json:"outcomes"`  // rays per outcome this pass
	MeanSteps      float64        `json:"meanSteps"` // integration steps per ray this pass
	ImageData      string         `json:"imageData,omitempty"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "tile", "passComplete", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderingPipeline contains the configured scene and raytracer
type RenderingPipeline struct {
	Scene     *scene.Scene
	Camera    renderer.CameraState
	Mesh      *warp.Mesh // nil unless the grid overlay was requested
	Raytracer *renderer.ProgressiveRaytracer
}

// handleRender handles progressive rendering with real-time tile streaming via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx := r.Context()

	// Single writer goroutine; done closes once it has flushed everything
	sseEventChan := make(chan SSEEvent, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-done
	}()

	req, sceneObj, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	defer func() {
		close(consoleChan)
		<-consoleDone
	}()

	pipeline, err := s.setupRenderingPipeline(req, sceneObj, webLogger)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}

	startTime := time.Now()
	renderOptions := renderer.RenderOptions{TileUpdates: true}
	passChan, tileChan, errChan := pipeline.Raytracer.RenderProgressive(ctx, renderOptions)

	s.handleRenderingEvents(ctx, sseEventChan, passChan, tileChan, errChan, pipeline, req, startTime)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}

			// Check if client is still connected before writing
			if ctx.Err() != nil {
				continue
			}

			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
				continue
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}

		case <-ctx.Done():
			// Client disconnected; drain until the handler closes the channel
			for range sseEventChan {
			}
			return
		}
	}
}

// streamConsoleMessages forwards console messages as SSE events until consoleChan closes
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		if ctx.Err() != nil {
			continue
		}

		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, *scene.Scene, error) {
	req := &RenderRequest{}

	sceneObj, err := s.parseCommonSceneParams(r, req)
	if err != nil {
		return nil, nil, err
	}

	values := r.URL.Query()
	if req.MaxSamples, err = parseIntParam(values, "maxSamples", sceneObj.Progressive.MaxSamplesPerPixel, 1, 10000); err != nil {
		return nil, nil, err
	}
	if req.MaxPasses, err = parseIntParam(values, "maxPasses", sceneObj.Progressive.MaxPasses, 1, 10000); err != nil {
		return nil, nil, err
	}
	sampling := sceneObj.Progressive.Sampling
	if req.AdaptiveMinSamples, err = parseFloatParam(values, "adaptiveMinSamples", sampling.AdaptiveMinSamples, 0.01, 1.0); err != nil {
		return nil, nil, err
	}
	if req.AdaptiveThreshold, err = parseFloatParam(values, "adaptiveThreshold", sampling.AdaptiveThreshold, 0.001, 0.5); err != nil {
		return nil, nil, err
	}
	if req.Grid, err = parseBoolParam(values, "grid", false); err != nil {
		return nil, nil, err
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.MaxSamples > 64 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}

	return req, sceneObj, nil
}

// setupRenderingPipeline creates the snapshot, camera and raytracer for a request
func (s *Server) setupRenderingPipeline(req *RenderRequest, sceneObj *scene.Scene, logger core.Logger) (*RenderingPipeline, error) {
	snapshot, err := sceneObj.Snapshot()
	if err != nil {
		return nil, err
	}

	config := sceneObj.Progressive
	config.TileSize = DefaultTileSize
	config.MaxSamplesPerPixel = req.MaxSamples
	config.MaxPasses = req.MaxPasses
	config.InitialSamples = min(config.InitialSamples, req.MaxSamples)
	config.NumWorkers = 0 // Auto-detect
	config.Sampling = renderer.SamplingConfig{
		AdaptiveMinSamples: req.AdaptiveMinSamples,
		AdaptiveThreshold:  req.AdaptiveThreshold,
	}

	camera := sceneObj.CameraState()
	raytracer, err := renderer.NewProgressiveRaytracer(snapshot, camera, req.Width, req.Height, config, logger)
	if err != nil {
		return nil, err
	}

	pipeline := &RenderingPipeline{Scene: sceneObj, Camera: camera, Raytracer: raytracer}
	if req.Grid {
		store, err := s.meshStore(req.Scene, sceneObj)
		if err != nil {
			raytracer.Close()
			return nil, err
		}
		pipeline.Mesh = store.Current()
	}

	logger.Printf("Scene %q: %d bodies, r_s = %.4g m, scheme %s\n",
		sceneObj.Name, sceneObj.Catalog.Len(), sceneObj.SchwarzschildRadius(), sceneObj.Integrator.Scheme)
	return pipeline, nil
}

// handleRenderingEvents processes the main rendering event loop
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, tileChan <-chan renderer.TileCompletionResult, errChan <-chan error,
	pipeline *RenderingPipeline, req *RenderRequest, startTime time.Time) {

	for passChan != nil || tileChan != nil {
		select {
		case passResult, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			s.handlePassComplete(ctx, sseEventChan, passResult, req, pipeline, startTime)

		case tileResult, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			s.handleTileUpdate(ctx, sseEventChan, tileResult)

		case <-ctx.Done():
			// Client disconnected; wait for the render goroutine so it stops logging
			for range errChan {
			}
			return
		}
	}

	if err := <-errChan; err != nil {
		if !errors.Is(err, context.Canceled) {
			s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		}
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
	case <-ctx.Done():
	}
}

// handlePassComplete processes and sends pass completion events
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult, req *RenderRequest, pipeline *RenderingPipeline, startTime time.Time) {
	if ctx.Err() != nil {
		return
	}

	stats := passResult.Stats
	outcomes := make(map[string]int, len(integrator.Outcomes))
	for _, o := range integrator.Outcomes {
		outcomes[o.String()] = stats.Count(o)
	}

	passUpdate := PassUpdate{
		Event:          "passComplete",
		PassNumber:     passResult.PassNumber,
		TotalPasses:    req.MaxPasses,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		TotalPixels:    stats.TotalPixels,
		TotalSamples:   stats.TotalSamples,
		AverageSamples: stats.AverageSamples,
		MaxSamples:     stats.MaxSamples,
		MinSamples:     stats.MinSamples,
		MaxSamplesUsed: stats.MaxSamplesUsed,
		Outcomes:       outcomes,
		MeanSteps:      stats.MeanSteps(),
	}

	if pipeline.Mesh != nil {
		composed := renderer.Compose(passResult.Image, pipeline.Mesh, pipeline.Camera, renderer.DefaultOverlayStyle())
		imageData, err := s.imageToBase64PNG(composed)
		if err != nil {
			log.Printf("Error encoding pass image: %v", err)
		} else {
			passUpdate.ImageData = imageData
		}
	}

	data, err := json.Marshal(passUpdate)
	if err != nil {
		log.Printf("Error marshaling pass update: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "passComplete", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleTileUpdate processes and sends tile update events
func (s *Server) handleTileUpdate(ctx context.Context, sseEventChan chan<- SSEEvent, tileResult renderer.TileCompletionResult) {
	if ctx.Err() != nil {
		return
	}

	tileData, err := s.imageToBase64PNG(tileResult.TileImage)
	if err != nil {
		log.Printf("Error encoding tile image (%d, %d): %v", tileResult.TileX, tileResult.TileY, err)
		return
	}

	update := TileUpdate{
		TileX:       tileResult.TileX,
		TileY:       tileResult.TileY,
		ImageData:   tileData,
		PassNumber:  tileResult.PassNumber,
		TileNumber:  tileResult.TileNumber,
		TotalTiles:  tileResult.TotalTiles,
		TotalPasses: tileResult.TotalPasses,
	}

	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Error marshaling tile update: %v", err)
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "tile", Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
