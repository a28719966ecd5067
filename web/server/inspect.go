package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/material"
	"github.com/df07/go-geodesic-raytracer/pkg/renderer"
	"github.com/df07/go-geodesic-raytracer/pkg/scene"
)

// maxDriftSteps bounds the energy-drift replay of an inspected ray
const maxDriftSteps = 2000

// InspectResponse represents the JSON response for single-pixel inspection
type InspectResponse struct {
	Outcome      string                 `json:"outcome"`
	Steps        int                    `json:"steps"`
	Color        string                 `json:"color"`
	Alpha        float64                `json:"alpha"`
	Point        [3]float64             `json:"point"`
	Radius       float64                `json:"radius"`   // r at termination
	RadiusRs     float64                `json:"radiusRs"` // r at termination in units of r_s
	Energy       float64                `json:"energy"`   // E fixed at launch
	MaxDrift     float64                `json:"maxDrift"` // largest relative energy error over the replay
	DriftSteps   int                    `json:"driftSteps"`
	Scheme       string                 `json:"scheme"`
	DiskT        *float64               `json:"diskT,omitempty"`
	Body         string                 `json:"body,omitempty"`
	MaterialType string                 `json:"materialType,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// extractMaterialInfo extracts material information with type assertions
func (s *Server) extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Emissive:
		properties["emission"] = [3]float64{m.Emission.X, m.Emission.Y, m.Emission.Z}
		properties["color"] = hexColor(m.Emission.X, m.Emission.Y, m.Emission.Z)
		return "emissive", properties

	case *material.Headlamp:
		properties["ambient"] = material.Ambient
		switch albedo := m.Albedo.(type) {
		case *material.SolidColor:
			c := albedo.Color
			properties["albedo"] = [3]float64{c.X, c.Y, c.Z}
			properties["color"] = hexColor(c.X, c.Y, c.Z)
		case *material.LatitudeBands:
			bands := make([]string, len(albedo.Colors))
			for i, c := range albedo.Colors {
				bands[i] = hexColor(c.X, c.Y, c.Z)
			}
			properties["bands"] = bands
		}
		return "headlamp", properties

	default:
		return "unknown", properties
	}
}

// inspectPixel traces the ray through the centre of a pixel
func (s *Server) inspectPixel(sceneObj *scene.Scene, pixelX, pixelY int) (InspectResponse, error) {
	snapshot, err := sceneObj.Snapshot()
	if err != nil {
		return InspectResponse{}, err
	}
	camera := sceneObj.CameraState()
	ndcX, ndcY := renderer.PixelNDC(pixelX, pixelY, 0.5, 0.5, sceneObj.Width, sceneObj.Height)
	color, res := renderer.TracePixel(camera, ndcX, ndcY, snapshot)

	rs := snapshot.SchwarzschildRadius()
	sample := camera.InitialSample(camera.RayDirection(ndcX, ndcY), rs, snapshot.Integrator)
	drift := integrator.Drift(sample, rs, snapshot.Integrator, min(res.Steps, maxDriftSteps))

	response := InspectResponse{
		Outcome:    res.Outcome.String(),
		Steps:      res.Steps,
		Color:      hexColor(color.R, color.G, color.B),
		Alpha:      color.A,
		Point:      [3]float64{res.Position.X, res.Position.Y, res.Position.Z},
		Radius:     res.Final.R,
		RadiusRs:   res.Final.R / rs,
		Energy:     sample.E,
		MaxDrift:   integrator.MaxDrift(drift),
		DriftSteps: len(drift),
		Scheme:     snapshot.Integrator.Scheme.String(),
	}

	switch res.Outcome {
	case integrator.DiskHit:
		t := res.DiskT
		response.DiskT = &t
	case integrator.ObjectHit:
		if res.BodyIndex >= 0 && res.BodyIndex < len(snapshot.Occluders()) {
			body := snapshot.Occluders()[res.BodyIndex]
			response.Body = body.Name
			if res.BodyIndex < len(sceneObj.Materials) {
				response.MaterialType, response.Properties = s.extractMaterialInfo(sceneObj.Materials[res.BodyIndex])
			}
		}
	}

	return response, nil
}

// handleInspect handles single-pixel trace requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}
	sceneObj, err := s.parseCommonSceneParams(r, inspectReq)
	if err != nil {
		writeSceneError(w, err)
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Pixel (%d, %d) out of bounds for %dx%d", pixelX, pixelY, inspectReq.Width, inspectReq.Height))
		return
	}

	response, err := s.inspectPixel(sceneObj, pixelX, pixelY)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, response)
}
