package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-geodesic-raytracer/pkg/scene"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

func doRequest(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestWithStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>lensing</h1>"), 0644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}

	rec := doRequest(t, NewServer(0).WithStaticDir(dir), "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "lensing") {
		t.Errorf("Expected the index from the static dir, got %d: %q", rec.Code, rec.Body.String())
	}
}

func TestHandleScenes(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/scenes")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body scene.ScenesResponse
	decodeJSON(t, rec, &body)
	if len(body.Groups) == 0 {
		t.Fatal("Expected at least the built-in group")
	}
	found := false
	for _, info := range body.Groups[0].Scenes {
		if info.ID == scene.DefaultSceneName {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %q among the first group's scenes, got %+v", scene.DefaultSceneName, body.Groups[0].Scenes)
	}
}

func TestHandleSceneConfig(t *testing.T) {
	s := NewServer(0)

	rec := doRequest(t, s, "/api/scene-config?scene=binary-star")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Scene    string                   `json:"scene"`
		Bodies   []map[string]interface{} `json:"bodies"`
		Defaults map[string]interface{}   `json:"defaults"`
	}
	decodeJSON(t, rec, &body)
	if body.Scene != "binary-star" {
		t.Errorf("Expected scene binary-star, got %q", body.Scene)
	}
	if len(body.Bodies) != 3 {
		t.Errorf("Expected black hole plus two bodies, got %d", len(body.Bodies))
	}
	if body.Defaults["scheme"] != "rk4" {
		t.Errorf("Expected default scheme rk4, got %v", body.Defaults["scheme"])
	}

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"unknown scene", "scene=nonexistent", http.StatusNotFound},
		{"width not a number", "width=wide", http.StatusBadRequest},
		{"width too small", "width=4", http.StatusBadRequest},
		{"height too large", "height=5000", http.StatusBadRequest},
		{"unknown scheme", "scheme=leapfrog", http.StatusBadRequest},
		{"elevation past the pole", "elevation=2", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, "/api/scene-config?"+tt.query)
			if rec.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleGrid(t *testing.T) {
	s := NewServer(0)
	rec := doRequest(t, s, "/api/grid")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body GridResponse
	decodeJSON(t, rec, &body)
	spec := warp.DefaultGridSpec()
	side := spec.Size + 1
	if body.Size != spec.Size || len(body.Vertices) != side*side {
		t.Errorf("Expected %d vertices for size %d, got %d (size %d)", side*side, spec.Size, len(body.Vertices), body.Size)
	}
	if len(body.Indices) == 0 || len(body.Indices)%2 != 0 {
		t.Errorf("Expected line-list indices, got %d", len(body.Indices))
	}
	for _, v := range body.Vertices {
		if v[1] > 0 {
			t.Fatalf("Grid should sit below the orbital plane, got vertex %v", v)
		}
	}

	// Store is cached per scene
	again := doRequest(t, s, "/api/grid")
	var second GridResponse
	decodeJSON(t, again, &second)
	if second.Version != body.Version {
		t.Errorf("Expected cached mesh version %d, got %d", body.Version, second.Version)
	}
}

func TestHandleInspect(t *testing.T) {
	s := NewServer(0)

	rec := doRequest(t, s, "/api/inspect?width=64&height=48&x=32&y=24")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body InspectResponse
	decodeJSON(t, rec, &body)
	if body.Outcome != "captured" {
		t.Errorf("Centre pixel should fall into the black hole, got %q", body.Outcome)
	}
	if body.Color != "#000000" || body.Alpha != 1 {
		t.Errorf("Captured ray should be opaque black, got %s alpha %f", body.Color, body.Alpha)
	}
	if body.Steps <= 0 || body.Energy <= 0 {
		t.Errorf("Expected a traced ray, got %d steps and energy %g", body.Steps, body.Energy)
	}

	corner := doRequest(t, s, "/api/inspect?width=64&height=48&x=0&y=0")
	var cornerBody InspectResponse
	decodeJSON(t, corner, &cornerBody)
	if cornerBody.Outcome != "escaped" {
		t.Errorf("Corner pixel should escape, got %q", cornerBody.Outcome)
	}
	if cornerBody.Scheme != "rk4" {
		t.Errorf("Expected the scene's rk4 scheme by default, got %q", cornerBody.Scheme)
	}

	euler := doRequest(t, s, "/api/inspect?width=64&height=48&x=0&y=0&scheme=euler")
	var eulerBody InspectResponse
	decodeJSON(t, euler, &eulerBody)
	if eulerBody.Scheme != "euler" {
		t.Errorf("Scheme parameter should reach the trace, got %q", eulerBody.Scheme)
	}
	if eulerBody.Outcome != "escaped" {
		t.Errorf("Corner pixel should escape under euler too, got %q", eulerBody.Outcome)
	}

	tests := []struct {
		name  string
		query string
	}{
		{"missing x", "y=3"},
		{"bad x", "x=left&y=3"},
		{"bad y", "x=3&y=top"},
		{"x out of bounds", "width=64&height=48&x=64&y=3"},
		{"negative y", "width=64&height=48&x=3&y=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, "/api/inspect?"+tt.query)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

// readSSEEvents splits an event-stream body into (type, data) pairs
func readSSEEvents(t *testing.T, body string) [][2]string {
	t.Helper()
	var events [][2]string
	var eventType string
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			events = append(events, [2]string{eventType, strings.TrimPrefix(line, "data: ")})
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Failed to read event stream: %v", err)
	}
	return events
}

func TestHandleRender(t *testing.T) {
	query := url.Values{
		"width":      {"16"},
		"height":     {"16"},
		"maxSamples": {"1"},
		"maxPasses":  {"1"},
		"grid":       {"true"},
	}
	rec := doRequest(t, NewServer(0), "/api/render?"+query.Encode())

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event-stream content type, got %q", ct)
	}

	events := readSSEEvents(t, rec.Body.String())
	if len(events) == 0 {
		t.Fatal("Expected events in the stream")
	}
	if last := events[len(events)-1]; last[0] != "complete" {
		t.Errorf("Expected the stream to end with complete, got %q: %s", last[0], last[1])
	}

	var pass *PassUpdate
	for _, e := range events {
		if e[0] == "error" {
			t.Fatalf("Unexpected error event: %s", e[1])
		}
		if e[0] == "passComplete" {
			pass = &PassUpdate{}
			if err := json.Unmarshal([]byte(e[1]), pass); err != nil {
				t.Fatalf("Failed to decode pass update: %v", err)
			}
		}
	}
	if pass == nil {
		t.Fatal("Expected a passComplete event")
	}
	if pass.PassNumber != 1 || pass.TotalPixels != 256 {
		t.Errorf("Unexpected pass update %+v", pass)
	}
	if pass.Outcomes["captured"] == 0 || pass.Outcomes["escaped"] == 0 {
		t.Errorf("Expected both captured and escaped rays, got %v", pass.Outcomes)
	}
	if pass.ImageData == "" {
		t.Error("Grid overlay should attach the composed pass image")
	}
}

func TestHandleRenderInvalidRequest(t *testing.T) {
	rec := doRequest(t, NewServer(0), "/api/render?maxSamples=0")
	events := readSSEEvents(t, rec.Body.String())
	if len(events) != 1 || events[0][0] != "error" {
		t.Fatalf("Expected a single error event, got %v", events)
	}
	if !strings.Contains(events[0][1], "maxSamples") {
		t.Errorf("Error should name the bad parameter, got %q", events[0][1])
	}
}

func TestParseParams(t *testing.T) {
	values := url.Values{"n": {"12"}, "f": {"0.5"}, "b": {"true"}, "bad": {"x"}}

	if n, err := parseIntParam(values, "n", 1, 0, 100); err != nil || n != 12 {
		t.Errorf("parseIntParam = %d, %v", n, err)
	}
	if n, err := parseIntParam(values, "missing", 7, 0, 100); err != nil || n != 7 {
		t.Errorf("Missing int should default, got %d, %v", n, err)
	}
	if _, err := parseIntParam(values, "n", 1, 0, 10); err == nil {
		t.Error("Expected range error")
	}
	if f, err := parseFloatParam(values, "f", 0, 0, 1); err != nil || f != 0.5 {
		t.Errorf("parseFloatParam = %f, %v", f, err)
	}
	if _, err := parseFloatParam(values, "bad", 0, 0, 1); err == nil {
		t.Error("Expected parse error")
	}
	if b, err := parseBoolParam(values, "b", false); err != nil || !b {
		t.Errorf("parseBoolParam = %v, %v", b, err)
	}
	if _, err := parseBoolParam(values, "bad", false); err == nil {
		t.Error("Expected parse error")
	}
}

func TestHexColor(t *testing.T) {
	if got := hexColor(1, 0.5, -1); got != "#ff8000" {
		t.Errorf("hexColor = %s, want #ff8000", got)
	}
}
