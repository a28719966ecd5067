package renderer

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
)

func grey(v, alpha float64) core.RGBA {
	return core.RGBA{R: v, G: v, B: v, A: alpha}
}

func newPixelStats(width, height int) [][]PixelStats {
	stats := make([][]PixelStats, height)
	for y := range stats {
		stats[y] = make([]PixelStats, width)
	}
	return stats
}

func TestRenderTileBounds(t *testing.T) {
	snapshot := newTestSnapshot(t)
	width, height := 9, 7
	cam := NewCameraState(DefaultOrbitCamera(), 60, width, height)
	tr := NewTileRenderer(snapshot, cam, width, height, DefaultSamplingConfig())

	pixelStats := newPixelStats(width, height)
	stats, err := tr.RenderTileBounds(context.Background(), image.Rect(0, 0, width, height), pixelStats, 1)
	if err != nil {
		t.Fatalf("RenderTileBounds failed: %v", err)
	}

	if stats.TotalPixels != width*height {
		t.Errorf("Expected %d pixels, got %d", width*height, stats.TotalPixels)
	}
	if stats.TotalSamples != width*height || stats.Rays() != width*height {
		t.Errorf("Expected one sample per pixel, got %d samples and %d rays", stats.TotalSamples, stats.Rays())
	}
	if stats.Count(integrator.Captured) == 0 {
		t.Error("Expected the black hole to capture some rays")
	}
	if stats.Count(integrator.Escaped) == 0 {
		t.Error("Expected some rays to escape")
	}

	centre := pixelStats[height/2][width/2].GetColor()
	if centre.A != 1 || centre.R != 0 {
		t.Errorf("Centre pixel should be opaque black, got %+v", centre)
	}
	corner := pixelStats[0][0].GetColor()
	if corner.A != 0 {
		t.Errorf("Corner pixel should be transparent, got %+v", corner)
	}
}

func TestRenderTileBoundsOnlyTouchesItsTile(t *testing.T) {
	snapshot := newTestSnapshot(t)
	cam := NewCameraState(DefaultOrbitCamera(), 60, 8, 8)
	tr := NewTileRenderer(snapshot, cam, 8, 8, DefaultSamplingConfig())

	pixelStats := newPixelStats(8, 8)
	bounds := image.Rect(2, 2, 4, 5)
	if _, err := tr.RenderTileBounds(context.Background(), bounds, pixelStats, 2); err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			inside := image.Pt(x, y).In(bounds)
			count := pixelStats[y][x].SampleCount
			if inside && count == 0 {
				t.Errorf("Pixel (%d,%d) inside the tile was not sampled", x, y)
			}
			if !inside && count != 0 {
				t.Errorf("Pixel (%d,%d) outside the tile was sampled", x, y)
			}
		}
	}
}

func TestRenderTileBoundsCancelled(t *testing.T) {
	snapshot := newTestSnapshot(t)
	cam := NewCameraState(DefaultOrbitCamera(), 60, 4, 4)
	tr := NewTileRenderer(snapshot, cam, 4, 4, DefaultSamplingConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pixelStats := newPixelStats(4, 4)
	_, err := tr.RenderTileBounds(ctx, image.Rect(0, 0, 4, 4), pixelStats, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if pixelStats[0][0].SampleCount != 0 {
		t.Error("A cancelled tile should not trace any rays")
	}
}

func TestShouldStopSampling(t *testing.T) {
	tr := &TileRenderer{sampling: SamplingConfig{AdaptiveMinSamples: 0.25, AdaptiveThreshold: 0.05}}

	var uniform PixelStats
	for i := 0; i < 4; i++ {
		uniform.AddSample(grey(1, 1))
	}
	if !tr.shouldStopSampling(&uniform, 16) {
		t.Error("A converged opaque pixel should stop sampling")
	}

	var edge PixelStats
	for i := 0; i < 4; i++ {
		edge.AddSample(grey(0, float64(i%2)))
	}
	if tr.shouldStopSampling(&edge, 16) {
		t.Error("A pixel straddling the shadow edge should keep sampling")
	}

	var few PixelStats
	few.AddSample(grey(1, 1))
	if tr.shouldStopSampling(&few, 16) {
		t.Error("Sampling should not stop before the minimum sample count")
	}
}
