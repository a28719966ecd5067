package renderer

import (
	"context"
	"image"
	"math"
)

// SamplingConfig controls adaptive sampling within a pass
type SamplingConfig struct {
	AdaptiveMinSamples float64 // Fraction of the pass target always taken before stopping early
	AdaptiveThreshold  float64 // Relative luminance error below which a pixel stops
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		AdaptiveMinSamples: 0.15,
		AdaptiveThreshold:  0.02,
	}
}

// TileRenderer traces the pixels of one tile against a frozen snapshot
type TileRenderer struct {
	snapshot *Snapshot
	camera   CameraState
	width    int
	height   int
	sampling SamplingConfig
}

// NewTileRenderer creates a new tile renderer for an image of the given size
func NewTileRenderer(snapshot *Snapshot, camera CameraState, width, height int, sampling SamplingConfig) *TileRenderer {
	return &TileRenderer{
		snapshot: snapshot,
		camera:   camera,
		width:    width,
		height:   height,
		sampling: sampling,
	}
}

// RenderTileBounds renders pixels within the bounds until each reaches targetSamples
// or converges. It checks ctx between rows and returns ctx.Err() when cancelled.
func (tr *TileRenderer) RenderTileBounds(ctx context.Context, bounds image.Rectangle, pixelStats [][]PixelStats, targetSamples int) (RenderStats, error) {
	stats := tr.initRenderStatsForBounds(bounds, targetSamples)

	for j := bounds.Min.Y; j < bounds.Max.Y; j++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		for i := bounds.Min.X; i < bounds.Max.X; i++ {
			samplesUsed := tr.adaptiveSamplePixel(i, j, &pixelStats[j][i], targetSamples, &stats)
			tr.updateStats(&stats, samplesUsed)
		}
	}

	tr.finalizeStats(&stats)
	return stats, nil
}

// adaptiveSamplePixel takes samples until convergence or maxSamples
func (tr *TileRenderer) adaptiveSamplePixel(i, j int, ps *PixelStats, maxSamples int, stats *RenderStats) int {
	initialSampleCount := ps.SampleCount

	for ps.SampleCount < maxSamples && !tr.shouldStopSampling(ps, maxSamples) {
		sx, sy := SubPixelOffset(ps.SampleCount)
		ndcX, ndcY := PixelNDC(i, j, sx, sy, tr.width, tr.height)
		color, res := TracePixel(tr.camera, ndcX, ndcY, tr.snapshot)
		stats.RecordRay(res)
		ps.AddSample(color)
	}

	return ps.SampleCount - initialSampleCount
}

// shouldStopSampling determines if adaptive sampling should stop based on perceptual relative error
func (tr *TileRenderer) shouldStopSampling(ps *PixelStats, maxSamples int) bool {
	minSamples := max(1, int(float64(maxSamples)*tr.sampling.AdaptiveMinSamples))
	if ps.SampleCount < minSamples {
		return false
	}

	n := float64(ps.SampleCount)

	// Coverage must settle too, or silhouettes against the background stop early
	alphaMean := ps.AlphaAccum / n
	alphaVariance := math.Max(0, ps.AlphaSqAccum/n-alphaMean*alphaMean)
	if alphaVariance > 1e-6 {
		return false
	}

	mean := ps.LuminanceAccum / n
	meanSq := ps.LuminanceSqAccum / n
	variance := math.Max(0, meanSq-mean*mean)

	if mean <= 1e-8 {
		return variance < 1e-6
	}

	relativeError := math.Sqrt(variance) / mean
	return relativeError < tr.sampling.AdaptiveThreshold
}

func (tr *TileRenderer) initRenderStatsForBounds(bounds image.Rectangle, maxSamples int) RenderStats {
	return RenderStats{
		TotalPixels: bounds.Dx() * bounds.Dy(),
		MaxSamples:  maxSamples,
		MinSamples:  maxSamples,
	}
}

func (tr *TileRenderer) updateStats(stats *RenderStats, samplesUsed int) {
	stats.TotalSamples += samplesUsed
	stats.MinSamples = min(stats.MinSamples, samplesUsed)
	stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, samplesUsed)
}

func (tr *TileRenderer) finalizeStats(stats *RenderStats) {
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
}
