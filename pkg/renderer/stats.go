package renderer

import (
	"image"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Total number of pixels rendered
	TotalSamples   int     // Total number of samples taken
	AverageSamples float64 // Average samples per pixel
	MaxSamples     int     // Maximum samples allowed per pixel
	MinSamples     int     // Minimum samples taken per pixel
	MaxSamplesUsed int     // Maximum samples actually used by any pixel

	Outcomes   [integrator.NumOutcomes]int // Rays per integrator.Outcome
	TotalSteps int                         // Integration steps summed over all rays
}

// RecordRay adds one traced ray to the outcome counters
func (s *RenderStats) RecordRay(res integrator.Result) {
	if int(res.Outcome) >= 0 && int(res.Outcome) < len(s.Outcomes) {
		s.Outcomes[res.Outcome]++
	}
	s.TotalSteps += res.Steps
}

// Rays returns the number of rays recorded
func (s RenderStats) Rays() int {
	n := 0
	for _, c := range s.Outcomes {
		n += c
	}
	return n
}

// MeanSteps returns the average integration steps per recorded ray
func (s RenderStats) MeanSteps() float64 {
	rays := s.Rays()
	if rays == 0 {
		return 0
	}
	return float64(s.TotalSteps) / float64(rays)
}

// Count returns the rays that ended with the given outcome
func (s RenderStats) Count(o integrator.Outcome) int {
	if int(o) < 0 || int(o) >= len(s.Outcomes) {
		return 0
	}
	return s.Outcomes[o]
}

// AddRays merges another set of ray counters into s
func (s *RenderStats) AddRays(other RenderStats) {
	for i, c := range other.Outcomes {
		s.Outcomes[i] += c
	}
	s.TotalSteps += other.TotalSteps
}

// PixelStats tracks sampling statistics for a single pixel. Colors are
// accumulated premultiplied so transparent samples average correctly.
type PixelStats struct {
	ColorAccum       core.Vec3 // premultiplied RGB accumulator
	AlphaAccum       float64
	AlphaSqAccum     float64
	LuminanceAccum   float64 // Luminance accumulator for convergence
	LuminanceSqAccum float64 // Luminance squared for variance
	SampleCount      int
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(c core.RGBA) {
	premul := c.Premultiplied()
	ps.ColorAccum = ps.ColorAccum.Add(premul)
	ps.AlphaAccum += c.A
	ps.AlphaSqAccum += c.A * c.A
	luminance := premul.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average color with straight alpha
func (ps *PixelStats) GetColor() core.RGBA {
	if ps.SampleCount == 0 || ps.AlphaAccum <= 0 {
		return core.Transparent
	}
	rgb := ps.ColorAccum.Multiply(1.0 / ps.AlphaAccum)
	return core.RGBA{R: rgb.X, G: rgb.Y, B: rgb.Z, A: ps.AlphaAccum / float64(ps.SampleCount)}
}

// CalculateAverageLuminance returns the mean luminance of an image, treating
// transparent pixels as black
func CalculateAverageLuminance(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	total := 0.0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			c := core.NewVec3(float64(r), float64(g), float64(bl)).Multiply(1.0 / 0xffff)
			total += c.Luminance()
		}
	}
	return total / float64(b.Dx()*b.Dy())
}
