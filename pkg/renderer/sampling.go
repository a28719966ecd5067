package renderer

import "math"

// r2Alpha holds 1/g and 1/g² for the plastic number g, the generator of the
// R2 low-discrepancy sequence.
var r2Alpha = [2]float64{
	1 / 1.32471795724474602596,
	1 / (1.32471795724474602596 * 1.32471795724474602596),
}

// SubPixelOffset returns the n-th sub-pixel position in [0, 1)². Sample 0 is
// the pixel centre, so a one-sample pass is an exact centre preview. The
// sequence is deterministic, which keeps passes reproducible across workers.
func SubPixelOffset(n int) (sx, sy float64) {
	_, sx = math.Modf(0.5 + r2Alpha[0]*float64(n))
	_, sy = math.Modf(0.5 + r2Alpha[1]*float64(n))
	return sx, sy
}
