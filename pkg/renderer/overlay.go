package renderer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/warp"
)

// OverlayStyle controls how the warp grid is drawn over a frame
type OverlayStyle struct {
	Color     color.NRGBA
	LineWidth float64 // pixels
	Near, Far float64 // clip distances along the view direction, meters
}

// DefaultOverlayStyle draws a thin translucent grey grid
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		Color:     color.NRGBA{R: 128, G: 128, B: 128, A: 179},
		LineWidth: 1,
		Near:      1e9,
		Far:       1e14,
	}
}

// Projector maps world points to pixel coordinates for a camera
type Projector struct {
	camera        CameraState
	width, height float64
	near, far     float64
}

// NewProjector creates a perspective projector matching the ray generator
func NewProjector(camera CameraState, width, height int, near, far float64) Projector {
	return Projector{camera: camera, width: float64(width), height: float64(height), near: near, far: far}
}

// view returns camera-space coordinates; z is the distance along Forward
func (p Projector) view(v core.Vec3) core.Vec3 {
	d := v.Subtract(p.camera.Position)
	return core.NewVec3(d.Dot(p.camera.Right), d.Dot(p.camera.Up), d.Dot(p.camera.Forward))
}

func (p Projector) toPixel(v core.Vec3) (x, y float64) {
	t := p.camera.TanHalfFov()
	ndcX := v.X / (v.Z * t * p.camera.Aspect)
	ndcY := v.Y / (v.Z * t)
	return (ndcX + 1) / 2 * p.width, (1 - ndcY) / 2 * p.height
}

// Project returns the pixel position of a world point, or ok=false when it
// lies outside the near/far range
func (p Projector) Project(v core.Vec3) (x, y float64, ok bool) {
	cam := p.view(v)
	if cam.Z < p.near || cam.Z > p.far {
		return 0, 0, false
	}
	x, y = p.toPixel(cam)
	return x, y, true
}

// ProjectSegment clips a world segment against the near and far planes and
// returns its pixel end points
func (p Projector) ProjectSegment(a, b core.Vec3) (x0, y0, x1, y1 float64, ok bool) {
	va, vb := p.view(a), p.view(b)
	for _, plane := range [2]struct {
		z     float64
		front bool
	}{{p.near, true}, {p.far, false}} {
		inA := (va.Z >= plane.z) == plane.front
		inB := (vb.Z >= plane.z) == plane.front
		switch {
		case !inA && !inB:
			return 0, 0, 0, 0, false
		case !inA:
			va = lerpToDepth(va, vb, plane.z)
		case !inB:
			vb = lerpToDepth(vb, va, plane.z)
		}
	}
	x0, y0 = p.toPixel(va)
	x1, y1 = p.toPixel(vb)
	return x0, y0, x1, y1, true
}

// lerpToDepth moves from toward inside along the segment until z == depth
func lerpToDepth(from, inside core.Vec3, depth float64) core.Vec3 {
	t := (depth - from.Z) / (inside.Z - from.Z)
	return from.Add(inside.Subtract(from).Multiply(t))
}

// DrawGrid rasterizes the mesh's line segments onto dst as thin anti-aliased quads
func DrawGrid(dst draw.Image, mesh *warp.Mesh, camera CameraState, style OverlayStyle) {
	if mesh == nil {
		return
	}
	bounds := dst.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	proj := NewProjector(camera, w, h, style.Near, style.Far)
	half := style.LineWidth / 2

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Over
	drawn := 0

	for i := 0; i+1 < len(mesh.Indices); i += 2 {
		a := mesh.Vertices[mesh.Indices[i]]
		b := mesh.Vertices[mesh.Indices[i+1]]
		x0, y0, x1, y1, ok := proj.ProjectSegment(core.NewVec3(a.X, a.Y, a.Z), core.NewVec3(b.X, b.Y, b.Z))
		if !ok || offscreen(x0, y0, x1, y1, float64(w), float64(h)) {
			continue
		}

		dx, dy := x1-x0, y1-y0
		length := math.Hypot(dx, dy)
		if length < 1e-9 {
			continue
		}
		// Left-hand normal keeps every quad wound the same way
		nx, ny := -dy/length*half, dx/length*half

		z.MoveTo(float32(x0+nx), float32(y0+ny))
		z.LineTo(float32(x1+nx), float32(y1+ny))
		z.LineTo(float32(x1-nx), float32(y1-ny))
		z.LineTo(float32(x0-nx), float32(y0-ny))
		z.ClosePath()
		drawn++
	}

	if drawn > 0 {
		z.Draw(dst, bounds, image.NewUniform(style.Color), bounds.Min)
	}
}

// offscreen reports whether both end points lie beyond the same image edge
func offscreen(x0, y0, x1, y1, w, h float64) bool {
	return (x0 < 0 && x1 < 0) || (y0 < 0 && y1 < 0) || (x0 > w && x1 > w) || (y0 > h && y1 > h)
}

// Compose places a traced frame over an opaque black background and draws the
// grid on top
func Compose(frame image.Image, mesh *warp.Mesh, camera CameraState, style OverlayStyle) *image.NRGBA {
	b := frame.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), frame, b.Min, draw.Over)
	DrawGrid(out, mesh, camera, style)
	return out
}

// DrawCaption writes one line of text per entry in the top-left corner
func DrawCaption(dst draw.Image, lines ...string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	lineHeight := face.Metrics().Height.Ceil()
	for i, line := range lines {
		d.Dot = fixed.P(dst.Bounds().Min.X+6, dst.Bounds().Min.Y+(i+1)*lineHeight+3)
		d.DrawString(line)
	}
}
