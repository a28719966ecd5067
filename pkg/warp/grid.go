package warp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// GridSpec describes the square lattice of the reference grid
type GridSpec struct {
	Size    int     // Cells per side; the lattice has Size+1 points per side
	Spacing float64 // World distance between neighbouring lattice points
}

// DefaultGridSpec is a 25 cell grid with 1e10 m spacing
func DefaultGridSpec() GridSpec {
	return GridSpec{Size: 25, Spacing: 1e10}
}

// Validate checks the lattice dimensions
func (g GridSpec) Validate() error {
	if g.Size < 1 {
		return fmt.Errorf("grid size must be at least 1, got %d", g.Size)
	}
	if g.Spacing <= 0 || math.IsInf(g.Spacing, 0) || math.IsNaN(g.Spacing) {
		return fmt.Errorf("grid spacing must be positive and finite, got %g", g.Spacing)
	}
	return nil
}

// Mesh is a wireframe: vertices plus pairs of indices forming line segments
type Mesh struct {
	Spec     GridSpec
	Vertices []r3.Vec
	Indices  []uint32
}

// LineCount returns the number of line segments
func (m *Mesh) LineCount() int {
	return len(m.Indices) / 2
}

// Coordinates returns the lattice coordinates along one axis: (i - Size/2) * Spacing
// for i in [0, Size]. The centre index uses integer division.
func (g GridSpec) Coordinates() []float64 {
	coords := make([]float64, g.Size+1)
	half := g.Size / 2
	floats.Span(coords, float64(-half)*g.Spacing, float64(g.Size-half)*g.Spacing)
	return coords
}

// BuildGrid evaluates the field over the lattice. Vertices are stored row-major
// (z outer, x inner); every point is connected to its +x and +z neighbour.
func BuildGrid(spec GridSpec, field *Field) (*Mesh, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	n := spec.Size
	side := n + 1
	coords := spec.Coordinates()

	vertices := make([]r3.Vec, 0, side*side)
	for _, z := range coords {
		for _, x := range coords {
			vertices = append(vertices, r3.Vec{X: x, Y: field.VertexY(x, z), Z: z})
		}
	}

	indices := make([]uint32, 0, 4*n*side)
	for zi := 0; zi < side; zi++ {
		for xi := 0; xi < side; xi++ {
			i := uint32(zi*side + xi)
			if xi < n {
				indices = append(indices, i, i+1)
			}
			if zi < n {
				indices = append(indices, i, i+uint32(side))
			}
		}
	}

	return &Mesh{Spec: spec, Vertices: vertices, Indices: indices}, nil
}
