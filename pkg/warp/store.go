package warp

import (
	"sync"
	"sync/atomic"

	"github.com/df07/go-geodesic-raytracer/pkg/physics"
)

// MeshStore publishes grid meshes to concurrent readers. A rebuild computes the
// complete mesh before swapping the pointer, so readers never see a partial grid.
type MeshStore struct {
	spec    GridSpec
	params  Params
	current atomic.Pointer[Mesh]
	version atomic.Uint64
	mu      sync.Mutex // serializes writers
}

// NewMeshStore creates an empty store; call Rebuild to publish the first mesh
func NewMeshStore(spec GridSpec, params Params) *MeshStore {
	return &MeshStore{spec: spec, params: params}
}

// Rebuild recomputes the grid for the catalog and publishes it
func (s *MeshStore) Rebuild(catalog *physics.Catalog) (*Mesh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mesh, err := BuildGrid(s.spec, NewField(catalog, s.params))
	if err != nil {
		return nil, err
	}
	s.current.Store(mesh)
	s.version.Add(1)
	return mesh, nil
}

// Current returns the last published mesh, or nil before the first rebuild
func (s *MeshStore) Current() *Mesh {
	return s.current.Load()
}

// Version returns how many meshes have been published
func (s *MeshStore) Version() uint64 {
	return s.version.Load()
}
