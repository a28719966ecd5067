package physics

import "fmt"

// Catalog is an immutable set of massive bodies: exactly one black hole plus
// any number of scene bodies. Renderers hold a *Catalog for the duration of a
// frame; changes produce a new catalog.
type Catalog struct {
	blackHole Body
	bodies    []Body
}

// NewCatalog validates and assembles a catalog
func NewCatalog(blackHole Body, bodies ...Body) (*Catalog, error) {
	if blackHole.Kind != KindBlackHole || blackHole.rs <= 0 {
		return nil, fmt.Errorf("%w: first body must be a constructed black hole", ErrInvalidBody)
	}

	seen := make(map[string]bool, len(bodies))
	owned := make([]Body, 0, len(bodies))
	for i, b := range bodies {
		if b.Kind != KindSceneBody {
			return nil, fmt.Errorf("%w: body %d (%q) is a %s, only one black hole is supported", ErrInvalidBody, i, b.Name, b.Kind)
		}
		if b.rs <= 0 || b.VisualRadius <= 0 {
			return nil, fmt.Errorf("%w: body %d (%q) was not built with NewSceneBody", ErrInvalidBody, i, b.Name)
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("%w: duplicate body name %q", ErrInvalidBody, b.Name)
		}
		seen[b.Name] = true
		owned = append(owned, b)
	}

	return &Catalog{blackHole: blackHole, bodies: owned}, nil
}

// WithBody returns a new catalog with b appended; c is left untouched
func (c *Catalog) WithBody(b Body) (*Catalog, error) {
	return NewCatalog(c.blackHole, append(c.Bodies(), b)...)
}

// BlackHole returns the black hole
func (c *Catalog) BlackHole() Body {
	return c.blackHole
}

// Bodies returns a copy of the scene bodies
func (c *Catalog) Bodies() []Body {
	out := make([]Body, len(c.bodies))
	copy(out, c.bodies)
	return out
}

// All returns the black hole followed by every scene body
func (c *Catalog) All() []Body {
	out := make([]Body, 0, len(c.bodies)+1)
	out = append(out, c.blackHole)
	return append(out, c.bodies...)
}

// Len returns the total number of bodies including the black hole
func (c *Catalog) Len() int {
	return len(c.bodies) + 1
}
