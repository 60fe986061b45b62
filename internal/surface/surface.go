// Package surface resolves the topmost standable height at a ground
// position: terrain, building roofs and player-placed structures.
package surface

import (
	"math"

	"github.com/playperu/geodrive/internal/world"
)

// BuildingFinder is the optional nearby-building capability. Without one
// the resolver scans every building.
type BuildingFinder interface {
	NearbyBuildings(x, z, radius float64) []*world.Building
}

// StructureSource reports player-placed structure tops.
type StructureSource interface {
	TopAt(x, z float64) (float64, bool)
}

// queryRadius keeps the candidate query tight around the point; a building
// can only contain the point if its bounds touch it.
const queryRadius = 0.5

type Resolver struct {
	terrain    world.Terrain
	buildings  []*world.Building
	finder     BuildingFinder
	structures StructureSource
}

type Option func(*Resolver)

func WithFinder(f BuildingFinder) Option {
	return func(r *Resolver) { r.finder = f }
}

func WithStructures(s StructureSource) Option {
	return func(r *Resolver) { r.structures = s }
}

func New(terrain world.Terrain, buildings []*world.Building, opts ...Option) *Resolver {
	r := &Resolver{terrain: terrain, buildings: buildings}
	for _, o := range opts {
		o(r)
	}
	return r
}

// ForWorld wires a resolver to the world's building index and structures.
func ForWorld(w *world.World) *Resolver {
	return New(w.Terrain, w.Buildings,
		WithFinder(w.BuildingIndex()),
		WithStructures(w.Structures),
	)
}

// TerrainHeight returns raw ground height, 0 when the terrain cannot answer.
func (r *Resolver) TerrainHeight(x, z float64) float64 {
	if r.terrain == nil {
		return 0
	}
	h := r.terrain.HeightAt(x, z)
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h
}

// SurfaceHeight returns the highest surface under (x, z).
func (r *Resolver) SurfaceHeight(x, z float64) float64 {
	ground := r.TerrainHeight(x, z)
	best := ground

	for _, b := range r.candidates(x, z) {
		if b.Height <= 0 || !b.Contains(x, z) {
			continue
		}
		if roof := ground + b.Height; roof > best {
			best = roof
		}
	}

	if r.structures != nil {
		if top, ok := r.structures.TopAt(x, z); ok && top > best {
			best = top
		}
	}
	return best
}

func (r *Resolver) candidates(x, z float64) []*world.Building {
	if r.finder != nil {
		return r.finder.NearbyBuildings(x, z, queryRadius)
	}
	return r.buildings
}
