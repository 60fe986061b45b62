// Package world holds the drivable scene built from map data: road
// centerlines, building footprints, terrain and player-placed structures,
// all projected into one geo.Frame.
package world

import (
	"math"
	"sync"

	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/spatial"
)

// Road is a centerline polyline in world space.
type Road struct {
	Kind   string
	Points []geo.Point
	Width  float64
}

// Building is an extruded footprint. Bounds is precomputed from Footprint.
type Building struct {
	Footprint []geo.Point
	Height    float64
	Bounds    spatial.Rect
}

func NewBuilding(footprint []geo.Point, height float64) *Building {
	return &Building{
		Footprint: footprint,
		Height:    height,
		Bounds:    spatial.BoundsOf(footprint),
	}
}

// Contains checks the bounding box first, then the polygon.
func (b *Building) Contains(x, z float64) bool {
	return b.Bounds.ContainsPoint(x, z) && spatial.ContainsPoint(b.Footprint, x, z)
}

// Terrain reports ground height. NaN means the height is unknown.
type Terrain interface {
	HeightAt(x, z float64) float64
}

// FlatTerrain is a constant-height ground.
type FlatTerrain float64

func (f FlatTerrain) HeightAt(_, _ float64) float64 { return float64(f) }

// World is immutable after Load apart from its Structures set.
type World struct {
	Name       string
	Location   geo.Location
	Frame      geo.Frame
	Roads      []*Road
	Buildings  []*Building
	Terrain    Terrain
	Structures *Structures

	buildings *BuildingIndex
	roads     *RoadIndex
}

// New indexes the given geometry. A nil terrain is treated as flat at 0.
func New(loc geo.Location, frame geo.Frame, roads []*Road, buildings []*Building, terrain Terrain) *World {
	if terrain == nil {
		terrain = FlatTerrain(0)
	}
	return &World{
		Name:       loc.Name,
		Location:   loc,
		Frame:      frame,
		Roads:      roads,
		Buildings:  buildings,
		Terrain:    terrain,
		Structures: NewStructures(),
		buildings:  NewBuildingIndex(buildings),
		roads:      NewRoadIndex(roads),
	}
}

func (w *World) BuildingIndex() *BuildingIndex { return w.buildings }
func (w *World) RoadIndex() *RoadIndex         { return w.roads }

// Structure is a player-placed box standing on the ground with an
// absolute top height.
type Structure struct {
	ID     int
	Bounds spatial.Rect
	Top    float64
}

// Structures is the mutable set of player-placed structures.
type Structures struct {
	mu     sync.RWMutex
	nextID int
	items  map[int]Structure
}

func NewStructures() *Structures {
	return &Structures{items: make(map[int]Structure)}
}

// Add stores s and returns its assigned ID.
func (s *Structures) Add(bounds spatial.Rect, top float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.items[s.nextID] = Structure{ID: s.nextID, Bounds: bounds, Top: top}
	return s.nextID
}

func (s *Structures) Remove(id int) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *Structures) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// TopAt returns the highest structure top covering (x, z).
func (s *Structures) TopAt(x, z float64) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	top, found := math.Inf(-1), false
	for _, it := range s.items {
		if it.Bounds.ContainsPoint(x, z) && it.Top > top {
			top, found = it.Top, true
		}
	}
	return top, found
}
