package world

import (
	"math"

	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/spatial"
)

// BuildingIndex answers nearby-building queries with a quadtree over
// footprint bounds.
type BuildingIndex struct {
	tree *spatial.Quadtree[*Building]
}

func NewBuildingIndex(buildings []*Building) *BuildingIndex {
	return &BuildingIndex{
		tree: spatial.BuildQuadtree(buildings, func(b *Building) spatial.Rect { return b.Bounds }),
	}
}

// NearbyBuildings returns buildings whose bounds touch the query circle.
// Containment is not checked.
func (ix *BuildingIndex) NearbyBuildings(x, z, radius float64) []*Building {
	candidates := ix.tree.Query(spatial.CircleBounds(x, z, radius), nil)
	out := candidates[:0]
	for _, b := range candidates {
		if b.Bounds.IntersectsCircle(x, z, radius) {
			out = append(out, b)
		}
	}
	return out
}

type roadSegment struct {
	road  *Road
	index int
	a, b  geo.Point
}

func (s roadSegment) bounds() spatial.Rect {
	return spatial.BoundsOf([]geo.Point{s.a, s.b})
}

// RoadHit is the closest road point to a query position.
type RoadHit struct {
	Road     *Road
	Segment  int
	Closest  geo.Point
	Distance float64
}

// RoadIndex finds the nearest road segment to a point.
type RoadIndex struct {
	tree *spatial.Quadtree[roadSegment]
}

func NewRoadIndex(roads []*Road) *RoadIndex {
	var segs []roadSegment
	for _, r := range roads {
		if len(r.Points) == 1 {
			segs = append(segs, roadSegment{road: r, a: r.Points[0], b: r.Points[0]})
			continue
		}
		for i := 0; i+1 < len(r.Points); i++ {
			segs = append(segs, roadSegment{road: r, index: i, a: r.Points[i], b: r.Points[i+1]})
		}
	}
	return &RoadIndex{
		tree: spatial.BuildQuadtree(segs, roadSegment.bounds),
	}
}

// Nearest returns the closest road within maxRadius.
func (ix *RoadIndex) Nearest(x, z, maxRadius float64) (RoadHit, bool) {
	p := geo.Point{X: x, Z: z}
	best := RoadHit{Distance: math.Inf(1)}
	for _, s := range ix.tree.Query(spatial.CircleBounds(x, z, maxRadius), nil) {
		c, _ := spatial.ClosestOnSegment(p, s.a, s.b)
		d := math.Hypot(x-c.X, z-c.Z)
		if d < best.Distance {
			best = RoadHit{Road: s.road, Segment: s.index, Closest: c, Distance: d}
		}
	}
	if best.Road == nil || best.Distance > maxRadius {
		return RoadHit{}, false
	}
	return best, true
}
