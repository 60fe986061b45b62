// Package spatial provides the geometric primitives behind nearby-feature
// lookups: rectangles, polygon containment, segment distance and a
// quadtree keyed by item bounds.
package spatial

import (
	"math"

	"github.com/playperu/geodrive/internal/geo"
)

// Rect is an axis-aligned rectangle on the world ground plane.
type Rect struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && r.MaxX >= o.MinX && r.MinZ <= o.MaxZ && r.MaxZ >= o.MinZ
}

func (r Rect) Contains(o Rect) bool {
	return o.MinX >= r.MinX && o.MaxX <= r.MaxX && o.MinZ >= r.MinZ && o.MaxZ <= r.MaxZ
}

// ContainsPoint is inclusive on all edges.
func (r Rect) ContainsPoint(x, z float64) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// IntersectsCircle reports whether the circle touches the rectangle.
func (r Rect) IntersectsCircle(x, z, radius float64) bool {
	dx := x - clamp(x, r.MinX, r.MaxX)
	dz := z - clamp(z, r.MinZ, r.MaxZ)
	return dx*dx+dz*dz <= radius*radius
}

// Expand grows the rectangle by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinZ: r.MinZ - d, MaxX: r.MaxX + d, MaxZ: r.MaxZ + d}
}

// Union returns the smallest rectangle covering both.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinZ: math.Min(r.MinZ, o.MinZ),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxZ: math.Max(r.MaxZ, o.MaxZ),
	}
}

// CircleBounds is the square around a query circle.
func CircleBounds(x, z, radius float64) Rect {
	return Rect{MinX: x - radius, MinZ: z - radius, MaxX: x + radius, MaxZ: z + radius}
}

// BoundsOf returns the bounds of pts. An empty slice yields the zero Rect.
func BoundsOf(pts []geo.Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{MinX: pts[0].X, MaxX: pts[0].X, MinZ: pts[0].Z, MaxZ: pts[0].Z}
	for _, p := range pts[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MinZ = math.Min(r.MinZ, p.Z)
		r.MaxZ = math.Max(r.MaxZ, p.Z)
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
