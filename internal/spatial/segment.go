package spatial

import (
	"math"

	"github.com/playperu/geodrive/internal/geo"
)

// ClosestOnSegment returns the point of segment ab nearest to p and the
// segment parameter t in [0, 1]. A zero-length segment returns a.
func ClosestOnSegment(p, a, b geo.Point) (geo.Point, float64) {
	dx, dz := b.X-a.X, b.Z-a.Z
	lenSq := dx*dx + dz*dz
	if lenSq == 0 {
		return a, 0
	}
	t := ((p.X-a.X)*dx + (p.Z-a.Z)*dz) / lenSq
	t = clamp(t, 0, 1)
	return geo.Point{X: a.X + t*dx, Z: a.Z + t*dz}, t
}

// DistanceToSegment is the Euclidean distance from p to segment ab.
func DistanceToSegment(p, a, b geo.Point) float64 {
	c, _ := ClosestOnSegment(p, a, b)
	return math.Hypot(p.X-c.X, p.Z-c.Z)
}
