package spatial

import "github.com/playperu/geodrive/internal/geo"

// ContainsPoint tests (x, z) against polygon with even-odd ray casting.
// Edges are selected with a strict (zi > z) != (zj > z) test so a vertex
// lying on the ray is counted once. Fewer than three points is never inside.
func ContainsPoint(polygon []geo.Point, x, z float64) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if (pi.Z > z) != (pj.Z > z) {
			xCross := (pj.X-pi.X)*(z-pi.Z)/(pj.Z-pi.Z) + pi.X
			if x < xCross {
				inside = !inside
			}
		}
	}
	return inside
}
