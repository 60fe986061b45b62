package geo

import "math"

// DefaultScale is world units per degree of latitude.
const DefaultScale = 100000.0

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point is a position on the world ground plane.
type Point struct {
	X float64
	Z float64
}

// Frame maps geographic coordinates onto the world plane around Origin.
// A Frame is a value: a new world gets a new Frame.
type Frame struct {
	origin LatLon
	scale  float64
	cosLat float64
}

// NewFrame panics on a non-positive scale.
func NewFrame(origin LatLon, scale float64) Frame {
	if !(scale > 0) {
		panic("geo: frame scale must be positive")
	}
	return Frame{
		origin: origin,
		scale:  scale,
		cosLat: math.Cos(origin.Lat * math.Pi / 180),
	}
}

func (f Frame) Origin() LatLon { return f.origin }
func (f Frame) Scale() float64 { return f.scale }
func (f Frame) IsZero() bool   { return f.scale == 0 }

// ToWorld projects lat/lon into the frame. North is -Z.
func (f Frame) ToWorld(lat, lon float64) Point {
	return Point{
		X: (lon - f.origin.Lon) * f.scale * f.cosLat,
		Z: -(lat - f.origin.Lat) * f.scale,
	}
}

// ToGeo is the inverse of ToWorld.
func (f Frame) ToGeo(x, z float64) LatLon {
	return LatLon{
		Lat: f.origin.Lat - z/f.scale,
		Lon: f.origin.Lon + x/(f.scale*f.cosLat),
	}
}

// Round6 rounds to the six decimals used for display and storage.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
