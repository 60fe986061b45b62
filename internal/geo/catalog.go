// Package geo holds the named-location catalog and the transform between
// geographic coordinates and the local planar world frame.
// It has no external dependencies.
package geo

import (
	"fmt"
	"strings"
)

type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

var catalog = []Location{
	{Name: "Baltimore", Lat: 39.2904, Lon: -76.6122},
	{Name: "Hollywood", Lat: 34.0928, Lon: -118.3287},
	{Name: "New York", Lat: 40.7580, Lon: -73.9855},
	{Name: "Miami", Lat: 25.7617, Lon: -80.1918},
	{Name: "Lima", Lat: -12.0464, Lon: -77.0428},
	{Name: "Paris", Lat: 48.8566, Lon: 2.3522},
	{Name: "London", Lat: 51.5072, Lon: -0.1276},
	{Name: "Monaco", Lat: 43.7384, Lon: 7.4246},
	{Name: "Tokyo", Lat: 35.6595, Lon: 139.7005},
	{Name: "Las Vegas", Lat: 36.1147, Lon: -115.1728},
}

// Catalog returns a copy of the preset locations.
func Catalog() []Location {
	out := make([]Location, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a preset by name, case-insensitively.
func Lookup(name string) (Location, bool) {
	for _, l := range catalog {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return Location{}, false
}

// CustomKey is the selection value for a user-supplied coordinate.
const CustomKey = "custom"

// Selection is the session's choice of where the world is built: either a
// preset name or CustomKey with explicit coordinates.
type Selection struct {
	Key       string
	CustomLat float64
	CustomLon float64
}

func Preset(name string) Selection { return Selection{Key: name} }

func Custom(lat, lon float64) Selection {
	return Selection{Key: CustomKey, CustomLat: lat, CustomLon: lon}
}

// Resolve returns the location the selection points at.
func (s Selection) Resolve() (Location, error) {
	if s.Key == CustomKey {
		// Poles are excluded: the frame's east-west scale vanishes there.
		if !(s.CustomLat > -90 && s.CustomLat < 90 && s.CustomLon >= -180 && s.CustomLon <= 180) {
			return Location{}, fmt.Errorf("custom coordinate out of range: %v, %v", s.CustomLat, s.CustomLon)
		}
		return Location{
			Name: fmt.Sprintf("Custom (%.4f, %.4f)", s.CustomLat, s.CustomLon),
			Lat:  s.CustomLat,
			Lon:  s.CustomLon,
		}, nil
	}
	l, ok := Lookup(s.Key)
	if !ok {
		return Location{}, fmt.Errorf("unknown location %q", s.Key)
	}
	return l, nil
}
