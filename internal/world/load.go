package world

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/playperu/geodrive/internal/geo"
)

const (
	DefaultRoadWidth      = 8.0
	DefaultBuildingHeight = 10.0
	LevelHeight           = 3.2
)

var roadWidths = map[string]float64{
	"motorway":    16,
	"trunk":       14,
	"primary":     12,
	"secondary":   10,
	"tertiary":    9,
	"residential": 8,
	"service":     5,
	"footway":     3,
	"path":        2,
}

// Document is the on-disk map format: features in geographic coordinates,
// terrain already in world units around the location origin.
type Document struct {
	Name      string        `json:"name"`
	Roads     []roadDoc     `json:"roads"`
	Buildings []buildingDoc `json:"buildings"`
	Terrain   *terrainDoc   `json:"terrain,omitempty"`
}

type roadDoc struct {
	Kind   string       `json:"kind"`
	Width  float64      `json:"width"`
	Points []geo.LatLon `json:"points"`
}

type buildingDoc struct {
	// Height is absent for features without a measured height; an explicit
	// 0 is a flat footprint.
	Height    *float64     `json:"height"`
	Levels    int          `json:"levels"`
	Footprint []geo.LatLon `json:"footprint"`
}

type terrainDoc struct {
	MinX     float64   `json:"minX"`
	MinZ     float64   `json:"minZ"`
	CellSize float64   `json:"cellSize"`
	Cols     int       `json:"cols"`
	Rows     int       `json:"rows"`
	Heights  []float64 `json:"heights"`
}

// LoadStats counts features dropped while loading.
type LoadStats struct {
	Roads            int
	Buildings        int
	DroppedRoads     int
	DroppedBuildings int
}

// Load decodes a Document from r and projects it into a new frame centred
// on the selected location. Malformed features are dropped, not fatal.
func Load(r io.Reader, sel geo.Selection, scale float64, logger *slog.Logger) (*World, LoadStats, error) {
	loc, err := sel.Resolve()
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("resolving location: %w", err)
	}

	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, LoadStats{}, fmt.Errorf("decoding world document: %w", err)
	}

	w, stats, err := Build(doc, loc, geo.NewFrame(geo.LatLon{Lat: loc.Lat, Lon: loc.Lon}, scale))
	if err != nil {
		return nil, stats, err
	}
	if stats.DroppedRoads > 0 || stats.DroppedBuildings > 0 {
		logger.Warn("dropped malformed map features",
			"roads", stats.DroppedRoads,
			"buildings", stats.DroppedBuildings,
		)
	}
	logger.Info("world loaded",
		"location", loc.Name,
		"roads", stats.Roads,
		"buildings", stats.Buildings,
	)
	return w, stats, nil
}

// Build projects a decoded document through frame.
func Build(doc Document, loc geo.Location, frame geo.Frame) (*World, LoadStats, error) {
	var stats LoadStats

	roads := make([]*Road, 0, len(doc.Roads))
	for _, rd := range doc.Roads {
		width := rd.Width
		if width == 0 {
			width = roadWidths[rd.Kind]
		}
		if width == 0 {
			width = DefaultRoadWidth
		}
		if len(rd.Points) == 0 || width <= 0 {
			stats.DroppedRoads++
			continue
		}
		pts := make([]geo.Point, len(rd.Points))
		for i, p := range rd.Points {
			pts[i] = frame.ToWorld(p.Lat, p.Lon)
		}
		roads = append(roads, &Road{Kind: rd.Kind, Points: pts, Width: width})
	}

	buildings := make([]*Building, 0, len(doc.Buildings))
	for _, bd := range doc.Buildings {
		fp := bd.Footprint
		if n := len(fp); n > 1 && fp[0] == fp[n-1] {
			fp = fp[:n-1]
		}
		var height float64
		switch {
		case bd.Height != nil:
			height = *bd.Height
		case bd.Levels > 0:
			height = float64(bd.Levels) * LevelHeight
		default:
			height = DefaultBuildingHeight
		}
		if len(fp) < 3 || height < 0 {
			stats.DroppedBuildings++
			continue
		}
		pts := make([]geo.Point, len(fp))
		for i, p := range fp {
			pts[i] = frame.ToWorld(p.Lat, p.Lon)
		}
		buildings = append(buildings, NewBuilding(pts, height))
	}

	var terrain Terrain
	if td := doc.Terrain; td != nil {
		g, err := NewGridTerrain(td.MinX, td.MinZ, td.CellSize, td.Cols, td.Rows, td.Heights)
		if err != nil {
			return nil, stats, fmt.Errorf("building terrain: %w", err)
		}
		terrain = g
	}

	stats.Roads = len(roads)
	stats.Buildings = len(buildings)

	w := New(loc, frame, roads, buildings, terrain)
	if doc.Name != "" {
		w.Name = doc.Name
	}
	return w, stats, nil
}
