package world

import (
	"fmt"
	"math"
)

// GridTerrain is a regular heightmap anchored at (MinX, MinZ). Heights are
// row-major, Cols values per row. Queries outside the grid return NaN.
type GridTerrain struct {
	MinX, MinZ float64
	CellSize   float64
	Cols, Rows int
	Heights    []float64
}

func NewGridTerrain(minX, minZ, cellSize float64, cols, rows int, heights []float64) (*GridTerrain, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("terrain cell size must be positive, got %v", cellSize)
	}
	if cols < 2 || rows < 2 {
		return nil, fmt.Errorf("terrain grid must be at least 2x2, got %dx%d", cols, rows)
	}
	if len(heights) != cols*rows {
		return nil, fmt.Errorf("terrain has %d heights, want %d", len(heights), cols*rows)
	}
	return &GridTerrain{MinX: minX, MinZ: minZ, CellSize: cellSize, Cols: cols, Rows: rows, Heights: heights}, nil
}

// HeightAt interpolates bilinearly between the four surrounding samples.
// Non-finite coordinates return NaN.
func (g *GridTerrain) HeightAt(x, z float64) float64 {
	fx := (x - g.MinX) / g.CellSize
	fz := (z - g.MinZ) / g.CellSize
	if math.IsNaN(fx) || math.IsNaN(fz) || math.IsInf(fx, 0) || math.IsInf(fz, 0) {
		return math.NaN()
	}
	if fx < 0 || fz < 0 || fx > float64(g.Cols-1) || fz > float64(g.Rows-1) {
		return math.NaN()
	}
	c0, r0 := int(fx), int(fz)
	c1, r1 := min(c0+1, g.Cols-1), min(r0+1, g.Rows-1)
	tx, tz := fx-float64(c0), fz-float64(r0)

	h00 := g.at(c0, r0)
	h10 := g.at(c1, r0)
	h01 := g.at(c0, r1)
	h11 := g.at(c1, r1)

	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*tz
}

func (g *GridTerrain) at(col, row int) float64 {
	return g.Heights[row*g.Cols+col]
}
