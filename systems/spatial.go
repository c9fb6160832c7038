// Package systems implements the sector-partitioned particle simulator.
package systems

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfDomain is returned when a position maps outside the sector grid.
// It means a particle escaped the world despite boundary reflection.
var ErrOutOfDomain = errors.New("position outside sector grid")

// DomainError reports the offending position and the index it mapped to.
type DomainError struct {
	X, Y  float32
	Index int
	Len   int
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("sector index %d for (%g, %g) not in [0, %d)", e.Index, e.X, e.Y, e.Len)
}

func (e *DomainError) Unwrap() error { return ErrOutOfDomain }

// SectorGrid maps continuous world positions onto a row-major grid of cells.
type SectorGrid struct {
	Cols, Rows    int
	Width, Height float32
	CellW, CellH  float32
}

// NewSectorGrid creates a grid of cols x rows cells covering width x height.
func NewSectorGrid(width, height float32, cols, rows int) SectorGrid {
	return SectorGrid{
		Cols:   cols,
		Rows:   rows,
		Width:  width,
		Height: height,
		CellW:  width / float32(cols),
		CellH:  height / float32(rows),
	}
}

// Len returns the number of cells.
func (g SectorGrid) Len() int {
	return g.Cols * g.Rows
}

// Index returns the flat cell index for a world position.
// Unlike a clamping lookup, an out-of-range position is an error.
func (g SectorGrid) Index(x, y float32) (int, error) {
	fx := math.Floor(float64(x / g.CellW))
	fy := math.Floor(float64(y / g.CellH))
	// NaN and anything past either edge fail here before the int conversion.
	if !(fx >= 0 && fx < float64(g.Cols) && fy >= 0 && fy < float64(g.Rows)) {
		idx := -1
		if !math.IsNaN(fx) && !math.IsNaN(fy) && !math.IsInf(fx, 0) && !math.IsInf(fy, 0) {
			idx = int(fx) + int(fy)*g.Cols
		}
		return idx, &DomainError{X: x, Y: y, Index: idx, Len: g.Len()}
	}
	return int(fx) + int(fy)*g.Cols, nil
}

// Coords returns the column and row of a flat index.
func (g SectorGrid) Coords(index int) (col, row int) {
	return index % g.Cols, index / g.Cols
}

// Bounds returns the world-space rectangle covered by a cell.
func (g SectorGrid) Bounds(index int) (minX, minY, maxX, maxY float32) {
	col, row := g.Coords(index)
	minX = float32(col) * g.CellW
	minY = float32(row) * g.CellH
	return minX, minY, minX + g.CellW, minY + g.CellH
}
