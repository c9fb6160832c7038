package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/partsim/camera"
	"github.com/pthm-cable/partsim/components"
	"github.com/pthm-cable/partsim/systems"
)

// PointRenderer draws particles as filled circles through the camera.
type PointRenderer struct {
	grid      systems.SectorGrid
	radius    float32
	palette   *Palette
	colors    []rl.Color
	positions []components.Position

	// ShowGrid draws sector boundaries behind the particles.
	ShowGrid bool
}

// NewPointRenderer creates a renderer for objects particles of the given radius.
func NewPointRenderer(grid systems.SectorGrid, objects int, radius float32, palette *Palette) *PointRenderer {
	r := &PointRenderer{
		grid:      grid,
		radius:    radius,
		palette:   palette,
		colors:    make([]rl.Color, palette.Len()+1),
		positions: make([]components.Position, objects),
	}
	for i := range r.colors {
		idx := i
		if i == palette.Len() {
			idx = -1 // last slot is the overflow color
		}
		cr, cg, cb := palette.RGB255(idx)
		r.colors[i] = rl.Color{R: cr, G: cg, B: cb, A: 255}
	}
	return r
}

// Draw decodes buf and renders every visible particle. Returns the number drawn.
func (r *PointRenderer) Draw(buf []byte, cam *camera.Camera) int {
	if r.ShowGrid {
		r.drawGrid(cam)
	}

	n := systems.DecodePositions(buf, r.positions)
	size := r.radius * cam.Zoom
	if size < 1 {
		size = 1
	}

	drawn := 0
	for i := 0; i < n; i++ {
		p := r.positions[i]
		if !cam.IsVisible(p.X, p.Y, r.radius) {
			continue
		}
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, size, r.colorAt(p))
		drawn++
	}
	return drawn
}

// SectorColors returns one draw color per sector, in sector index order.
func (r *PointRenderer) SectorColors() []rl.Color {
	return r.colors[:r.palette.Len()]
}

func (r *PointRenderer) colorAt(p components.Position) rl.Color {
	idx, err := r.grid.Index(p.X, p.Y)
	if err != nil {
		return r.colors[len(r.colors)-1]
	}
	return r.colors[idx]
}

// drawGrid outlines the world and every sector boundary.
func (r *PointRenderer) drawGrid(cam *camera.Camera) {
	lineColor := rl.Color{R: 60, G: 70, B: 80, A: 255}

	top := float32(0)
	bottom := r.grid.Height
	for col := 0; col <= r.grid.Cols; col++ {
		x := float32(col) * r.grid.CellW
		x0, y0 := cam.WorldToScreen(x, top)
		x1, y1 := cam.WorldToScreen(x, bottom)
		rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, lineColor)
	}

	left := float32(0)
	right := r.grid.Width
	for row := 0; row <= r.grid.Rows; row++ {
		y := float32(row) * r.grid.CellH
		x0, y0 := cam.WorldToScreen(left, y)
		x1, y1 := cam.WorldToScreen(right, y)
		rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, lineColor)
	}
}
