package renderer

import (
	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/partsim/components"
	"github.com/pthm-cable/partsim/systems"
)

// densityGlyphs maps particle count per character cell to a glyph.
var densityGlyphs = []rune{' ', '.', ':', 'o', 'O', '@'}

// TerminalRenderer rasterizes the position buffer into a character grid.
// The bottom row is reserved for a status line.
type TerminalRenderer struct {
	screen    tcell.Screen
	grid      systems.SectorGrid
	styles    []tcell.Style
	positions []components.Position

	// Per character cell scratch, resized with the screen
	counts  []int
	sectors []int
	w, h    int
}

// NewTerminalRenderer creates a renderer drawing onto screen.
func NewTerminalRenderer(screen tcell.Screen, grid systems.SectorGrid, objects int, palette *Palette) *TerminalRenderer {
	r := &TerminalRenderer{
		screen:    screen,
		grid:      grid,
		styles:    make([]tcell.Style, palette.Len()+1),
		positions: make([]components.Position, objects),
	}
	for i := range r.styles {
		idx := i
		if i == palette.Len() {
			idx = -1
		}
		cr, cg, cb := palette.RGB255(idx)
		r.styles[i] = tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(cr), int32(cg), int32(cb)))
	}
	return r
}

// Draw decodes buf, fills the screen and writes status on the last row.
// Returns the number of positions decoded.
func (r *TerminalRenderer) Draw(buf []byte, status string) int {
	w, h := r.screen.Size()
	r.resize(w, h-1)

	n := systems.DecodePositions(buf, r.positions)
	for i := 0; i < n; i++ {
		p := r.positions[i]
		cx, cy, ok := r.cellOf(p)
		if !ok {
			continue
		}
		k := cy*r.w + cx
		if r.counts[k] == 0 {
			r.sectors[k] = r.sectorOf(p)
		}
		r.counts[k]++
	}

	r.screen.Clear()
	for cy := 0; cy < r.h; cy++ {
		for cx := 0; cx < r.w; cx++ {
			k := cy*r.w + cx
			c := r.counts[k]
			if c == 0 {
				continue
			}
			if c >= len(densityGlyphs) {
				c = len(densityGlyphs) - 1
			}
			r.screen.SetContent(cx, cy, densityGlyphs[c], nil, r.styles[r.sectors[k]])
		}
	}

	if h > 0 {
		statusStyle := tcell.StyleDefault.Reverse(true)
		col := 0
		for _, ch := range status {
			if col >= w {
				break
			}
			r.screen.SetContent(col, h-1, ch, nil, statusStyle)
			col++
		}
	}

	r.screen.Show()
	return n
}

func (r *TerminalRenderer) resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	if w != r.w || h != r.h {
		r.w, r.h = w, h
		r.counts = make([]int, w*h)
		r.sectors = make([]int, w*h)
		return
	}
	for i := range r.counts {
		r.counts[i] = 0
	}
}

// cellOf maps a world position onto the character grid.
func (r *TerminalRenderer) cellOf(p components.Position) (cx, cy int, ok bool) {
	if r.w == 0 || r.h == 0 {
		return 0, 0, false
	}
	cx = int(p.X / r.grid.Width * float32(r.w))
	cy = int(p.Y / r.grid.Height * float32(r.h))
	if cx < 0 || cx >= r.w || cy < 0 || cy >= r.h {
		return 0, 0, false
	}
	return cx, cy, true
}

func (r *TerminalRenderer) sectorOf(p components.Position) int {
	idx, err := r.grid.Index(p.X, p.Y)
	if err != nil {
		return len(r.styles) - 1
	}
	return idx
}
