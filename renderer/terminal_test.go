package renderer

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/partsim/components"
	"github.com/pthm-cable/partsim/systems"
)

func encode(t *testing.T, positions []components.Position) []byte {
	t.Helper()
	w, err := systems.NewWorld(systems.WorldSpec{Width: 100, Height: 60, Radius: 1, SectorsX: 2, SectorsY: 2, Objects: len(positions)})
	if err != nil {
		t.Fatal(err)
	}
	particles := make([]components.Particle, len(positions))
	for i, p := range positions {
		particles[i].Pos = p
	}
	if err := systems.PlaceAll(w, particles); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, w.BufferSize())
	if _, err := w.Write(buf); err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestTerminalRenderer_Density(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(10, 7) // 10x6 drawing area, one status row

	grid := systems.NewSectorGrid(100, 60, 2, 2)
	r := NewTerminalRenderer(screen, grid, 4, NewPalette(grid.Len(), 0.65, 0.95))

	// Each character cell covers 10x10 world units.
	buf := encode(t, []components.Position{
		{X: 5, Y: 5},
		{X: 6, Y: 6},
		{X: 7, Y: 4},
		{X: 95, Y: 55},
	})

	if n := r.Draw(buf, "tick 1"); n != 4 {
		t.Fatalf("Draw decoded %d positions, want 4", n)
	}

	tests := []struct {
		name string
		x, y int
		want rune
	}{
		{"three particles stack", 0, 0, 'o'},
		{"single particle", 9, 5, '.'},
		{"empty cell", 4, 3, ' '},
		{"status line", 0, 6, 't'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _, _ := screen.GetContent(tt.x, tt.y)
			if got != tt.want {
				t.Errorf("content at (%d, %d) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestTerminalRenderer_StatusTruncated(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(5, 3)

	grid := systems.NewSectorGrid(100, 60, 2, 2)
	r := NewTerminalRenderer(screen, grid, 1, NewPalette(grid.Len(), 0.65, 0.95))
	r.Draw(encode(t, []components.Position{{X: 50, Y: 30}}), strings.Repeat("x", 20))

	for x := 0; x < 5; x++ {
		got, _, _, _ := screen.GetContent(x, 2)
		if got != 'x' {
			t.Errorf("status column %d = %q, want 'x'", x, got)
		}
	}
}
