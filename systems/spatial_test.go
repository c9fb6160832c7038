package systems

import (
	"errors"
	"math"
	"testing"
)

func TestSectorGridIndex(t *testing.T) {
	g := NewSectorGrid(100, 60, 2, 2)

	tests := []struct {
		name    string
		x, y    float32
		want    int
		wantErr bool
	}{
		{"origin", 0, 0, 0, false},
		{"just left of column edge", 49.9, 0, 0, false},
		{"column edge", 50, 0, 1, false},
		{"row edge", 0, 30, 2, false},
		{"far corner", 99.9, 59.9, 3, false},
		{"past right wall", 100, 10, 0, true},
		{"past bottom wall", 10, 60, 0, true},
		{"negative x", -0.1, 5, 0, true},
		{"NaN", float32(math.NaN()), 5, 0, true},
		{"infinity", float32(math.Inf(1)), 5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Index(tt.x, tt.y)
			if tt.wantErr {
				if !errors.Is(err, ErrOutOfDomain) {
					t.Fatalf("Index(%v, %v) error = %v, want ErrOutOfDomain", tt.x, tt.y, err)
				}
				var de *DomainError
				if !errors.As(err, &de) || de.Len != 4 {
					t.Errorf("expected *DomainError with Len 4, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Index(%v, %v) unexpected error: %v", tt.x, tt.y, err)
			}
			if got != tt.want {
				t.Errorf("Index(%v, %v) = %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestSectorGridCoordsAndBounds(t *testing.T) {
	g := NewSectorGrid(300, 180, 5, 5)

	if g.Len() != 25 {
		t.Fatalf("Len() = %d, want 25", g.Len())
	}
	if g.CellW != 60 || g.CellH != 36 {
		t.Fatalf("cell size = %vx%v, want 60x36", g.CellW, g.CellH)
	}

	col, row := g.Coords(13)
	if col != 3 || row != 2 {
		t.Errorf("Coords(13) = (%d, %d), want (3, 2)", col, row)
	}

	minX, minY, maxX, maxY := g.Bounds(13)
	if minX != 180 || minY != 72 || maxX != 240 || maxY != 108 {
		t.Errorf("Bounds(13) = (%v, %v, %v, %v), want (180, 72, 240, 108)", minX, minY, maxX, maxY)
	}

	// Every cell's center maps back to itself.
	for i := 0; i < g.Len(); i++ {
		x0, y0, x1, y1 := g.Bounds(i)
		got, err := g.Index((x0+x1)/2, (y0+y1)/2)
		if err != nil || got != i {
			t.Errorf("center of cell %d mapped to %d (err %v)", i, got, err)
		}
	}
}
