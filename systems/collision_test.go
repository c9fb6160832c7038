package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/partsim/components"
)

// TestResolveElastic checks the velocity exchange along the line of centers.
func TestResolveElastic(t *testing.T) {
	tests := []struct {
		name   string
		d      components.Velocity
		va, vb components.Velocity
		wantA  components.Velocity
		wantB  components.Velocity
	}{
		{
			name:  "head-on swap",
			d:     components.Velocity{X: -1},
			va:    components.Velocity{X: 0.5},
			vb:    components.Velocity{X: -0.5},
			wantA: components.Velocity{X: -0.5},
			wantB: components.Velocity{X: 0.5},
		},
		{
			name:  "moving into stationary",
			d:     components.Velocity{X: -2},
			va:    components.Velocity{X: 1},
			vb:    components.Velocity{},
			wantA: components.Velocity{},
			wantB: components.Velocity{X: 1},
		},
		{
			name:  "perpendicular component kept",
			d:     components.Velocity{Y: 1.5},
			va:    components.Velocity{X: 0.3, Y: -1},
			vb:    components.Velocity{X: -0.2, Y: 1},
			wantA: components.Velocity{X: 0.3, Y: 1},
			wantB: components.Velocity{X: -0.2, Y: -1},
		},
		{
			name:  "zero separation leaves velocities",
			d:     components.Velocity{},
			va:    components.Velocity{X: 1, Y: 2},
			vb:    components.Velocity{X: 3, Y: 4},
			wantA: components.Velocity{X: 1, Y: 2},
			wantB: components.Velocity{X: 3, Y: 4},
		},
	}

	const eps = 1e-6
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotA, gotB := ResolveElastic(tt.d, tt.va, tt.vb)
			if math.Abs(float64(gotA.X-tt.wantA.X)) > eps || math.Abs(float64(gotA.Y-tt.wantA.Y)) > eps {
				t.Errorf("va' = %+v, want %+v", gotA, tt.wantA)
			}
			if math.Abs(float64(gotB.X-tt.wantB.X)) > eps || math.Abs(float64(gotB.Y-tt.wantB.Y)) > eps {
				t.Errorf("vb' = %+v, want %+v", gotB, tt.wantB)
			}
		})
	}
}

func TestResolveElasticConservesMomentumAndEnergy(t *testing.T) {
	d := components.Velocity{X: 0.7, Y: -1.1}
	va := components.Velocity{X: -0.4, Y: 0.9}
	vb := components.Velocity{X: 1.3, Y: 0.2}

	na, nb := ResolveElastic(d, va, vb)

	const eps = 1e-5
	if math.Abs(float64(na.X+nb.X-(va.X+vb.X))) > eps || math.Abs(float64(na.Y+nb.Y-(va.Y+vb.Y))) > eps {
		t.Errorf("momentum changed: before %v,%v after %v,%v", va.X+vb.X, va.Y+vb.Y, na.X+nb.X, na.Y+nb.Y)
	}
	before := va.LenSq() + vb.LenSq()
	after := na.LenSq() + nb.LenSq()
	if math.Abs(float64(after-before)) > eps {
		t.Errorf("kinetic energy = %v, want %v", after, before)
	}
}

// TestDiagonalNeighbours covers both diagonal directions across the shared
// corner of a 2x2 grid.
func TestDiagonalNeighbours(t *testing.T) {
	tests := []struct {
		name string
		a, b components.Particle
	}{
		{
			name: "down-right",
			a:    components.Particle{Pos: components.Position{X: 49.5, Y: 29.5}, Vel: components.Velocity{X: 0.1, Y: 0.1}},
			b:    components.Particle{Pos: components.Position{X: 50.3, Y: 30.3}, Vel: components.Velocity{X: -0.1, Y: -0.1}},
		},
		{
			name: "down-left",
			a:    components.Particle{Pos: components.Position{X: 50.4, Y: 29.4}, Vel: components.Velocity{X: -0.1, Y: 0.1}},
			b:    components.Particle{Pos: components.Position{X: 49.6, Y: 30.6}, Vel: components.Velocity{X: 0.1, Y: -0.1}},
		},
	}

	for _, tt := range tests {
		for _, diagonals := range []bool{false, true} {
			name := tt.name + "/without diagonals"
			want := 0
			if diagonals {
				name = tt.name + "/with diagonals"
				want = 1
			}
			t.Run(name, func(t *testing.T) {
				w := newTestWorld(t, WorldSpec{
					Width: 100, Height: 60, Radius: 1,
					SectorsX: 2, SectorsY: 2, Objects: 2,
					CheckDiagonals: diagonals,
				})
				if err := PlaceAll(w, []components.Particle{tt.a, tt.b}); err != nil {
					t.Fatalf("PlaceAll: %v", err)
				}
				if err := w.Process(); err != nil {
					t.Fatalf("Process: %v", err)
				}
				if got := w.LastStats().Collisions; got != want {
					t.Errorf("collisions = %d, want %d", got, want)
				}
			})
		}
	}
}

func TestPairsTested(t *testing.T) {
	tests := []struct {
		name      string
		particles []components.Particle
		want      int
	}{
		{
			name: "three in one cell",
			particles: []components.Particle{
				{Pos: components.Position{X: 10, Y: 10}},
				{Pos: components.Position{X: 20, Y: 10}},
				{Pos: components.Position{X: 30, Y: 10}},
			},
			want: 3,
		},
		{
			name: "right neighbours",
			particles: []components.Particle{
				{Pos: components.Position{X: 10, Y: 10}},
				{Pos: components.Position{X: 60, Y: 10}},
				{Pos: components.Position{X: 70, Y: 10}},
			},
			// one inside cell 1, two across the 0|1 edge
			want: 3,
		},
		{
			name: "opposite corners are never paired",
			particles: []components.Particle{
				{Pos: components.Position{X: 10, Y: 10}},
				{Pos: components.Position{X: 90, Y: 50}},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, WorldSpec{Width: 100, Height: 60, Radius: 1, SectorsX: 2, SectorsY: 2, Objects: 10})
			if err := PlaceAll(w, tt.particles); err != nil {
				t.Fatalf("PlaceAll: %v", err)
			}
			if err := w.Process(); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if got := w.LastStats().PairsTested; got != tt.want {
				t.Errorf("pairs tested = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOverflowParticlesCollide(t *testing.T) {
	w := newTestWorld(t, WorldSpec{Width: 100, Height: 60, Radius: 1, SectorsX: 2, SectorsY: 2, Objects: 40})
	capacity := w.Store().Capacity()

	// Fill cell 0 with stationary particles so the colliding pair overflows.
	var particles []components.Particle
	for i := 0; i < capacity; i++ {
		particles = append(particles, components.Particle{
			Pos: components.Position{X: 3 + 4*float32(i%10), Y: 5 + 10*float32(i/10)},
		})
	}
	particles = append(particles,
		components.Particle{Pos: components.Position{X: 20, Y: 26}, Vel: components.Velocity{X: 0.5}},
		components.Particle{Pos: components.Position{X: 22, Y: 26}, Vel: components.Velocity{X: -0.5}},
	)
	if err := PlaceAll(w, particles); err != nil {
		t.Fatalf("PlaceAll: %v", err)
	}
	if w.Store().OverflowLen() != 2 {
		t.Fatalf("overflow = %d, want 2", w.Store().OverflowLen())
	}

	if err := w.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := w.LastStats().Collisions; got != 1 {
		t.Errorf("collisions = %d, want 1", got)
	}
	var sum float32
	w.Store().Each(func(_ int, p components.Particle) {
		if p.Pos.Y != 26 {
			return
		}
		if p.Pos.X < 21 && p.Vel.X != -0.5 {
			t.Errorf("left particle velocity = %v, want -0.5", p.Vel.X)
		}
		sum += p.Vel.X
	})
	if sum != 0 {
		t.Errorf("momentum = %v, want 0", sum)
	}
}
