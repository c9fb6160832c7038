package systems

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/partsim/components"
)

// SeedSpec controls initial velocities.
// Speeds are in world units per second; TickDelta converts them to the
// per-tick displacement Process integrates.
type SeedSpec struct {
	MinSpeed  float32
	MaxSpeed  float32
	TickDelta float32
}

// Seed clears the world and fills it with Objects particles drawn from rng.
// Positions are uniform over the region a particle's center may occupy.
// Each velocity component has a random sign and a magnitude uniform in
// [MinSpeed, MaxSpeed).
func Seed(w *World, rng *rand.Rand, spec SeedSpec) error {
	if spec.MaxSpeed < spec.MinSpeed {
		return fmt.Errorf("speed range inverted: [%g, %g]", spec.MinSpeed, spec.MaxSpeed)
	}
	w.Reset()

	spanX := w.grid.Width - 2*w.radius
	spanY := w.grid.Height - 2*w.radius
	for i := 0; i < w.objects; i++ {
		p := components.Particle{
			Pos: components.Position{
				X: w.radius + rng.Float32()*spanX,
				Y: w.radius + rng.Float32()*spanY,
			},
			Vel: components.Velocity{
				X: randomComponent(rng, spec.MinSpeed, spec.MaxSpeed) * spec.TickDelta,
				Y: randomComponent(rng, spec.MinSpeed, spec.MaxSpeed) * spec.TickDelta,
			},
		}
		if _, err := w.Place(p); err != nil {
			return fmt.Errorf("seeding particle %d: %w", i, err)
		}
	}
	return nil
}

func randomComponent(rng *rand.Rand, lo, hi float32) float32 {
	v := lo + rng.Float32()*(hi-lo)
	if rng.Intn(2) == 0 {
		v = -v
	}
	return v
}

// PlaceAll clears the world and places the given particles in order.
// Velocities are used as given, already in per-tick units.
func PlaceAll(w *World, particles []components.Particle) error {
	if len(particles) > w.objects {
		return fmt.Errorf("%d particles for a world of %d: %w", len(particles), w.objects, ErrPopulationFull)
	}
	w.Reset()
	for i, p := range particles {
		if _, err := w.Place(p); err != nil {
			return fmt.Errorf("placing particle %d: %w", i, err)
		}
	}
	return nil
}
