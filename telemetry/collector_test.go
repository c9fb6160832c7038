package telemetry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/partsim/components"
	"github.com/pthm-cable/partsim/systems"
)

func TestCollector_ShouldFlush(t *testing.T) {
	c := NewCollector(1.0, 1.0/60.0)
	if got := c.WindowDurationTicks(); got != 60 {
		t.Fatalf("WindowDurationTicks() = %d, want 60", got)
	}
	if c.ShouldFlush(59) {
		t.Error("ShouldFlush(59) = true, want false")
	}
	if !c.ShouldFlush(60) {
		t.Error("ShouldFlush(60) = false, want true")
	}

	tiny := NewCollector(0.001, 1.0/60.0)
	if got := tiny.WindowDurationTicks(); got != 1 {
		t.Errorf("WindowDurationTicks() = %d, want 1 for sub-tick windows", got)
	}
}

func TestCollector_Flush(t *testing.T) {
	const dt = float32(0.5)
	w, err := systems.NewWorld(systems.WorldSpec{Width: 100, Height: 60, Radius: 1, SectorsX: 2, SectorsY: 2, Objects: 4})
	if err != nil {
		t.Fatal(err)
	}
	// Per-tick velocities of length 1 are 2 units/s at dt = 0.5.
	err = systems.PlaceAll(w, []components.Particle{
		{Pos: components.Position{X: 10, Y: 10}, Vel: components.Velocity{X: 1}},
		{Pos: components.Position{X: 20, Y: 10}, Vel: components.Velocity{Y: 1}},
		{Pos: components.Position{X: 60, Y: 10}, Vel: components.Velocity{X: -1}},
		{Pos: components.Position{X: 60, Y: 40}, Vel: components.Velocity{Y: -1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	c := NewCollector(1.0, dt)
	c.RecordTick(systems.TickStats{PairsTested: 4, Collisions: 1, Overflow: 0})
	c.RecordTick(systems.TickStats{PairsTested: 6, Collisions: 3, Overflow: 2, Diverted: 2})

	s := c.Flush(2, w)

	if s.WindowStartTick != 0 || s.WindowEndTick != 2 {
		t.Errorf("window = [%d, %d], want [0, 2]", s.WindowStartTick, s.WindowEndTick)
	}
	if s.SimTimeSec != 1.0 {
		t.Errorf("SimTimeSec = %v, want 1.0", s.SimTimeSec)
	}
	if s.PairsPerTick != 5 || s.CollisionsPerTick != 2 {
		t.Errorf("per tick = %v pairs, %v collisions, want 5, 2", s.PairsPerTick, s.CollisionsPerTick)
	}
	if s.OverflowMax != 2 || s.OverflowMean != 1 || s.Diverted != 2 {
		t.Errorf("overflow max/mean/diverted = %d/%v/%d, want 2/1/2", s.OverflowMax, s.OverflowMean, s.Diverted)
	}
	if s.Objects != 4 || s.Sectors != 4 {
		t.Errorf("objects/sectors = %d/%d, want 4/4", s.Objects, s.Sectors)
	}
	if s.OccupancyMean != 1 || s.OccupancyMax != 2 {
		t.Errorf("occupancy mean/max = %v/%d, want 1/2", s.OccupancyMean, s.OccupancyMax)
	}
	if math.Abs(s.SpeedMean-2) > 1e-6 || math.Abs(s.SpeedP50-2) > 1e-6 {
		t.Errorf("speed mean/p50 = %v/%v, want 2/2", s.SpeedMean, s.SpeedP50)
	}
	if math.Abs(s.KineticMean-2) > 1e-6 {
		t.Errorf("KineticMean = %v, want 2", s.KineticMean)
	}

	// Counters start over for the next window.
	next := c.Flush(3, w)
	if next.WindowStartTick != 2 || next.PairsPerTick != 0 || next.OverflowMax != 0 {
		t.Errorf("second window = %+v, want reset counters starting at tick 2", next)
	}
}

func TestCollector_SeededWorld(t *testing.T) {
	spec := systems.WorldSpec{Width: 300, Height: 180, Radius: 1, SectorsX: 5, SectorsY: 5, Objects: 300}
	w, err := systems.NewWorld(spec)
	if err != nil {
		t.Fatal(err)
	}
	if err := systems.Seed(w, rand.New(rand.NewSource(42)), systems.SeedSpec{MinSpeed: 10, MaxSpeed: 40, TickDelta: 1.0 / 60.0}); err != nil {
		t.Fatal(err)
	}

	c := NewCollector(1.0, 1.0/60.0)
	for tick := int64(1); tick <= 60; tick++ {
		if err := w.Process(); err != nil {
			t.Fatal(err)
		}
		c.RecordTick(w.LastStats())
	}
	if !c.ShouldFlush(60) {
		t.Fatal("expected window to be complete after 60 ticks")
	}
	s := c.Flush(60, w)

	if s.Capacity != 24 || s.Excess != 1.0 {
		t.Errorf("capacity/excess = %d/%v, want 24/1.0", s.Capacity, s.Excess)
	}
	// Both velocity components lie in [10, 40), so speed is in [10*sqrt2, 40*sqrt2).
	// Collisions redistribute speed, so only the mean is bounded tightly.
	if s.SpeedMean < 10 || s.SpeedMean > 60 {
		t.Errorf("SpeedMean = %v, want within seeded range", s.SpeedMean)
	}
	if math.Abs(s.OccupancyMean*float64(s.Sectors)+float64(s.OverflowEnd)-300) > 1e-9 {
		t.Errorf("occupancy mean %v with overflow %d does not account for 300 particles", s.OccupancyMean, s.OverflowEnd)
	}
	if s.OverflowProb <= 0 || s.OverflowProb > 0.01 {
		t.Errorf("OverflowProb = %v, want small positive", s.OverflowProb)
	}
}
