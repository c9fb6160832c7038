package systems

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/partsim/components"
)

var (
	// ErrPopulationFull is returned when placing more particles than the world holds.
	ErrPopulationFull = errors.New("population full")

	// ErrPoisoned is returned by Process after a tick aborted on a geometry error.
	ErrPoisoned = errors.New("world aborted on an earlier tick")
)

// WorldSpec holds the fixed parameters of a simulation run.
type WorldSpec struct {
	Width, Height float32
	Radius        float32
	SectorsX      int
	SectorsY      int
	Objects       int

	// CheckDiagonals extends the broad-phase to the two diagonal neighbours.
	// Off by default: only right and below neighbours are scanned.
	CheckDiagonals bool
}

// PhaseTimer is notified when the tick enters each phase.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Tick phase names, in execution order.
const (
	PhaseIntegrate = "integrate"
	PhaseReflect   = "reflect"
	PhaseCollide   = "collide"
	PhaseReconcile = "reconcile"
	PhaseReassign  = "reassign"
	PhaseSerialize = "serialize"
)

// Phases lists every phase name in order.
var Phases = []string{
	PhaseIntegrate, PhaseReflect, PhaseCollide,
	PhaseReconcile, PhaseReassign, PhaseSerialize,
}

// TickStats holds counters for the most recent tick.
type TickStats struct {
	PairsTested int // candidate pairs distance-checked
	Collisions  int // pairs that touched and had velocities exchanged
	Reconciled  int // overflow particles moved back into a cell
	Diverted    int // particles sent to overflow during reassignment
	Overflow    int // overflow pool size after the tick
}

// World is the sector-partitioned simulator.
type World struct {
	grid           SectorGrid
	store          *Store
	radius         float32
	diameterSq     float32
	objects        int
	checkDiagonals bool

	timer PhaseTimer
	stats TickStats
	tick  int64
	err   error
}

// NewWorld allocates a world. Particles are added with Seed, PlaceAll or Place.
func NewWorld(spec WorldSpec) (*World, error) {
	switch {
	case spec.Width <= 0 || spec.Height <= 0:
		return nil, fmt.Errorf("world extents must be positive, got %gx%g", spec.Width, spec.Height)
	case spec.Radius <= 0:
		return nil, fmt.Errorf("radius must be positive, got %g", spec.Radius)
	case 2*spec.Radius >= spec.Width || 2*spec.Radius >= spec.Height:
		return nil, fmt.Errorf("radius %g does not fit a %gx%g world", spec.Radius, spec.Width, spec.Height)
	case spec.SectorsX <= 0 || spec.SectorsY <= 0:
		return nil, fmt.Errorf("sector grid must be positive, got %dx%d", spec.SectorsX, spec.SectorsY)
	case spec.Objects <= 0:
		return nil, fmt.Errorf("objects must be positive, got %d", spec.Objects)
	}

	grid := NewSectorGrid(spec.Width, spec.Height, spec.SectorsX, spec.SectorsY)
	capacity := SectorCapacity(spec.Objects, grid.Len())

	return &World{
		grid:           grid,
		store:          NewStore(spec.Objects, grid.Len(), capacity),
		radius:         spec.Radius,
		diameterSq:     4 * spec.Radius * spec.Radius,
		objects:        spec.Objects,
		checkDiagonals: spec.CheckDiagonals,
	}, nil
}

// Grid returns the sector geometry.
func (w *World) Grid() SectorGrid { return w.grid }

// Store returns the particle store.
func (w *World) Store() *Store { return w.store }

// Radius returns the particle radius.
func (w *World) Radius() float32 { return w.radius }

// Objects returns the population size.
func (w *World) Objects() int { return w.objects }

// Tick returns the number of completed ticks.
func (w *World) Tick() int64 { return w.tick }

// LastStats returns counters from the most recent tick.
func (w *World) LastStats() TickStats { return w.stats }

// SetPhaseTimer installs a timer notified at each tick phase. nil disables it.
func (w *World) SetPhaseTimer(t PhaseTimer) { w.timer = t }

// Err returns the error that aborted the world, if any.
func (w *World) Err() error { return w.err }

// Place adds a particle to the current buffer, or to overflow if its cell is full.
func (w *World) Place(p components.Particle) (overflowed bool, err error) {
	if w.store.Placed() >= w.objects {
		return false, ErrPopulationFull
	}
	idx, err := w.grid.Index(p.Pos.X, p.Pos.Y)
	if err != nil {
		return false, err
	}
	return w.store.place(idx, p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y), nil
}

// Reset removes every particle and clears any earlier abort.
func (w *World) Reset() {
	w.store.reset()
	w.stats = TickStats{}
	w.tick = 0
	w.err = nil
}

// LogValue implements slog.LogValuer.
func (w *World) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", w.tick),
		slog.Int("live", w.store.Live()),
		slog.Int("overflow", w.store.OverflowLen()),
		slog.Int("capacity", w.store.Capacity()),
		slog.Int("max_occupancy", w.store.MaxOccupancy()),
		slog.Int("collisions", w.stats.Collisions),
	)
}

func (w *World) phase(name string) {
	if w.timer != nil {
		w.timer.StartPhase(name)
	}
}
