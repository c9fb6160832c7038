package telemetry

import (
	"math"

	"github.com/pthm-cable/partsim/components"
	"github.com/pthm-cable/partsim/systems"
)

// Collector accumulates per-tick counters within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float32

	// Current window tracking
	windowStartTick int64
	ticks           int

	// Counters for current window
	pairsTested  int
	collisions   int
	diverted     int
	reconciled   int
	overflowSum  int
	overflowMax  int
	occupancyBuf []float64
	speedBuf     []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	// dt is usually an inexact float32 like 1/60, so round rather than truncate
	ticksPerWindow := int64(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordTick folds one tick's counters into the current window.
func (c *Collector) RecordTick(ts systems.TickStats) {
	c.ticks++
	c.pairsTested += ts.PairsTested
	c.collisions += ts.Collisions
	c.diverted += ts.Diverted
	c.reconciled += ts.Reconciled
	c.overflowSum += ts.Overflow
	if ts.Overflow > c.overflowMax {
		c.overflowMax = ts.Overflow
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the counters and the world's state at
// currentTick, then resets counters for the next window.
func (c *Collector) Flush(currentTick int64, w *systems.World) WindowStats {
	store := w.Store()
	objects := w.Objects()
	sectors := w.Grid().Len()

	c.occupancyBuf = store.Occupancy(c.occupancyBuf[:0])
	occMean, occStd, occP90, occMax := ComputeOccupancyStats(c.occupancyBuf)

	// Velocities are stored per tick; report them per second.
	perSec := 1 / float64(c.dt)
	c.speedBuf = c.speedBuf[:0]
	var kinetic float64
	store.Each(func(_ int, p components.Particle) {
		v2 := float64(p.Vel.LenSq()) * perSec * perSec
		c.speedBuf = append(c.speedBuf, math.Sqrt(v2))
		kinetic += 0.5 * v2
	})
	speedMean, speedP10, speedP50, speedP90 := ComputeSpeedStats(c.speedBuf)
	if n := len(c.speedBuf); n > 0 {
		kinetic /= float64(n)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Objects:  objects,
		Sectors:  sectors,
		Capacity: store.Capacity(),
		Excess:   systems.CapacityExcess(objects, sectors),

		OverflowEnd:  store.OverflowLen(),
		OverflowMax:  c.overflowMax,
		OverflowProb: systems.OverflowProbability(objects, sectors, store.Capacity()),
		Diverted:     c.diverted,
		Reconciled:   c.reconciled,

		OccupancyMean: occMean,
		OccupancyStd:  occStd,
		OccupancyP90:  occP90,
		OccupancyMax:  occMax,

		SpeedMean: speedMean,
		SpeedP10:  speedP10,
		SpeedP50:  speedP50,
		SpeedP90:  speedP90,

		KineticMean: kinetic,
	}
	if c.ticks > 0 {
		stats.OverflowMean = float64(c.overflowSum) / float64(c.ticks)
		stats.PairsPerTick = float64(c.pairsTested) / float64(c.ticks)
		stats.CollisionsPerTick = float64(c.collisions) / float64(c.ticks)
	}

	c.Reset(currentTick)
	return stats
}

// Reset clears the counters and starts a new window at tick.
func (c *Collector) Reset(tick int64) {
	c.windowStartTick = tick
	c.ticks = 0
	c.pairsTested = 0
	c.collisions = 0
	c.diverted = 0
	c.reconciled = 0
	c.overflowSum = 0
	c.overflowMax = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
