package game

import (
	"fmt"

	"github.com/pthm-cable/partsim/systems"
)

// Step runs a single tick: process the world, serialize positions and fold
// the tick into telemetry. An error leaves the world aborted until Reset.
func (g *Game) Step() error {
	g.perfCollector.StartTick()

	if err := g.world.Process(); err != nil {
		g.perfCollector.EndTick()
		return fmt.Errorf("processing tick: %w", err)
	}

	g.perfCollector.StartPhase(systems.PhaseSerialize)
	n, err := g.world.Write(g.buf)
	g.perfCollector.EndTick()
	if err != nil {
		return fmt.Errorf("serializing tick %d: %w", g.world.Tick(), err)
	}
	g.bufLen = n

	g.collector.RecordTick(g.world.LastStats())
	g.flushTelemetry()
	return nil
}

// UpdateHeadless runs StepsPerUpdate ticks without graphics or input.
func (g *Game) UpdateHeadless() error {
	for i := 0; i < g.controls.StepsPerUpdate; i++ {
		if err := g.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Run steps the world until maxTicks ticks have completed.
func (g *Game) Run(maxTicks int64) error {
	for g.Tick() < maxTicks {
		if err := g.Step(); err != nil {
			return err
		}
	}
	return nil
}
