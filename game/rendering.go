package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/partsim/ui"
)

// Draw renders the latest serialized frame and the overlays.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

	g.points.ShowGrid = g.controls.ShowGrid
	g.points.Draw(g.Buffer(), g.camera)

	stats := g.world.LastStats()
	g.hud.Draw(ui.HUDData{
		Title:          "Sector Particle Simulator",
		Tick:           g.world.Tick(),
		Objects:        g.world.Objects(),
		Sectors:        g.world.Grid().Len(),
		Capacity:       g.world.Store().Capacity(),
		Overflow:       stats.Overflow,
		OverflowProb:   g.lastStats.OverflowProb,
		Pairs:          stats.PairsTested,
		Collisions:     stats.Collisions,
		StepsPerUpdate: g.controls.StepsPerUpdate,
		FPS:            rl.GetFPS(),
		Paused:         g.controls.Paused,
		Seed:           g.seed,
	})

	g.occupancy = g.world.Store().Occupancy(g.occupancy[:0])
	g.occupancyPanel.Draw(g.occupancy, g.world.Store().Capacity(), g.world.Store().OverflowLen(), g.points.SectorColors())

	if g.showPerf {
		g.perfPanel.Draw(g.perfCollector.Stats())
	}
	g.controlPanel.Draw(&g.controls)

	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	rl.EndDrawing()
}
