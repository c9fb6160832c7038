package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/partsim/systems"
	"github.com/pthm-cable/partsim/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title          string
	Tick           int64
	Objects        int
	Sectors        int
	Capacity       int
	Overflow       int
	OverflowProb   float64
	Pairs          int
	Collisions     int
	StepsPerUpdate int
	FPS            int32
	Paused         bool
	Seed           int64
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Objects: %d | Sectors: %d | Capacity: %d | Seed: %d", data.Objects, data.Sectors, data.Capacity, data.Seed),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Steps: %dx | FPS: %d", data.Tick, data.StepsPerUpdate, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	overflowColor := rl.LightGray
	if data.Overflow > 0 {
		overflowColor = rl.Orange
	}
	rl.DrawText(
		fmt.Sprintf("Overflow: %d (p=%.2g) | Pairs: %d | Collisions: %d", data.Overflow, data.OverflowProb, data.Pairs, data.Collisions),
		10, 75, 16, overflowColor,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 95, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the tick phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(
		fmt.Sprintf("Tick: %s  TPS: %.0f", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		x, y, 14, rl.Yellow,
	)
	y += 16

	for _, name := range systems.Phases {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, phaseColor(pct),
		)
		y += 14
	}
}

// phaseColor highlights phases that dominate the tick.
func phaseColor(pct float64) rl.Color {
	switch {
	case pct > 40:
		return rl.Red
	case pct > 20:
		return rl.Orange
	default:
		return rl.LightGray
	}
}

// OccupancyPanel shows how full each sector is, one bar per sector.
type OccupancyPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	maxRows  int
}

// NewOccupancyPanel creates an occupancy panel showing at most maxRows sectors.
func NewOccupancyPanel(x, y, width int32, maxRows int) *OccupancyPanel {
	return &OccupancyPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		maxRows:  maxRows,
	}
}

// SetPosition updates the panel position.
func (o *OccupancyPanel) SetPosition(x, y int32) {
	o.x = x
	o.y = y
}

// Draw renders per-sector counts against capacity plus the overflow pool.
// colors supplies one swatch per sector.
func (o *OccupancyPanel) Draw(counts []float64, capacity, overflow int, colors []rl.Color) {
	r := o.renderer
	padding := r.Theme.Padding

	rows := len(counts)
	if rows > o.maxRows {
		rows = o.maxRows
	}
	height := int32(rows+2)*r.Theme.LineHeight + padding*2 + 4
	r.DrawPanel(o.x, o.y, o.width, height)

	x := o.x + padding
	y := r.DrawSectionHeader(x, o.y+padding, "Sectors")
	inner := o.width - padding*2

	for i := 0; i < rows; i++ {
		y = r.DrawFillBar(x, y, fmt.Sprintf("%d", i), swatch(colors, i), int(counts[i]), capacity, inner)
	}

	y += 4
	r.DrawLabelValue(x, y, "Overflow", fmt.Sprintf("%d", overflow))
}

func swatch(colors []rl.Color, i int) rl.Color {
	if i < len(colors) {
		return colors[i]
	}
	return rl.Gray
}
