package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxStepsPerUpdate bounds the steps-per-update slider.
const MaxStepsPerUpdate = 10

// ControlState is the user-adjustable run state the control panel edits.
// Step and Reset are one-shot requests cleared by the caller once handled.
type ControlState struct {
	Paused         bool
	Step           bool
	Reset          bool
	ShowGrid       bool
	StepsPerUpdate int
}

// ClampSteps keeps StepsPerUpdate within [1, MaxStepsPerUpdate].
func (s *ControlState) ClampSteps() {
	if s.StepsPerUpdate < 1 {
		s.StepsPerUpdate = 1
	}
	if s.StepsPerUpdate > MaxStepsPerUpdate {
		s.StepsPerUpdate = MaxStepsPerUpdate
	}
}

// ControlPanel renders raygui buttons and a speed slider.
type ControlPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlPanel creates a new control panel.
func NewControlPanel(x, y, width int32) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the panel and applies any interaction to state.
func (c *ControlPanel) Draw(state *ControlState) {
	if !c.visible {
		return
	}

	r := c.renderer
	padding := float32(r.Theme.Padding)
	panelH := int32(150)
	r.DrawPanel(c.x, c.y, c.width, panelH)

	x := float32(c.x) + padding
	y := float32(c.y) + padding
	inner := float32(c.width) - 2*padding
	half := (inner - padding) / 2

	rl.DrawText("Controls", int32(x), int32(y), 16, rl.White)
	y += 24

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		state.Paused = !state.Paused
	}
	if gui.Button(rl.Rectangle{X: x + half + padding, Y: y, Width: half, Height: 24}, "Step") {
		state.Step = true
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Reset") {
		state.Reset = true
	}
	if gui.Button(rl.Rectangle{X: x + half + padding, Y: y, Width: half, Height: 24}, toggleText(state.ShowGrid, "Hide Grid", "Show Grid")) {
		state.ShowGrid = !state.ShowGrid
	}
	y += 34

	rl.DrawText(fmt.Sprintf("Steps per update: %d", state.StepsPerUpdate), int32(x), int32(y), 12, rl.Gray)
	y += 16
	steps := gui.SliderBar(
		rl.Rectangle{X: x + 12, Y: y, Width: inner - 24, Height: 16},
		"1", fmt.Sprintf("%d", MaxStepsPerUpdate),
		float32(state.StepsPerUpdate), 1, MaxStepsPerUpdate,
	)
	state.StepsPerUpdate = int(steps + 0.5)
	state.ClampSteps()
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
