package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Update handles input and runs StepsPerUpdate ticks unless paused.
func (g *Game) Update() error {
	g.handleInput()

	if g.controls.Reset {
		g.controls.Reset = false
		if err := g.Reset(); err != nil {
			return err
		}
	}

	if g.controls.Paused {
		if !g.controls.Step {
			return nil
		}
		g.controls.Step = false
		return g.Step()
	}
	g.controls.Step = false
	return g.UpdateHeadless()
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.controls.Paused = !g.controls.Paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		g.controls.Step = true
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.controls.Reset = true
	}
	if rl.IsKeyPressed(rl.KeyG) {
		g.controls.ShowGrid = !g.controls.ShowGrid
	}
	if rl.IsKeyPressed(rl.KeyP) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controlPanel.Toggle()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.controls.StepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.controls.StepsPerUpdate++
	}
	g.controls.ClampSteps()

	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(int32(w)-230, 10)
	g.controlPanel.SetPosition(int32(w)-230, int32(h)-190)
	slog.Debug("window resized", "width", w, "height", h)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Screen pixels per frame; the camera converts to world units
	panSpeed := float32(8.0)

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Drag with the right mouse button
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Pan(-d.X, -d.Y)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// controlsLegend lists the keyboard bindings shown at the bottom of the window.
const controlsLegend = "SPACE pause | N step | R reset | G grid | P perf | TAB panel | </> speed | arrows/RMB pan | wheel zoom | HOME fit"
