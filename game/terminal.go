package game

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/partsim/renderer"
)

// RunTerminal drives the game on a tcell screen at fps frames per second
// until the user quits, ctx is cancelled, or maxTicks ticks have run
// (0 = unlimited). The screen must already be initialized.
func (g *Game) RunTerminal(ctx context.Context, screen tcell.Screen, fps int, maxTicks int64) error {
	if fps <= 0 {
		fps = 30
	}
	view := renderer.NewTerminalRenderer(screen, g.world.Grid(), g.cfg.Population.Objects, g.palette)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	view.Draw(g.Buffer(), g.statusLine())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !g.handleKey(ev.Key(), ev.Rune()) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-ticker.C:
			if err := g.updateTerminal(); err != nil {
				return err
			}
			view.Draw(g.Buffer(), g.statusLine())
			if maxTicks > 0 && g.Tick() >= maxTicks {
				return nil
			}
		}
	}
}

// updateTerminal applies pending control requests and advances the world.
func (g *Game) updateTerminal() error {
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
	return g.UpdateHeadless()
}

// handleKey applies a terminal key press. Returns false to quit.
func (g *Game) handleKey(key tcell.Key, ch rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		switch ch {
		case 'q':
			return false
		case ' ':
			g.controls.Paused = !g.controls.Paused
		case 'n':
			g.controls.Step = true
		case 'r':
			g.controls.Reset = true
		case ',', '<':
			g.controls.StepsPerUpdate--
		case '.', '>':
			g.controls.StepsPerUpdate++
		}
		g.controls.ClampSteps()
	}
	return true
}

func (g *Game) statusLine() string {
	stats := g.world.LastStats()
	state := "run"
	if g.controls.Paused {
		state = "paused"
	}
	return fmt.Sprintf(" tick %d | %s x%d | overflow %d | collisions %d | q quit, space pause, n step, r reset, </> speed ",
		g.world.Tick(), state, g.controls.StepsPerUpdate, stats.Overflow, stats.Collisions)
}
