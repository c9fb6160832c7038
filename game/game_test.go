package game

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/partsim/components"
	"github.com/pthm-cable/partsim/config"
	"github.com/pthm-cable/partsim/systems"
	"github.com/pthm-cable/partsim/telemetry"
)

func newHeadlessGame(t *testing.T, opts Options) *Game {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	opts.Headless = true
	if opts.StepsPerUpdate == 0 {
		opts.StepsPerUpdate = 1
	}
	g, err := NewGameWithOptions(cfg, opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestStepAdvancesAndSerializes(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 42})

	for i := 0; i < 10; i++ {
		if err := g.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if g.Tick() != 10 {
		t.Errorf("Tick() = %d, want 10", g.Tick())
	}

	buf := g.Buffer()
	objects := g.World().Objects()
	if len(buf) != objects*systems.PositionBytes {
		t.Fatalf("buffer holds %d bytes, want %d", len(buf), objects*systems.PositionBytes)
	}

	positions := make([]components.Position, objects)
	n := systems.DecodePositions(buf, positions)
	grid := g.World().Grid()
	for i := 0; i < n; i++ {
		p := positions[i]
		if p.X < 0 || p.X > grid.Width || p.Y < 0 || p.Y > grid.Height {
			t.Errorf("position %d = (%f, %f) outside the world", i, p.X, p.Y)
		}
	}
}

func TestUpdateHeadlessRunsStepsPerUpdate(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 7, StepsPerUpdate: 4})

	if err := g.UpdateHeadless(); err != nil {
		t.Fatal(err)
	}
	if g.Tick() != 4 {
		t.Errorf("Tick() = %d after one update, want 4", g.Tick())
	}
}

func TestSameSeedSameFrames(t *testing.T) {
	a := newHeadlessGame(t, Options{Seed: 99})
	b := newHeadlessGame(t, Options{Seed: 99})

	if err := a.Run(120); err != nil {
		t.Fatal(err)
	}
	if err := b.Run(120); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Buffer(), b.Buffer()) {
		t.Error("games with the same seed diverged")
	}

	c := newHeadlessGame(t, Options{Seed: 100})
	if err := c.Run(120); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a.Buffer(), c.Buffer()) {
		t.Error("games with different seeds produced identical frames")
	}
}

func TestResetRestoresInitialFrame(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 5})
	initial := append([]byte(nil), g.Buffer()...)

	if err := g.Run(30); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(initial, g.Buffer()) {
		t.Fatal("frame did not change after 30 ticks")
	}

	if err := g.Reset(); err != nil {
		t.Fatal(err)
	}
	if g.Tick() != 0 {
		t.Errorf("Tick() = %d after reset, want 0", g.Tick())
	}
	if !bytes.Equal(initial, g.Buffer()) {
		t.Error("reset did not restore the seeded frame")
	}
}

func TestTelemetryWindowsAndOutput(t *testing.T) {
	dir := t.TempDir()
	var windows []telemetry.WindowStats

	g := newHeadlessGame(t, Options{
		Seed:           11,
		StatsWindowSec: 1,
		OutputDir:      dir,
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	if err := g.Run(180); err != nil {
		t.Fatal(err)
	}
	g.Unload()

	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	last := windows[len(windows)-1]
	if last != g.LastStats() {
		t.Error("LastStats does not match the final callback")
	}
	if last.Objects != 300 || last.Sectors != 25 || last.Capacity != 24 {
		t.Errorf("window geometry = %d objects, %d sectors, capacity %d", last.Objects, last.Sectors, last.Capacity)
	}
	if last.PairsPerTick <= 0 {
		t.Error("expected broad-phase pairs to be counted")
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 4 {
		t.Errorf("telemetry.csv has %d lines, want header plus 3 rows", lines)
	}
	for _, name := range []string{"perf.csv", "bookmarks.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestNewGameRejectsBadConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Population.Objects = 0

	if _, err := NewGameWithOptions(cfg, Options{Headless: true}); err == nil {
		t.Error("expected an error for an empty population")
	}
}

func TestHandleKey(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 1, StepsPerUpdate: 1})

	tests := []struct {
		name     string
		key      tcell.Key
		ch       rune
		wantMore bool
		check    func() bool
	}{
		{"escape quits", tcell.KeyEscape, 0, false, nil},
		{"ctrl-c quits", tcell.KeyCtrlC, 0, false, nil},
		{"q quits", tcell.KeyRune, 'q', false, nil},
		{"space pauses", tcell.KeyRune, ' ', true, func() bool { return g.controls.Paused }},
		{"n requests step", tcell.KeyRune, 'n', true, func() bool { return g.controls.Step }},
		{"r requests reset", tcell.KeyRune, 'r', true, func() bool { return g.controls.Reset }},
		{"period speeds up", tcell.KeyRune, '.', true, func() bool { return g.controls.StepsPerUpdate == 2 }},
		{"comma slows down", tcell.KeyRune, ',', true, func() bool { return g.controls.StepsPerUpdate == 1 }},
		{"comma clamps", tcell.KeyRune, ',', true, func() bool { return g.controls.StepsPerUpdate == 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.handleKey(tt.key, tt.ch); got != tt.wantMore {
				t.Errorf("handleKey returned %v, want %v", got, tt.wantMore)
			}
			if tt.check != nil && !tt.check() {
				t.Errorf("state after key: %+v", g.controls)
			}
		})
	}
}

func TestUpdateTerminalPausedStepsOnce(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 3, StepsPerUpdate: 5})
	g.controls.Paused = true

	if err := g.updateTerminal(); err != nil {
		t.Fatal(err)
	}
	if g.Tick() != 0 {
		t.Fatalf("paused update advanced to tick %d", g.Tick())
	}

	g.controls.Step = true
	if err := g.updateTerminal(); err != nil {
		t.Fatal(err)
	}
	if g.Tick() != 1 || g.controls.Step {
		t.Errorf("single step: tick %d, pending step %v", g.Tick(), g.controls.Step)
	}
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen.Init: %v", err)
	}
	screen.SetSize(60, 20)
	t.Cleanup(screen.Fini)
	return screen
}

func TestRunTerminalStopsAtMaxTicks(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 21})
	screen := newSimScreen(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.RunTerminal(ctx, screen, 1000, 5); err != nil {
		t.Fatalf("RunTerminal: %v", err)
	}
	if g.Tick() != 5 {
		t.Errorf("Tick() = %d, want 5", g.Tick())
	}

	// Status line sits on the bottom row
	mainc, _, _, _ := screen.GetContent(1, 19)
	if mainc != 't' {
		t.Errorf("status row starts with %q, want 't'", mainc)
	}
}

func TestRunTerminalQuitKey(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 22})
	screen := newSimScreen(t)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := g.RunTerminal(ctx, screen, 30, 0); err != nil {
		t.Fatalf("RunTerminal: %v", err)
	}
}

func TestRunTerminalContextCancel(t *testing.T) {
	g := newHeadlessGame(t, Options{Seed: 23})
	screen := newSimScreen(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.RunTerminal(ctx, screen, 30, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunTerminal() = %v, want context.Canceled", err)
	}
}
