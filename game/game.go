// Package game wires the simulator to telemetry, output and the viewers.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/partsim/audio"
	"github.com/pthm-cable/partsim/camera"
	"github.com/pthm-cable/partsim/config"
	"github.com/pthm-cable/partsim/renderer"
	"github.com/pthm-cable/partsim/systems"
	"github.com/pthm-cable/partsim/telemetry"
	"github.com/pthm-cable/partsim/ui"
)

// Options configures game initialization.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	Headless       bool
	StepsPerUpdate int

	// Sonifier plays bookmark cues. nil disables sound.
	Sonifier *audio.Sonifier

	// StatsCallback receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds one simulation run and everything observing it.
type Game struct {
	cfg   *config.Config
	world *systems.World
	rng   *rand.Rand
	seed  int64

	// Serialized positions from the latest tick; bufLen bytes are valid
	buf    []byte
	bufLen int

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	sonifier         *audio.Sonifier
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	lastStats        telemetry.WindowStats

	// Graphics (nil in headless mode)
	headless       bool
	camera         *camera.Camera
	palette        *renderer.Palette
	points         *renderer.PointRenderer
	hud            *ui.HUD
	perfPanel      *ui.PerfPanel
	occupancyPanel *ui.OccupancyPanel
	controlPanel   *ui.ControlPanel
	controls       ui.ControlState
	showPerf       bool
	occupancy      []float64

	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game, seeds the world and opens any output files.
// Graphics resources are only allocated when Headless is false, which
// requires an open raylib window.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	world, err := systems.NewWorld(cfg.WorldSpec())
	if err != nil {
		return nil, fmt.Errorf("creating world: %w", err)
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	g := &Game{
		cfg:              cfg,
		world:            world,
		rng:              rand.New(rand.NewSource(opts.Seed)),
		seed:             opts.Seed,
		buf:              make([]byte, world.BufferSize()),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:        telemetry.NewCollector(statsWindow, cfg.Derived.TickDelta),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		sonifier:         opts.Sonifier,
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		headless:         opts.Headless,
		controls: ui.ControlState{
			StepsPerUpdate: opts.StepsPerUpdate,
			ShowGrid:       cfg.Render.ShowGrid,
		},
		screenWidth:  cfg.Derived.ScreenW32,
		screenHeight: cfg.Derived.ScreenH32,
	}
	g.controls.ClampSteps()
	world.SetPhaseTimer(g.perfCollector)

	if err := g.seedWorld(); err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	g.palette = renderer.NewPalette(cfg.Derived.SectorCount, cfg.Render.Saturation, cfg.Render.Value)
	if !opts.Headless {
		g.initGraphics()
	}

	slog.Info("world ready",
		"seed", g.seed,
		"objects", cfg.Population.Objects,
		"sectors", cfg.Derived.SectorCount,
		"capacity", cfg.Derived.SectorSize,
		"excess", cfg.Derived.Excess,
		"overflow_prob", systems.OverflowProbability(cfg.Population.Objects, cfg.Derived.SectorCount, cfg.Derived.SectorSize),
		"initial_overflow", world.Store().OverflowLen(),
	)
	return g, nil
}

func (g *Game) initGraphics() {
	g.camera = camera.New(g.screenWidth, g.screenHeight, g.cfg.Derived.WorldW32, g.cfg.Derived.WorldH32)
	g.points = renderer.NewPointRenderer(
		g.world.Grid(),
		g.cfg.Population.Objects,
		g.cfg.Derived.Radius32*float32(g.cfg.Render.PointScale),
		g.palette,
	)
	g.hud = ui.NewHUD()
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-230, 10)
	g.occupancyPanel = ui.NewOccupancyPanel(10, 130, 220, 12)
	g.controlPanel = ui.NewControlPanel(int32(g.screenWidth)-230, int32(g.screenHeight)-190, 220)
}

// seedWorld fills the world from the game rng and serializes the first frame.
func (g *Game) seedWorld() error {
	if err := systems.Seed(g.world, g.rng, g.cfg.SeedSpec()); err != nil {
		return fmt.Errorf("seeding world: %w", err)
	}
	n, err := g.world.Write(g.buf)
	if err != nil {
		return fmt.Errorf("serializing initial state: %w", err)
	}
	g.bufLen = n
	return nil
}

// Reset reseeds the world from the same seed and restarts telemetry.
func (g *Game) Reset() error {
	g.rng = rand.New(rand.NewSource(g.seed))
	if err := g.seedWorld(); err != nil {
		return err
	}
	g.collector.Reset(0)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(10)
	slog.Info("world reset", "seed", g.seed)
	return nil
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int64 { return g.world.Tick() }

// World returns the simulator.
func (g *Game) World() *systems.World { return g.world }

// Buffer returns the serialized positions from the latest tick.
func (g *Game) Buffer() []byte { return g.buf[:g.bufLen] }

// Seed returns the seed the world was filled from.
func (g *Game) Seed() int64 { return g.seed }

// Palette returns the sector color palette.
func (g *Game) Palette() *renderer.Palette { return g.palette }

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// Perf returns the rolling tick phase statistics.
func (g *Game) Perf() telemetry.PerfStats { return g.perfCollector.Stats() }

// Unload closes output files. Safe to call more than once.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
	g.outputManager = nil
}
