package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pkg/profile"

	"github.com/pthm-cable/partsim/audio"
	"github.com/pthm-cable/partsim/config"
	"github.com/pthm-cable/partsim/game"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath     string
	headless       bool
	tui            bool
	sound          bool
	logStats       bool
	statsWindow    float64
	outputDir      string
	seed           int64
	maxTicks       int64
	stepsPerUpdate int
	profileMode    string
}

func main() {
	var o cliOptions

	// CLI flags
	flag.StringVar(&o.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.BoolVar(&o.headless, "headless", false, "Run without graphics")
	flag.BoolVar(&o.tui, "tui", false, "Render in the terminal instead of a window")
	flag.BoolVar(&o.sound, "sound", false, "Play a tone when a telemetry bookmark fires")
	flag.BoolVar(&o.logStats, "log-stats", false, "Output stats via slog")
	flag.Float64Var(&o.statsWindow, "stats-window", 0, "Stats window size in seconds (0 = use config)")
	flag.StringVar(&o.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	flag.Int64Var(&o.seed, "seed", 0, "RNG seed (0 = config seed, then time-based)")
	flag.Int64Var(&o.maxTicks, "max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	flag.IntVar(&o.stepsPerUpdate, "steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	flag.StringVar(&o.profileMode, "profile", "", "Write a cpu or mem profile to the output directory (or cwd)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging). The terminal
	// viewer owns stdout, so it logs to stderr.
	logOut := os.Stdout
	if o.tui {
		logOut = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, o)
	cancel()
	if err != nil {
		slog.Error("simulation stopped", "error", err)
		os.Exit(1)
	}
}

// run loads the config and drives the selected mode. Deferred cleanup
// (profile flush, audio shutdown) has finished by the time it returns.
func run(ctx context.Context, o cliOptions) error {
	if err := config.Init(o.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	rngSeed := o.seed
	if rngSeed == 0 {
		rngSeed = cfg.Population.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	if stop := startProfile(o.profileMode, o.outputDir); stop != nil {
		defer stop()
	}

	var sonifier *audio.Sonifier
	if o.sound {
		sonifier = audio.NewSonifier(cfg.Audio.SampleRate, cfg.Audio.Volume)
		if err := sonifier.Initialize(); err != nil {
			// Non-fatal, the simulation runs without sound
			slog.Warn("audio initialization failed", "error", err)
		}
		defer sonifier.Close()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       o.logStats,
		StatsWindowSec: o.statsWindow,
		OutputDir:      o.outputDir,
		Headless:       o.headless || o.tui,
		StepsPerUpdate: o.stepsPerUpdate,
		Sonifier:       sonifier,
	}

	switch {
	case o.tui:
		return runTerminal(ctx, cfg, opts, o.maxTicks)
	case o.headless:
		return runHeadless(ctx, cfg, opts, o.maxTicks)
	default:
		return runWindow(cfg, opts, o.maxTicks)
	}
}

// runHeadless steps the world with no viewer until maxTicks or interrupt.
func runHeadless(ctx context.Context, cfg *config.Config, opts game.Options, maxTicks int64) error {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for ctx.Err() == nil {
		if err := g.UpdateHeadless(); err != nil {
			return err
		}
		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick(), "world", g.World())
			return nil
		}
	}
	slog.Info("interrupted", "tick", g.Tick())
	return nil
}

// runTerminal renders into the terminal with tcell.
func runTerminal(ctx context.Context, cfg *config.Config, opts game.Options, maxTicks int64) error {
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.HideCursor()

	err = g.RunTerminal(ctx, screen, cfg.Render.TUIRate, maxTicks)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runWindow opens a raylib window and runs the interactive viewer.
func runWindow(cfg *config.Config, opts game.Options, maxTicks int64) error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Sector Particle Simulator")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		if err := g.Update(); err != nil {
			return err
		}
		g.Draw()

		if maxTicks > 0 && g.Tick() >= maxTicks {
			break
		}
	}
	return nil
}

// startProfile begins a pkg/profile session. Returns nil when mode is empty.
func startProfile(mode, dir string) func() {
	if dir == "" {
		dir = "."
	}
	var kind func(*profile.Profile)
	switch mode {
	case "":
		return nil
	case "cpu":
		kind = profile.CPUProfile
	case "mem":
		kind = profile.MemProfileAllocs
	default:
		slog.Warn("unknown profile mode, profiling disabled", "mode", mode)
		return nil
	}
	p := profile.Start(kind, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)
	return p.Stop
}
