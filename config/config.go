// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/partsim/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Grid       GridConfig       `yaml:"grid"`
	Population PopulationConfig `yaml:"population"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Render     RenderConfig     `yaml:"render"`
	Audio      AudioConfig      `yaml:"audio"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the simulated region. The camera maps it onto the screen.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Radius float64 `yaml:"radius"` // particle radius, shared by every particle
}

// GridConfig holds the sector partition.
type GridConfig struct {
	SectorsX       int  `yaml:"sectors_x"`
	SectorsY       int  `yaml:"sectors_y"`
	CheckDiagonals bool `yaml:"check_diagonals"` // also pair cells across corners
}

// PopulationConfig holds the particle count and initial velocity range.
type PopulationConfig struct {
	Objects  int     `yaml:"objects"`
	MinSpeed float64 `yaml:"min_speed"` // world units per second
	MaxSpeed float64 `yaml:"max_speed"`
	Seed     int64   `yaml:"seed"` // 0 = time-based
}

// PhysicsConfig holds timing parameters.
type PhysicsConfig struct {
	TickRate float64 `yaml:"tick_rate"` // ticks per simulated second
}

// TelemetryConfig holds statistics windows.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds of simulated time per stats window
	PerfWindow  int     `yaml:"perf_window"`  // ticks in the rolling perf window
}

// RenderConfig holds viewer settings.
type RenderConfig struct {
	PointScale float64 `yaml:"point_scale"` // drawn radius as a multiple of the particle radius
	Saturation float64 `yaml:"saturation"`  // sector palette saturation
	Value      float64 `yaml:"value"`       // sector palette brightness
	ShowGrid   bool    `yaml:"show_grid"`
	TUIRate    int     `yaml:"tui_rate"` // terminal viewer frames per second
}

// AudioConfig holds the bookmark cue settings used with -sound.
type AudioConfig struct {
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"` // linear gain in [0, 1]
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SectorCount int     // SectorsX * SectorsY
	SectorSize  int     // fixed per-cell capacity
	Excess      float64 // spare capacity as a fraction of Objects
	TickDelta   float32 // seconds per tick
	CellW       float32
	CellH       float32
	BufferBytes int // serialized position buffer size
	WorldW32    float32
	WorldH32    float32
	Radius32    float32
	ScreenW32   float32
	ScreenH32   float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Refresh validates c and recomputes Derived. Call it after editing a
// loaded config in place.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.computeDerived()
	return nil
}

// Validate reports every setting the simulator cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world extents must be positive, got %gx%g", c.World.Width, c.World.Height))
	}
	if c.World.Radius <= 0 {
		errs = append(errs, fmt.Errorf("world.radius must be positive, got %g", c.World.Radius))
	} else if 2*c.World.Radius >= c.World.Width || 2*c.World.Radius >= c.World.Height {
		errs = append(errs, fmt.Errorf("world.radius %g does not fit a %gx%g world", c.World.Radius, c.World.Width, c.World.Height))
	}
	if c.Grid.SectorsX <= 0 || c.Grid.SectorsY <= 0 {
		errs = append(errs, fmt.Errorf("grid must be at least 1x1, got %dx%d", c.Grid.SectorsX, c.Grid.SectorsY))
	}
	if c.Population.Objects <= 0 {
		errs = append(errs, fmt.Errorf("population.objects must be positive, got %d", c.Population.Objects))
	}
	if c.Population.MinSpeed < 0 || c.Population.MaxSpeed < c.Population.MinSpeed {
		errs = append(errs, fmt.Errorf("speed range [%g, %g] is invalid", c.Population.MinSpeed, c.Population.MaxSpeed))
	}
	if c.Physics.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("physics.tick_rate must be positive, got %g", c.Physics.TickRate))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume must be in [0, 1], got %g", c.Audio.Volume))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	d := &c.Derived
	d.SectorCount = c.Grid.SectorsX * c.Grid.SectorsY
	d.SectorSize = systems.SectorCapacity(c.Population.Objects, d.SectorCount)
	d.Excess = systems.CapacityExcess(c.Population.Objects, d.SectorCount)
	d.TickDelta = float32(1 / c.Physics.TickRate)
	d.WorldW32 = float32(c.World.Width)
	d.WorldH32 = float32(c.World.Height)
	d.Radius32 = float32(c.World.Radius)
	d.CellW = d.WorldW32 / float32(c.Grid.SectorsX)
	d.CellH = d.WorldH32 / float32(c.Grid.SectorsY)
	d.BufferBytes = c.Population.Objects * systems.PositionBytes
	d.ScreenW32 = float32(c.Screen.Width)
	d.ScreenH32 = float32(c.Screen.Height)
}

// WorldSpec returns the simulator parameters described by the config.
func (c *Config) WorldSpec() systems.WorldSpec {
	return systems.WorldSpec{
		Width:          c.Derived.WorldW32,
		Height:         c.Derived.WorldH32,
		Radius:         c.Derived.Radius32,
		SectorsX:       c.Grid.SectorsX,
		SectorsY:       c.Grid.SectorsY,
		Objects:        c.Population.Objects,
		CheckDiagonals: c.Grid.CheckDiagonals,
	}
}

// SeedSpec returns the initial velocity parameters described by the config.
func (c *Config) SeedSpec() systems.SeedSpec {
	return systems.SeedSpec{
		MinSpeed:  float32(c.Population.MinSpeed),
		MaxSpeed:  float32(c.Population.MaxSpeed),
		TickDelta: c.Derived.TickDelta,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
