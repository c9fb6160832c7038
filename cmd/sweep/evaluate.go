package main

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pthm-cable/partsim/config"
	"github.com/pthm-cable/partsim/game"
	"github.com/pthm-cable/partsim/telemetry"
)

// Result summarizes one headless run, or the mean over seeds when Seed is 0.
type Result struct {
	SectorsX          int     `csv:"sectors_x"`
	SectorsY          int     `csv:"sectors_y"`
	Seed              int64   `csv:"seed"`
	Capacity          int     `csv:"capacity"`
	Excess            float64 `csv:"excess"`
	OverflowProb      float64 `csv:"overflow_prob"`
	OverflowMean      float64 `csv:"overflow_mean"`
	OverflowMax       int     `csv:"overflow_max"`
	PairsPerTick      float64 `csv:"pairs_per_tick"`
	CollisionsPerTick float64 `csv:"collisions_per_tick"`
	TickMicros        float64 `csv:"tick_us"`
	Cost              float64 `csv:"cost"`
}

// Slots returns the number of cell slots the grid allocates.
func (r Result) Slots() int {
	return r.Capacity * r.SectorsX * r.SectorsY
}

// Evaluator runs headless simulations of candidate grids. Results are
// deterministic per (grid, seed), so each grid is only simulated once.
type Evaluator struct {
	base       *config.Config
	ticks      int64
	seeds      []int64
	window     float64
	slotWeight float64

	mu    sync.Mutex
	cache map[[2]int][]Result
	best  Result
	runs  int
}

// NewEvaluator creates an evaluator. Each run lasts ticks ticks with a
// stats window of window simulated seconds. slotWeight prices one
// allocated cell slot against one broad-phase pair test.
func NewEvaluator(base *config.Config, ticks int64, seeds []int64, window, slotWeight float64) *Evaluator {
	return &Evaluator{
		base:       base,
		ticks:      ticks,
		seeds:      seeds,
		window:     window,
		slotWeight: slotWeight,
		cache:      make(map[[2]int][]Result),
		best:       Result{Cost: math.Inf(1)},
	}
}

// Run simulates one grid with one seed.
func (e *Evaluator) Run(sectorsX, sectorsY int, seed int64) (Result, error) {
	cfg := *e.base
	cfg.Grid.SectorsX = sectorsX
	cfg.Grid.SectorsY = sectorsY
	if err := cfg.Refresh(); err != nil {
		return Result{}, err
	}

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(&cfg, game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: e.window,
		StepsPerUpdate: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return Result{}, err
	}
	defer g.Unload()

	if err := g.Run(e.ticks); err != nil {
		return Result{}, fmt.Errorf("grid %dx%d seed %d: %w", sectorsX, sectorsY, seed, err)
	}
	if len(windows) == 0 {
		return Result{}, fmt.Errorf("%d ticks is shorter than one %gs stats window", e.ticks, e.window)
	}

	r := Result{
		SectorsX:     sectorsX,
		SectorsY:     sectorsY,
		Seed:         seed,
		Capacity:     cfg.Derived.SectorSize,
		Excess:       cfg.Derived.Excess,
		OverflowProb: windows[0].OverflowProb,
		TickMicros:   float64(g.Perf().AvgTickDuration) / float64(time.Microsecond),
	}
	for _, w := range windows {
		r.OverflowMean += w.OverflowMean
		r.OverflowMax = max(r.OverflowMax, w.OverflowMax)
		r.PairsPerTick += w.PairsPerTick
		r.CollisionsPerTick += w.CollisionsPerTick
	}
	n := float64(len(windows))
	r.OverflowMean /= n
	r.PairsPerTick /= n
	r.CollisionsPerTick /= n
	r.Cost = e.cost(r)
	return r, nil
}

// Evaluate simulates a grid once per seed, in parallel, and returns the
// per-seed results in seed order.
func (e *Evaluator) Evaluate(sectorsX, sectorsY int) ([]Result, error) {
	key := [2]int{sectorsX, sectorsY}
	e.mu.Lock()
	cached, ok := e.cache[key]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	results := make([]Result, len(e.seeds))
	errs := make([]error, len(e.seeds))
	var wg sync.WaitGroup
	for i, seed := range e.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx], errs[idx] = e.Run(sectorsX, sectorsY, s)
		}(i, seed)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	mean := Summarize(results)
	e.mu.Lock()
	e.cache[key] = results
	e.runs += len(results)
	if mean.Cost < e.best.Cost {
		e.best = mean
	}
	e.mu.Unlock()
	return results, nil
}

// Best returns the cheapest seed-averaged grid evaluated so far.
func (e *Evaluator) Best() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.best
}

// Runs returns the number of simulations executed.
func (e *Evaluator) Runs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs
}

// cost is the broad-phase work per tick plus the weighted slot footprint.
// Overflow particles are already priced through PairsPerTick, since every
// cell tests against the pool.
func (e *Evaluator) cost(r Result) float64 {
	return r.PairsPerTick + e.slotWeight*float64(r.Slots())
}

// Summarize averages results for one grid across seeds. OverflowMax keeps
// the worst seed. No results cost +Inf.
func Summarize(results []Result) Result {
	if len(results) == 0 {
		return Result{Cost: math.Inf(1)}
	}
	s := Result{
		SectorsX:     results[0].SectorsX,
		SectorsY:     results[0].SectorsY,
		Capacity:     results[0].Capacity,
		Excess:       results[0].Excess,
		OverflowProb: results[0].OverflowProb,
	}
	for _, r := range results {
		s.OverflowMean += r.OverflowMean
		s.OverflowMax = max(s.OverflowMax, r.OverflowMax)
		s.PairsPerTick += r.PairsPerTick
		s.CollisionsPerTick += r.CollisionsPerTick
		s.TickMicros += r.TickMicros
		s.Cost += r.Cost
	}
	n := float64(len(results))
	s.OverflowMean /= n
	s.PairsPerTick /= n
	s.CollisionsPerTick /= n
	s.TickMicros /= n
	s.Cost /= n
	return s
}
