// Command sweep runs the simulator headlessly across grid sizes and seeds
// and records how the sector partition trades broad-phase work against
// overflow and slot footprint. With -search it lets CMA-ES pick the grid.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/partsim/config"
)

// formatDuration formats a duration as 1h02m03s, or 2m03s below an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalSeeds returns n fixed seeds so separate sweeps are comparable.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	minSectors := flag.Int("min-sectors", 1, "Smallest grid side")
	maxSectors := flag.Int("max-sectors", 12, "Largest grid side")
	ticks := flag.Int64("ticks", 1800, "Ticks per run")
	seeds := flag.Int("seeds", 3, "Seeds per grid")
	window := flag.Float64("window", 5, "Stats window in simulated seconds")
	slotWeight := flag.Float64("slot-weight", 1, "Cost of one allocated cell slot, in pair tests")
	search := flag.Bool("search", false, "Search rectangular grids with CMA-ES instead of sweeping square ones")
	maxEvals := flag.Int("max-evals", 60, "Maximum CMA-ES evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" {
		fatal("-output is required")
	}
	if *minSectors < 1 || *maxSectors < *minSectors {
		fatal("invalid sector range", "min", *minSectors, "max", *maxSectors)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatal("failed to create output directory", "error", err)
	}

	base, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to load config", "error", err)
	}

	ev := NewEvaluator(base, *ticks, evalSeeds(*seeds), *window, *slotWeight)
	start := time.Now()

	if *search {
		params := NewParamVector(*minSectors, *maxSectors, base)
		err = runSearch(ev, params, *maxEvals, *population, *outputDir)
	} else {
		err = runSweep(ev, *minSectors, *maxSectors, *outputDir)
	}
	if err != nil {
		fatal("sweep failed", "error", err)
	}

	best := ev.Best()
	fmt.Printf("\nDone: %d runs in %s\n", ev.Runs(), formatDuration(time.Since(start)))
	fmt.Printf("Best grid: %dx%d capacity=%d overflow_mean=%.2f pairs/tick=%.0f cost=%.0f\n",
		best.SectorsX, best.SectorsY, best.Capacity, best.OverflowMean, best.PairsPerTick, best.Cost)

	bestCfg := *base
	bestCfg.Grid.SectorsX = best.SectorsX
	bestCfg.Grid.SectorsY = best.SectorsY
	configOut := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOut); err != nil {
		slog.Error("failed to write best config", "error", err)
	} else {
		fmt.Printf("Best config saved to: %s\n", configOut)
	}
}

// runSweep evaluates every square grid from minSectors to maxSectors per
// side and writes one row per run to sweep.csv.
func runSweep(ev *Evaluator, minSectors, maxSectors int, dir string) error {
	var rows []Result
	total := maxSectors - minSectors + 1
	start := time.Now()

	for n := minSectors; n <= maxSectors; n++ {
		results, err := ev.Evaluate(n, n)
		if err != nil {
			return err
		}
		rows = append(rows, results...)

		done := n - minSectors + 1
		elapsed := time.Since(start)
		remaining := time.Duration(total-done) * (elapsed / time.Duration(done))
		s := Summarize(results)
		fmt.Printf("Grid %dx%d (%d/%d): capacity=%d overflow_mean=%.2f pairs/tick=%.0f tick=%.1fus | elapsed: %s, ETA: %s\n",
			n, n, done, total, s.Capacity, s.OverflowMean, s.PairsPerTick, s.TickMicros,
			formatDuration(elapsed), formatDuration(remaining))
	}

	return writeRows(filepath.Join(dir, "sweep.csv"), &rows)
}

// searchRow is one CMA-ES evaluation in search.csv.
type searchRow struct {
	Eval int `csv:"eval"`
	Result
}

// runSearch minimizes the seed-averaged cost over rectangular grids.
func runSearch(ev *Evaluator, params *ParamVector, maxEvals, population int, dir string) error {
	dim := params.Dim()
	popSize := population
	if popSize == 0 {
		popSize = 4 + 3*dim/2
	}

	var rows []searchRow
	start := time.Now()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			sx, sy := params.Grid(params.Denormalize(x))
			results, err := ev.Evaluate(sx, sy)
			if err != nil {
				slog.Warn("evaluation failed", "grid", fmt.Sprintf("%dx%d", sx, sy), "error", err)
			}
			s := Summarize(results)
			s.SectorsX, s.SectorsY = sx, sy
			cost := s.Cost
			rows = append(rows, searchRow{Eval: len(rows) + 1, Result: s})

			elapsed := time.Since(start)
			remaining := time.Duration(maxEvals-len(rows)) * (elapsed / time.Duration(len(rows)))
			fmt.Printf("Eval %d/%d: grid=%dx%d cost=%.0f (best=%.0f) | elapsed: %s, ETA: %s\n",
				len(rows), maxEvals, sx, sy, cost, ev.Best().Cost,
				formatDuration(elapsed), formatDuration(remaining))
			return cost
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES grid search, population=%d, max_evals=%d\n", popSize, maxEvals)
	if _, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method); err != nil {
		// Evaluation budget exhaustion ends the search too
		slog.Warn("optimization ended", "error", err)
	}

	return writeRows(filepath.Join(dir, "search.csv"), &rows)
}

func writeRows(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
