package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Fixed geometry of the run
	Objects  int     `csv:"objects"`
	Sectors  int     `csv:"sectors"`
	Capacity int     `csv:"capacity"`
	Excess   float64 `csv:"excess"`

	// Overflow pool
	OverflowEnd  int     `csv:"overflow_end"`
	OverflowMax  int     `csv:"overflow_max"`
	OverflowMean float64 `csv:"overflow_mean"`
	OverflowProb float64 `csv:"overflow_prob"` // expected per-cell probability
	Diverted     int     `csv:"diverted"`
	Reconciled   int     `csv:"reconciled"`

	// Cell occupancy (sampled at window end)
	OccupancyMean float64 `csv:"occupancy_mean"`
	OccupancyStd  float64 `csv:"occupancy_std"`
	OccupancyP90  float64 `csv:"occupancy_p90"`
	OccupancyMax  int     `csv:"occupancy_max"`

	// Broad-phase load
	PairsPerTick      float64 `csv:"pairs_per_tick"`
	CollisionsPerTick float64 `csv:"collisions_per_tick"`

	// Speed distribution in world units per second (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Mean kinetic energy per particle, unit mass
	KineticMean float64 `csv:"kinetic_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSpeedStats calculates mean and percentiles from speed values.
func ComputeSpeedStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeOccupancyStats calculates the population mean, standard deviation,
// 90th percentile and maximum of per-cell counts.
func ComputeOccupancyStats(counts []float64) (mean, std, p90 float64, maxCount int) {
	n := len(counts)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(counts, nil)

	sorted := make([]float64, n)
	copy(sorted, counts)
	sort.Float64s(sorted)

	return mean, std, Percentile(sorted, 0.90), int(sorted[n-1])
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("objects", s.Objects),
		slog.Int("sectors", s.Sectors),
		slog.Int("capacity", s.Capacity),
		slog.Float64("excess", s.Excess),
		slog.Int("overflow_end", s.OverflowEnd),
		slog.Int("overflow_max", s.OverflowMax),
		slog.Float64("overflow_mean", s.OverflowMean),
		slog.Float64("overflow_prob", s.OverflowProb),
		slog.Int("diverted", s.Diverted),
		slog.Int("reconciled", s.Reconciled),
		slog.Float64("occupancy_mean", s.OccupancyMean),
		slog.Float64("occupancy_std", s.OccupancyStd),
		slog.Float64("occupancy_p90", s.OccupancyP90),
		slog.Int("occupancy_max", s.OccupancyMax),
		slog.Float64("pairs_per_tick", s.PairsPerTick),
		slog.Float64("collisions_per_tick", s.CollisionsPerTick),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("kinetic_mean", s.KineticMean),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"overflow_end", s.OverflowEnd,
		"overflow_max", s.OverflowMax,
		"overflow_prob", s.OverflowProb,
		"diverted", s.Diverted,
		"reconciled", s.Reconciled,
		"occupancy_mean", s.OccupancyMean,
		"occupancy_std", s.OccupancyStd,
		"occupancy_max", s.OccupancyMax,
		"pairs_per_tick", s.PairsPerTick,
		"collisions_per_tick", s.CollisionsPerTick,
		"speed_p50", s.SpeedP50,
		"kinetic_mean", s.KineticMean,
	)
}
