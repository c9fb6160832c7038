package main

import (
	"math"

	"github.com/pthm-cable/partsim/config"
)

// ParamSpec bounds one grid dimension explored by the search.
type ParamSpec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
}

// ParamVector is the grid search space: sectors along x, then along y.
// CMA-ES works on the normalized [0,1] form; the simulator sees whole
// sector counts.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector builds the search space for grids between minSectors and
// maxSectors cells per side, starting from the base config's grid.
func NewParamVector(minSectors, maxSectors int, base *config.Config) *ParamVector {
	lo, hi := float64(minSectors), float64(maxSectors)
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "sectors_x", Min: lo, Max: hi, Default: clampFloat(float64(base.Grid.SectorsX), lo, hi)},
			{Name: "sectors_y", Min: lo, Max: hi, Default: clampFloat(float64(base.Grid.SectorsY), lo, hi)},
		},
	}
}

// Dim returns the number of searched parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting point in raw units.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize maps raw values onto [0,1]. A parameter with Min == Max maps to 0.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if span := spec.Max - spec.Min; span > 0 {
			out[i] = (raw[i] - spec.Min) / span
		}
	}
	return out
}

// Denormalize maps [0,1] values back to raw units.
func (pv *ParamVector) Denormalize(norm []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + norm[i]*(spec.Max-spec.Min)
	}
	return out
}

// Grid rounds raw values to the nearest in-bounds sector counts.
func (pv *ParamVector) Grid(raw []float64) (sectorsX, sectorsY int) {
	x := clampFloat(raw[0], pv.Specs[0].Min, pv.Specs[0].Max)
	y := clampFloat(raw[1], pv.Specs[1].Min, pv.Specs[1].Max)
	return int(math.Round(x)), int(math.Round(y))
}

// ApplyToConfig writes the rounded grid into cfg and refreshes its
// derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, raw []float64) error {
	cfg.Grid.SectorsX, cfg.Grid.SectorsY = pv.Grid(raw)
	return cfg.Refresh()
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
