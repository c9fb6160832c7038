package systems

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// capacitySigmas is the number of standard deviations added above the mean
// cell occupancy when sizing a cell.
const capacitySigmas = 3.5

// SectorCapacity returns the fixed per-cell capacity for objects particles
// spread uniformly over sectors cells: the binomial mean plus 3.5 standard
// deviations, rounded up.
func SectorCapacity(objects, sectors int) int {
	if objects <= 0 || sectors <= 0 {
		return 0
	}
	mean := float64(objects) / float64(sectors)
	variance := mean * (1.0 - 1.0/float64(sectors))
	return objects/sectors + int(math.Ceil(capacitySigmas*math.Sqrt(variance)))
}

// CapacityExcess returns the fraction of slots allocated beyond objects.
// 0.5 means the grid has room for 1.5x the particle count.
func CapacityExcess(objects, sectors int) float64 {
	if objects <= 0 {
		return 0
	}
	capacity := SectorCapacity(objects, sectors)
	return float64(capacity*sectors-objects) / float64(objects)
}

// OverflowProbability returns the probability that a single cell receives
// more than capacity particles when objects are placed uniformly at random.
func OverflowProbability(objects, sectors, capacity int) float64 {
	if objects <= 0 || sectors <= 0 {
		return 0
	}
	if capacity >= objects {
		return 0
	}
	b := distuv.Binomial{N: float64(objects), P: 1.0 / float64(sectors)}
	p := 1 - b.CDF(float64(capacity))
	if p < 0 {
		return 0
	}
	return p
}
