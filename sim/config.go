package sim

import (
	"github.com/poisson-sim/poisson-sim/sim/kernel"
	"github.com/poisson-sim/poisson-sim/sim/trace"
)

// DomainConfig groups the spatial layout of a grid.
type DomainConfig struct {
	AreaLength      float64 // domain length (must be > 0)
	CellCount       int     // number of equal-width cells (must be >= 1)
	Periodic        bool    // wrap coordinates and distances at the domain ends
	PopulationLimit int     // halt runs once population exceeds this; NoPopulationLimit disables the cap
}

// NoPopulationLimit disables the population cap. Any negative limit does the
// same; a limit of 0 halts as soon as anyone is alive.
const NoPopulationLimit = -1

// RateConfig groups the per-capita rates.
type RateConfig struct {
	B  float64 // birth rate per individual
	D  float64 // intrinsic death rate per individual
	DD float64 // scale applied to the death kernel for each neighbour
}

// PopulationConfig selects the initial population. A non-nil Coords wins
// over Density; out-of-domain coordinates are dropped.
type PopulationConfig struct {
	Density float64   // individuals per unit length, scattered uniformly
	Coords  []float64 // explicit initial coordinates
}

// GridConfig is everything NewGrid needs.
type GridConfig struct {
	Domain     DomainConfig
	Rates      RateConfig
	Kernel     kernel.Source
	Initial    PopulationConfig
	Seed       int64
	TraceLevel trace.TraceLevel // "" or "none" disables per-event recording
	TraceLimit int              // keep at most this many trace records; 0 keeps all
}

// NewDomainConfig creates a DomainConfig with all fields explicitly set.
func NewDomainConfig(areaLength float64, cellCount int, periodic bool, populationLimit int) DomainConfig {
	return DomainConfig{
		AreaLength:      areaLength,
		CellCount:       cellCount,
		Periodic:        periodic,
		PopulationLimit: populationLimit,
	}
}

// NewRateConfig creates a RateConfig with all fields explicitly set.
func NewRateConfig(b, d, dd float64) RateConfig {
	return RateConfig{B: b, D: d, DD: dd}
}

// NewDensityPopulation scatters density individuals per unit length.
func NewDensityPopulation(density float64) PopulationConfig {
	return PopulationConfig{Density: density}
}

// NewExplicitPopulation starts from the given coordinates.
func NewExplicitPopulation(coords []float64) PopulationConfig {
	return PopulationConfig{Coords: coords}
}
