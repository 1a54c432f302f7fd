package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poisson-sim/poisson-sim/sim"
	"github.com/poisson-sim/poisson-sim/sim/kernel"
)

// Params is the parameter bundle a host hands to the simulator.
// Every key must be listed to satisfy KnownFields(true) strict parsing:
// a misspelled key is an error, not a silently ignored default.
type Params struct {
	AreaLength float64 `yaml:"area_length_x"`
	CellCount  int     `yaml:"cell_count_x"`
	B          float64 `yaml:"b"`
	D          float64 `yaml:"d"`
	DD         float64 `yaml:"dd"`
	Seed       int64   `yaml:"seed"`

	// Sample-based kernels
	DeathKernelX    []float64 `yaml:"death_kernel_x"`
	DeathKernelY    []float64 `yaml:"death_kernel_y"`
	BirthKernelX    []float64 `yaml:"birth_kernel_x"`
	BirthKernelY    []float64 `yaml:"birth_kernel_y"`
	SplinePrecision float64   `yaml:"spline_precision"`

	// Uniform-grid kernels; birth_kernel_y then holds the quantile table
	DeathKernelR    *float64 `yaml:"death_kernel_r"`
	Periodic        bool     `yaml:"periodic"`
	PopulationLimit *int     `yaml:"population_limit"` // omitted means no cap; 0 caps at zero

	InitDensity       float64   `yaml:"init_density"`
	InitialPopulation []float64 `yaml:"initial_population_x"`
}

// LoadParams reads and strictly decodes a YAML parameter file.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}
	return ParseParams(data)
}

// ParseParams strictly decodes YAML parameters.
func ParseParams(data []byte) (*Params, error) {
	var p Params
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse parameters: %w", err)
	}
	return &p, nil
}

// Uniform reports whether the kernels are given on a uniform grid.
func (p *Params) Uniform() bool {
	return p.DeathKernelR != nil
}

// KernelSource selects the kernel variant from the keys present.
func (p *Params) KernelSource() kernel.Source {
	if p.Uniform() {
		return kernel.UniformConfig{
			DeathY:      p.DeathKernelY,
			DeathRadius: *p.DeathKernelR,
			QuantileY:   p.BirthKernelY,
		}
	}
	return kernel.SampledConfig{
		DeathX:    p.DeathKernelX,
		DeathY:    p.DeathKernelY,
		BirthX:    p.BirthKernelX,
		BirthY:    p.BirthKernelY,
		Precision: p.SplinePrecision,
	}
}

// Limit is the population cap, or sim.NoPopulationLimit when the key is absent.
func (p *Params) Limit() int {
	if p.PopulationLimit == nil {
		return sim.NoPopulationLimit
	}
	return *p.PopulationLimit
}

// GridConfig maps the parameters onto a grid configuration.
func (p *Params) GridConfig() sim.GridConfig {
	initial := sim.NewDensityPopulation(p.InitDensity)
	if p.InitialPopulation != nil {
		initial = sim.NewExplicitPopulation(p.InitialPopulation)
	}
	return sim.GridConfig{
		Domain:  sim.NewDomainConfig(p.AreaLength, p.CellCount, p.Periodic, p.Limit()),
		Rates:   sim.NewRateConfig(p.B, p.D, p.DD),
		Kernel:  p.KernelSource(),
		Initial: initial,
		Seed:    p.Seed,
	}
}
