package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poisson-sim/poisson-sim/sim/kernel"
)

// testKernel is a death kernel reaching zero at 1.5 and a birth
// displacement quantile reaching 1.
func testKernel() kernel.UniformConfig {
	return kernel.UniformConfig{
		DeathY:      []float64{1, 0.75, 0.25, 0},
		DeathRadius: 1.5,
		QuantileY:   []float64{0, 0.2, 0.5, 1},
	}
}

// fixedOffsetKernel displaces every offspring by exactly offset.
func fixedOffsetKernel(offset float64) kernel.UniformConfig {
	return kernel.UniformConfig{
		DeathY:      []float64{1, 0},
		DeathRadius: 1,
		QuantileY:   []float64{offset, offset},
	}
}

func testGridConfig(length float64, cells int, periodic bool, rates RateConfig, initial PopulationConfig) GridConfig {
	return GridConfig{
		Domain:  NewDomainConfig(length, cells, periodic, NoPopulationLimit),
		Rates:   rates,
		Kernel:  testKernel(),
		Initial: initial,
		Seed:    42,
	}
}

func mustGrid(t *testing.T, cfg GridConfig) *Grid {
	t.Helper()
	g, err := NewGrid(cfg)
	require.NoError(t, err)
	return g
}

// expectedDeathRates recomputes every individual's death rate from scratch
// by brute force over all pairs, in AllCoords order.
func expectedDeathRates(g *Grid) []float64 {
	coords := g.AllCoords()
	length := g.AreaLength()
	out := make([]float64, len(coords))
	for i, xi := range coords {
		out[i] = g.rates.D
		for j, xj := range coords {
			if i == j {
				continue
			}
			d := math.Abs(xi - xj)
			if g.Periodic() && length-d < d {
				d = length - d
			}
			if d <= g.DeathCutoff() {
				out[i] += g.rates.DD * g.DeathKernelAt(d)
			}
		}
	}
	return out
}
