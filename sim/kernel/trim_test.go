package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearKernel returns 10 - x sampled at 0, 1, ..., 10. Its mass up to y is
// 10y - y^2/2, total 50.
func linearKernel(t *testing.T) *Curve {
	t.Helper()
	xs := linspace(0, 10, 11)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 10 - x
	}
	c, err := NewMonotoneCurve(xs, ys)
	require.NoError(t, err)
	return c
}

func TestTrim_CutsAtFirstNodeReachingTarget(t *testing.T) {
	// GIVEN a kernel with mass 50 and precision 0.19 (target 40.5)
	c := linearKernel(t)

	// WHEN trimmed
	trimmed, err := Trim(c, 0.19)
	require.NoError(t, err)

	// THEN node x=6 (mass 42) is the first to reach the target; x=5 holds 37.5
	assert.Equal(t, 6.0, trimmed.Cutoff())
	assert.Equal(t, 7, trimmed.Nodes())
	assert.InDelta(t, 42.0, trimmed.Mass(), 1e-9)

	// AND the kept part of the curve is unchanged
	for _, x := range []float64{0, 1.5, 4, 6} {
		assert.InDelta(t, c.At(x), trimmed.At(x), 1e-9)
	}
}

func TestTrim_ZeroPrecisionCutsMasslessTail(t *testing.T) {
	// GIVEN a kernel whose samples are zero beyond x=3
	xs := []float64{0, 1, 2, 3, 4, 5}
	ys := []float64{0.5, 0.3, 0.1, 0, 0, 0}
	c, err := NewMonotoneCurve(xs, ys)
	require.NoError(t, err)
	require.Equal(t, 5.0, c.Cutoff())

	for _, p := range []float64{0, -0.5} {
		// WHEN trimmed with no tolerance (negative counts as zero)
		trimmed, err := Trim(c, p)
		require.NoError(t, err)

		// THEN the cutoff moves to where the mass ends
		assert.Equal(t, 3.0, trimmed.Cutoff(), "precision %v", p)
		assert.Equal(t, 4, trimmed.Nodes(), "precision %v", p)
		for i, x := range xs[:4] {
			assert.InDelta(t, ys[i], trimmed.At(x), 1e-12, "precision %v at %v", p, x)
		}
	}
}

func TestTrim_ZeroPrecisionKeepsCurveWithoutMasslessTail(t *testing.T) {
	c := linearKernel(t)
	trimmed, err := Trim(c, 0)
	require.NoError(t, err)
	assert.Same(t, c, trimmed)
}

func TestTrim_TinyPrecisionKeepsWholeCurve(t *testing.T) {
	c := linearKernel(t)
	trimmed, err := Trim(c, 1e-12)
	require.NoError(t, err)
	assert.Equal(t, c.Cutoff(), trimmed.Cutoff())
}

func TestTrim_PrecisionOfOneIsRejected(t *testing.T) {
	_, err := Trim(linearKernel(t), 1)
	assert.Error(t, err)
}

func TestTrim_ZeroKernelKeepsTwoNodes(t *testing.T) {
	// GIVEN a kernel with no mass at all
	c, err := NewMonotoneCurve([]float64{0, 1, 2, 3}, []float64{0, 0, 0, 0})
	require.NoError(t, err)

	// WHEN trimmed
	trimmed, err := Trim(c, 0.01)
	require.NoError(t, err)

	// THEN the smallest fittable curve survives
	assert.Equal(t, 2, trimmed.Nodes())
	assert.Equal(t, 1.0, trimmed.Cutoff())
}
