package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linspace(lo, hi float64, n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return xs
}

func TestNewCurve_RejectsMalformedSamples(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"length mismatch", []float64{0, 1, 2}, []float64{1, 2}},
		{"single sample", []float64{0}, []float64{1}},
		{"not increasing", []float64{0, 1, 1}, []float64{3, 2, 1}},
		{"decreasing", []float64{0, 2, 1}, []float64{3, 2, 1}},
		{"nan value", []float64{0, 1}, []float64{math.NaN(), 1}},
		{"inf abscissa", []float64{0, math.Inf(1)}, []float64{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMonotoneCurve(tt.xs, tt.ys)
			assert.Error(t, err)
		})
	}
}

func TestNewUniformCurve_RejectsBadStep(t *testing.T) {
	for _, step := range []float64{0, -1, math.Inf(1), math.NaN()} {
		_, err := NewUniformCurve([]float64{1, 0}, step, ClampedEnds)
		assert.Error(t, err, "step %v", step)
	}
}

func TestCurve_PassesThroughSamples(t *testing.T) {
	xs := []float64{0, 0.5, 1, 2, 3}
	ys := []float64{1, 0.9, 0.6, 0.2, 0}
	for _, method := range []Method{Monotone, ClampedEnds, FreeEnds} {
		t.Run(method.String(), func(t *testing.T) {
			c, err := NewCurve(xs, ys, method)
			require.NoError(t, err)
			for i := range xs {
				assert.InDelta(t, ys[i], c.At(xs[i]), 1e-12)
			}
			assert.Equal(t, 0.0, c.Start())
			assert.Equal(t, 3.0, c.Cutoff())
			assert.Equal(t, len(xs), c.Nodes())
			assert.Equal(t, method, c.Method())
		})
	}
}

func TestCurve_DoesNotAliasInput(t *testing.T) {
	xs := []float64{0, 1, 2}
	ys := []float64{2, 1, 0}
	c, err := NewMonotoneCurve(xs, ys)
	require.NoError(t, err)

	xs[2] = 100
	ys[0] = -5
	assert.Equal(t, 2.0, c.Cutoff())
	assert.Equal(t, []float64{2, 1, 0}, c.Ys())
}

func TestCurve_Integral_LinearKernelIsExact(t *testing.T) {
	// GIVEN the linear kernel 4 - x on [0, 4], reproduced exactly by the monotone fit
	xs := linspace(0, 4, 5)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 4 - x
	}
	c, err := NewMonotoneCurve(xs, ys)
	require.NoError(t, err)

	// THEN the antiderivative is 4y - y^2/2 everywhere, including between nodes
	for _, y := range []float64{0, 0.3, 1, 2, 2.75, 4} {
		assert.InDelta(t, 4*y-y*y/2, c.Integral(y), 1e-12, "y=%v", y)
	}
	assert.InDelta(t, 8.0, c.Mass(), 1e-12)

	// AND arguments outside the range are clamped
	assert.Equal(t, 0.0, c.Integral(-1))
	assert.InDelta(t, 8.0, c.Integral(10), 1e-12)
}

func TestCurve_At_HoldsEndValuesOutsideRange(t *testing.T) {
	c, err := NewMonotoneCurve([]float64{0, 1, 2}, []float64{3, 2, 1})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, c.At(-1), 1e-12)
	assert.InDelta(t, 1.0, c.At(5), 1e-12)
}

func TestClampedEnds_FlatAtBothEnds(t *testing.T) {
	// GIVEN a death kernel on a uniform grid with clamped ends
	c, err := NewUniformCurve([]float64{1, 0.8, 0.4, 0.1, 0}, 0.5, ClampedEnds)
	require.NoError(t, err)

	// THEN the one-sided difference quotients vanish at both ends
	h := 1e-5
	assert.InDelta(t, 0, (c.At(h)-c.At(0))/h, 1e-3)
	assert.InDelta(t, 0, (c.At(2)-c.At(2-h))/h, 1e-3)
}

func TestMethod_String(t *testing.T) {
	assert.Equal(t, "monotone", Monotone.String())
	assert.Equal(t, "clamped", ClampedEnds.String())
	assert.Equal(t, "akima", FreeEnds.String())
	assert.Equal(t, "method(9)", Method(9).String())
}
