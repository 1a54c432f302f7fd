package kernel

import (
	"math"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func gaussianSamples(sigma, radius float64, n int) ([]float64, []float64) {
	xs := linspace(0, radius, n)
	ys := make([]float64, n)
	for i, x := range xs {
		ys[i] = math.Exp(-x*x/(2*sigma*sigma)) / (sigma * math.Sqrt(2*math.Pi))
	}
	return xs, ys
}

func TestSampledConfig_Build_TrimsAndInverts(t *testing.T) {
	// GIVEN gaussian kernels sampled far beyond where they carry mass
	dx, dy := gaussianSamples(0.5, 10, 101)
	bx, by := gaussianSamples(1, 10, 101)
	cfg := SampledConfig{DeathX: dx, DeathY: dy, BirthX: bx, BirthY: by, Precision: 1e-3}

	// WHEN the model is built
	m, err := cfg.Build()
	require.NoError(t, err)

	// THEN both cutoffs shrink but keep at least 1-precision of the mass
	assert.Less(t, m.DeathCutoff(), 10.0)
	assert.Less(t, m.BirthCutoff(), 10.0)
	assert.Greater(t, m.DeathCutoff(), 1.5) // 3 sigma holds 99.7%
	assert.Greater(t, m.BirthCutoff(), 3.0)

	// AND the quantile spans [0, birth cutoff]
	assert.InDelta(t, 0.0, m.Quantile(0), 1e-9)
	assert.InDelta(t, m.BirthCutoff(), m.Quantile(1), 1e-9)
	assert.Equal(t, m.BirthCurve().Nodes(), m.QuantileCurve().Nodes())

	// AND the median of a half-normal with sigma 1 is about 0.674
	assert.InDelta(t, 0.674, m.Quantile(0.5), 0.01)
}

func TestSampledConfig_Build_PropagatesErrors(t *testing.T) {
	good := []float64{0, 1, 2}
	tests := []struct {
		name string
		cfg  SampledConfig
	}{
		{"bad death", SampledConfig{DeathX: []float64{0}, DeathY: []float64{1}, BirthX: good, BirthY: good}},
		{"bad birth", SampledConfig{DeathX: good, DeathY: good, BirthX: good, BirthY: []float64{1}}},
		{"bad precision", SampledConfig{DeathX: good, DeathY: good, BirthX: good, BirthY: good, Precision: 2}},
		{"massless birth", SampledConfig{DeathX: good, DeathY: good, BirthX: good, BirthY: []float64{0, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			assert.Error(t, err)
		})
	}
}

func TestUniformConfig_Build(t *testing.T) {
	// GIVEN a death kernel on [0, 2] and a quantile table
	cfg := UniformConfig{
		DeathY:      []float64{1, 0.8, 0.4, 0.1, 0},
		DeathRadius: 2,
		QuantileY:   []float64{0, 0.1, 0.3, 0.7, 1.5},
	}

	m, err := cfg.Build()
	require.NoError(t, err)

	// THEN both curves pass through their samples
	for i, y := range cfg.DeathY {
		assert.InDelta(t, y, m.Death(float64(i)*0.5), 1e-12)
	}
	for i, y := range cfg.QuantileY {
		assert.InDelta(t, y, m.Quantile(float64(i)*0.25), 1e-12)
	}
	assert.Equal(t, 2.0, m.DeathCutoff())
	assert.InDelta(t, 1.5, m.BirthCutoff(), 1e-12)
	assert.Nil(t, m.BirthCurve())
	assert.Equal(t, 0.0, m.Birth(0.1))
	assert.Equal(t, ClampedEnds, m.DeathCurve().Method())
	assert.Equal(t, FreeEnds, m.QuantileCurve().Method())
}

func TestUniformConfig_Build_RejectsShortTables(t *testing.T) {
	_, err := UniformConfig{DeathY: []float64{1}, DeathRadius: 1, QuantileY: []float64{0, 1}}.Build()
	assert.Error(t, err)
	_, err = UniformConfig{DeathY: []float64{1, 0}, DeathRadius: 1, QuantileY: []float64{0}}.Build()
	assert.Error(t, err)
	_, err = UniformConfig{DeathY: []float64{1, 0}, DeathRadius: 0, QuantileY: []float64{0, 1}}.Build()
	assert.Error(t, err)
}

func TestModel_DeathIsZeroBeyondCutoffAndSymmetric(t *testing.T) {
	m, err := UniformConfig{DeathY: []float64{1, 0.5, 0.2}, DeathRadius: 1, QuantileY: []float64{0, 1}}.Build()
	require.NoError(t, err)

	assert.Equal(t, 0.0, m.Death(1.0000001))
	assert.Equal(t, 0.0, m.Death(-5))
	assert.Equal(t, m.Death(0.3), m.Death(-0.3))
	assert.Greater(t, m.Death(1), 0.0)
}

func TestModel_NeverNegative(t *testing.T) {
	// GIVEN a clamped cubic that undershoots below zero near its tail
	m, err := UniformConfig{DeathY: []float64{1, 0, 0, 0, 1e-9}, DeathRadius: 4, QuantileY: []float64{0, 0.01, 1}}.Build()
	require.NoError(t, err)

	for i := 0; i <= 400; i++ {
		x := float64(i) / 100
		assert.GreaterOrEqual(t, m.Death(x), 0.0)
		assert.GreaterOrEqual(t, m.Quantile(x/4), 0.0)
	}
}

func TestModel_QuantileClampsProbability(t *testing.T) {
	m, err := UniformConfig{DeathY: []float64{1, 0}, DeathRadius: 1, QuantileY: []float64{0, 2}}.Build()
	require.NoError(t, err)
	assert.Equal(t, m.Quantile(0), m.Quantile(-3))
	assert.Equal(t, m.Quantile(1), m.Quantile(7))
}

func TestSampledConfig_Build_ZeroPrecisionDropsMasslessTail(t *testing.T) {
	// GIVEN kernels whose samples reach zero before the last node
	cfg := SampledConfig{
		DeathX: []float64{0, 0.5, 1, 1.5, 2},
		DeathY: []float64{1, 0.5, 0, 0, 0},
		BirthX: []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4},
		BirthY: []float64{0.399, 0.352, 0.242, 0.130, 0.054, 0.018, 0.004, 0, 0},
	}

	// WHEN built with no trimming tolerance
	m, err := cfg.Build()
	require.NoError(t, err)

	// THEN both cutoffs end where the mass ends
	assert.Equal(t, 1.0, m.DeathCutoff())
	assert.Equal(t, 3.5, m.BirthCutoff())

	// AND no offset is drawn beyond the birth kernel's support
	assert.InDelta(t, 3.5, m.Quantile(1), 1e-9)
	for _, u := range []float64{0.9, 0.99, 0.999} {
		assert.LessOrEqual(t, m.Quantile(u), 3.5)
	}
}
