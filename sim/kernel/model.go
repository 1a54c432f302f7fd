package kernel

import (
	"fmt"
	"math"
)

// Source describes raw kernel data that can be turned into a Model.
type Source interface {
	Build() (*Model, error)
}

// SampledConfig holds kernels given as explicit (x, y) samples. Both kernels
// are fitted with monotone cubics, trimmed to Precision, and the birth
// quantile function is derived numerically from the trimmed birth kernel.
type SampledConfig struct {
	DeathX    []float64
	DeathY    []float64
	BirthX    []float64
	BirthY    []float64
	Precision float64 // fraction of kernel mass that may be discarded from the tail
}

// UniformConfig holds kernels sampled on uniform grids. DeathY covers
// [0, DeathRadius]; QuantileY is a precomputed birth inverse-CDF table over
// [0, 1].
type UniformConfig struct {
	DeathY      []float64
	DeathRadius float64
	QuantileY   []float64
}

// Model is the read-only pair of functions the simulator consults: the death
// kernel and the birth displacement quantile.
type Model struct {
	death    *Curve
	birth    *Curve // nil when only a quantile table was supplied
	quantile *Curve
}

// Build fits, trims and inverts the sampled kernels.
func (sc SampledConfig) Build() (*Model, error) {
	death, err := NewMonotoneCurve(sc.DeathX, sc.DeathY)
	if err != nil {
		return nil, fmt.Errorf("death kernel: %w", err)
	}
	if death, err = Trim(death, sc.Precision); err != nil {
		return nil, fmt.Errorf("death kernel: %w", err)
	}

	birth, err := NewMonotoneCurve(sc.BirthX, sc.BirthY)
	if err != nil {
		return nil, fmt.Errorf("birth kernel: %w", err)
	}
	if birth, err = Trim(birth, sc.Precision); err != nil {
		return nil, fmt.Errorf("birth kernel: %w", err)
	}

	quantile, err := InvertCDF(birth, birth.Nodes())
	if err != nil {
		return nil, fmt.Errorf("birth kernel: %w", err)
	}
	return &Model{death: death, birth: birth, quantile: quantile}, nil
}

// Build fits the uniform-grid death kernel with zero end derivatives and the
// quantile table with free ends.
func (uc UniformConfig) Build() (*Model, error) {
	if len(uc.DeathY) < 2 {
		return nil, fmt.Errorf("death kernel: need at least 2 samples, got %d", len(uc.DeathY))
	}
	if len(uc.QuantileY) < 2 {
		return nil, fmt.Errorf("birth quantile: need at least 2 samples, got %d", len(uc.QuantileY))
	}
	death, err := NewUniformCurve(uc.DeathY, uc.DeathRadius/float64(len(uc.DeathY)-1), ClampedEnds)
	if err != nil {
		return nil, fmt.Errorf("death kernel: %w", err)
	}
	quantile, err := NewUniformCurve(uc.QuantileY, 1/float64(len(uc.QuantileY)-1), FreeEnds)
	if err != nil {
		return nil, fmt.Errorf("birth quantile: %w", err)
	}
	return &Model{death: death, quantile: quantile}, nil
}

// Death returns the non-negative interaction strength at the given distance.
// Anything beyond the cutoff contributes exactly zero.
func (m *Model) Death(distance float64) float64 {
	distance = math.Abs(distance)
	if distance > m.death.Cutoff() {
		return 0
	}
	return max(0, m.death.At(distance))
}

// Birth evaluates the fitted birth kernel. It is zero when the model was
// built from a quantile table only.
func (m *Model) Birth(distance float64) float64 {
	if m.birth == nil {
		return 0
	}
	distance = math.Abs(distance)
	if distance > m.birth.Cutoff() {
		return 0
	}
	return max(0, m.birth.At(distance))
}

// Quantile maps a probability in [0, 1] to a non-negative displacement
// magnitude. Arguments outside [0, 1] are clamped.
func (m *Model) Quantile(u float64) float64 {
	u = min(max(u, 0), 1)
	return max(0, m.quantile.At(u))
}

// DeathCutoff is the distance beyond which individuals do not interact.
func (m *Model) DeathCutoff() float64 { return m.death.Cutoff() }

// BirthCutoff is the largest displacement the quantile function produces.
func (m *Model) BirthCutoff() float64 {
	if m.birth != nil {
		return m.birth.Cutoff()
	}
	return m.Quantile(1)
}

// DeathCurve exposes the fitted death kernel.
func (m *Model) DeathCurve() *Curve { return m.death }

// BirthCurve exposes the fitted birth kernel, or nil.
func (m *Model) BirthCurve() *Curve { return m.birth }

// QuantileCurve exposes the birth quantile function.
func (m *Model) QuantileCurve() *Curve { return m.quantile }
