package sim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Variates draws every random quantity the event loop consumes from a single
// source, so a run is reproducible from its seed alone.
type Variates struct {
	src     rand.Source
	rnd     *rand.Rand
	weights []float64 // scratch for categorical draws
}

// NewVariates wraps a source.
func NewVariates(src rand.Source) *Variates {
	return &Variates{src: src, rnd: rand.New(src)}
}

// Uniform draws from [lo, hi).
func (v *Variates) Uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: v.src}.Rand()
}

// Exponential draws a waiting time for the given total rate. A non-positive
// rate never fires and yields +Inf.
func (v *Variates) Exponential(rate float64) float64 {
	if !(rate > 0) {
		return math.Inf(1)
	}
	return distuv.Exponential{Rate: rate, Src: v.src}.Rand()
}

// Bernoulli returns true with probability p. p is clamped to [0, 1]; NaN
// counts as 0.
func (v *Variates) Bernoulli(p float64) bool {
	if !(p > 0) {
		p = 0
	}
	return distuv.Bernoulli{P: min(p, 1), Src: v.src}.Rand() == 1
}

// Categorical picks an index with probability proportional to its weight.
// Negative weights (rounding residue) count as zero. It reports false when
// no weight is positive.
func (v *Variates) Categorical(weights []float64) (int, bool) {
	if cap(v.weights) < len(weights) {
		v.weights = make([]float64, len(weights))
	}
	w := v.weights[:len(weights)]
	total := 0.0
	for i, x := range weights {
		if !(x > 0) {
			x = 0
		}
		w[i] = x
		total += x
	}
	if !(total > 0) {
		return -1, false
	}
	return int(distuv.NewCategorical(w, v.src).Rand()), true
}

// IntN draws uniformly from [0, n).
func (v *Variates) IntN(n int) int {
	return v.rnd.IntN(n)
}
