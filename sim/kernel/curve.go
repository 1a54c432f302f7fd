// Package kernel builds the interaction and dispersal kernels used by the
// spatial simulator.
//
// A kernel arrives as raw samples. The death kernel maps the distance between
// two individuals to an added death rate; the birth kernel describes how far
// offspring land from their parent and is consumed only through its quantile
// function (inverse CDF). Curves are immutable once built.
package kernel

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"
)

// Method selects the interpolation scheme used to fit a Curve.
type Method int

const (
	// Monotone is the shape-preserving Fritsch-Butland cubic. Used for
	// kernels given as explicit (x, y) samples and for derived quantiles.
	Monotone Method = iota
	// ClampedEnds forces a zero first derivative at both ends, so the
	// curve is symmetric at the origin and flattens out at the cutoff.
	ClampedEnds
	// FreeEnds is an Akima cubic with no boundary constraint.
	FreeEnds
)

// String returns the method name used in logs.
func (m Method) String() string {
	switch m {
	case Monotone:
		return "monotone"
	case ClampedEnds:
		return "clamped"
	case FreeEnds:
		return "akima"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// gaussNodes is the Gauss-Legendre order used per segment. Two nodes are
// already exact for cubic polynomials.
const gaussNodes = 3

// Curve is a fitted piecewise cubic over [xs[0], xs[n-1]] together with its
// antiderivative at every node.
type Curve struct {
	xs     []float64
	ys     []float64
	method Method
	pred   interp.Predictor
	cum    []float64 // cum[i] = integral from xs[0] to xs[i]
}

// NewCurve fits a curve through the given samples. xs must be strictly
// increasing and finite, and at least two samples are required.
func NewCurve(xs, ys []float64, method Method) (*Curve, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("kernel samples differ in length: %d x values, %d y values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("kernel needs at least 2 samples, got %d", len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, fmt.Errorf("kernel sample %d is not finite: (%v, %v)", i, xs[i], ys[i])
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("kernel x samples must be strictly increasing: x[%d]=%v <= x[%d]=%v", i, xs[i], i-1, xs[i-1])
		}
	}

	c := &Curve{
		xs:     append([]float64(nil), xs...),
		ys:     append([]float64(nil), ys...),
		method: method,
	}

	var fp interp.FittablePredictor
	switch method {
	case Monotone:
		fp = &interp.FritschButland{}
	case ClampedEnds:
		fp = &interp.ClampedCubic{}
	case FreeEnds:
		fp = &interp.AkimaSpline{}
	default:
		return nil, fmt.Errorf("unknown interpolation method %v", method)
	}
	if err := fp.Fit(c.xs, c.ys); err != nil {
		return nil, fmt.Errorf("fitting %v kernel: %w", method, err)
	}
	c.pred = fp

	c.cum = make([]float64, len(c.xs))
	for i := 1; i < len(c.xs); i++ {
		c.cum[i] = c.cum[i-1] + c.segmentIntegral(c.xs[i-1], c.xs[i])
	}
	return c, nil
}

// NewMonotoneCurve fits a shape-preserving curve through explicit samples.
func NewMonotoneCurve(xs, ys []float64) (*Curve, error) {
	return NewCurve(xs, ys, Monotone)
}

// NewUniformCurve fits a curve through ys sampled at 0, step, 2*step, ...
func NewUniformCurve(ys []float64, step float64, method Method) (*Curve, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("kernel grid step must be positive and finite, got %v", step)
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i) * step
	}
	return NewCurve(xs, ys, method)
}

// At evaluates the fitted curve. Outside the sampled range the end values
// are held constant.
func (c *Curve) At(x float64) float64 {
	return c.pred.Predict(x)
}

// Start is the first sampled abscissa.
func (c *Curve) Start() float64 { return c.xs[0] }

// Cutoff is the last sampled abscissa.
func (c *Curve) Cutoff() float64 { return c.xs[len(c.xs)-1] }

// Nodes is the number of samples the curve was fitted through.
func (c *Curve) Nodes() int { return len(c.xs) }

// Method reports the interpolation scheme.
func (c *Curve) Method() Method { return c.method }

// Xs returns a copy of the sampled abscissae.
func (c *Curve) Xs() []float64 { return append([]float64(nil), c.xs...) }

// Ys returns a copy of the sampled values.
func (c *Curve) Ys() []float64 { return append([]float64(nil), c.ys...) }

// Mass is the integral of the curve over its whole range.
func (c *Curve) Mass() float64 { return c.cum[len(c.cum)-1] }

// Integral returns the integral of the curve from Start to y, with y clamped
// to [Start, Cutoff].
func (c *Curve) Integral(y float64) float64 {
	if y <= c.xs[0] {
		return 0
	}
	n := len(c.xs)
	if y >= c.xs[n-1] {
		return c.cum[n-1]
	}
	// first node strictly greater than y, minus one, is the segment start
	i := sort.SearchFloat64s(c.xs, y)
	if i < n && c.xs[i] == y {
		return c.cum[i]
	}
	i--
	return c.cum[i] + c.segmentIntegral(c.xs[i], y)
}

func (c *Curve) segmentIntegral(a, b float64) float64 {
	return quad.Fixed(c.pred.Predict, a, b, gaussNodes, quad.Legendre{}, 0)
}
