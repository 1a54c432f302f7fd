package kernel

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// rootTolerance bounds both the residual and the bracket width of the
	// quantile solver.
	rootTolerance = 1e-10
	rootMaxIter   = 200
)

// InvertCDF builds the quantile function of the distribution whose density is
// proportional to c on [Start, Cutoff].
//
// For nodes probability levels u_i = i/(nodes-1) it solves
// Integral(y_i)/Mass = u_i and fits a monotone curve through (u_i, y_i).
func InvertCDF(c *Curve, nodes int) (*Curve, error) {
	if nodes < 2 {
		return nil, fmt.Errorf("inverse CDF needs at least 2 nodes, got %d", nodes)
	}
	mass := c.Mass()
	if !(mass > 0) {
		return nil, fmt.Errorf("kernel has non-positive mass %v on [%v, %v]", mass, c.Start(), c.Cutoff())
	}

	us := make([]float64, nodes)
	ys := make([]float64, nodes)
	for i := range nodes {
		u := float64(i) / float64(nodes-1)
		us[i] = u
		switch i {
		case 0:
			ys[i] = c.Start()
		case nodes - 1:
			ys[i] = c.Cutoff()
		default:
			ys[i] = solveBounded(func(y float64) (float64, float64) {
				return c.Integral(y)/mass - u, c.At(y) / mass
			}, c.Start(), c.Cutoff())
		}
		// the CDF is non-decreasing; keep the quantile table that way too
		if i > 0 && ys[i] < ys[i-1] {
			ys[i] = ys[i-1]
		}
	}
	return NewMonotoneCurve(us, ys)
}

// solveBounded finds a root of a non-decreasing f on [lo, hi]. f returns its
// value and derivative. Newton steps that leave the bracket, or that have no
// usable derivative, fall back to bisection.
func solveBounded(f func(float64) (float64, float64), lo, hi float64) float64 {
	if v, _ := f(lo); v >= 0 {
		return lo
	}
	if v, _ := f(hi); v <= 0 {
		return hi
	}

	x := 0.5 * (lo + hi)
	for range rootMaxIter {
		v, dv := f(x)
		if math.Abs(v) < rootTolerance {
			return x
		}
		if v < 0 {
			lo = x
		} else {
			hi = x
		}
		if hi-lo < rootTolerance*max(1, math.Abs(hi)) {
			return 0.5 * (lo + hi)
		}
		next := 0.5 * (lo + hi)
		if dv > 0 {
			if step := x - v/dv; step > lo && step < hi {
				next = step
			}
		}
		x = next
	}
	logrus.Warnf("quantile solver did not converge after %d iterations; using %.6g", rootMaxIter, x)
	return x
}
