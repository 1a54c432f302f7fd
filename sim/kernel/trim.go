package kernel

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Trim drops the tail of a curve that carries no more than a precision
// fraction of its total mass.
//
// The kept range ends at the first node whose cumulative integral reaches
// (1-precision) of the total; the curve is refitted through the kept nodes
// and that node becomes the new cutoff. At least two nodes always survive.
// A negative precision counts as zero, which still cuts a tail that
// carries no mass.
func Trim(c *Curve, precision float64) (*Curve, error) {
	precision = max(precision, 0)
	if precision >= 1 {
		return nil, fmt.Errorf("trim precision must be below 1, got %v", precision)
	}

	target := (1 - precision) * c.Mass()
	last := len(c.xs) - 1
	k := 0
	for k < last && c.cum[k] < target {
		k++
	}
	k = max(k, 1)
	if k == last {
		return c, nil
	}

	trimmed, err := NewCurve(c.xs[:k+1], c.ys[:k+1], c.method)
	if err != nil {
		return nil, fmt.Errorf("refitting trimmed kernel: %w", err)
	}
	logrus.Debugf("kernel trimmed: cutoff %.6g -> %.6g, nodes %d -> %d (precision %g)",
		c.Cutoff(), trimmed.Cutoff(), c.Nodes(), trimmed.Nodes(), precision)
	return trimmed, nil
}
