package canvas

import (
	"fmt"
	"math"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
)

// axis maps data values on one dimension to cell indices.
//
// The transform runs in two steps: an optional log10 warp, then a linear
// map of the warped range onto [0, bins). Holding the warped origin and
// span precomputed keeps bin() to a few flops per row.
type axis struct {
	kind  geom.AxisKind
	rng   geom.Range
	t0    float64
	tspan float64
	bins  int
}

func newAxis(kind geom.AxisKind, rng geom.Range, bins int) (axis, error) {
	if !rng.IsValid() {
		return axis{}, fmt.Errorf("range %s: %w", rng, errs.ErrInvalidRange)
	}

	a := axis{kind: kind, rng: rng, bins: bins}
	if kind == geom.AxisLog {
		if rng.Min <= 0 {
			return axis{}, fmt.Errorf("range %s: %w", rng, errs.ErrLogRangeNotPositive)
		}
		a.t0 = math.Log10(rng.Min)
		a.tspan = math.Log10(rng.Max) - a.t0
	} else {
		a.t0 = rng.Min
		a.tspan = rng.Max - rng.Min
	}

	return a, nil
}

func (a *axis) transform(v float64) float64 {
	if a.kind == geom.AxisLog {
		return math.Log10(v)
	}

	return v
}

// bin maps a data value to a cell index, or -1 when the value is NaN or
// outside the axis range. The maximum edge folds into the last bin, so a
// point exactly on the top boundary is kept.
func (a *axis) bin(v float64) int {
	if math.IsNaN(v) || v < a.rng.Min || v > a.rng.Max {
		return -1
	}

	i := int((a.transform(v) - a.t0) / a.tspan * float64(a.bins))
	if i >= a.bins {
		i = a.bins - 1
	}

	return i
}

// pos maps a data value to a continuous cell coordinate, where the range
// minimum is 0 and the maximum is bins. Values outside the range map beyond
// the grid; NaN, infinities and log-invalid values map to NaN.
func (a *axis) pos(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN()
	}
	if a.kind == geom.AxisLog && v <= 0 {
		return math.NaN()
	}

	return (a.transform(v) - a.t0) / a.tspan * float64(a.bins)
}

// center returns the data-space center of bin i.
func (a *axis) center(i int) float64 {
	t := a.t0 + (float64(i)+0.5)/float64(a.bins)*a.tspan
	if a.kind == geom.AxisLog {
		return math.Pow(10, t)
	}

	return t
}
