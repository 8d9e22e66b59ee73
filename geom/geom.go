// Package geom provides the shared geometry types used across dshade:
// data-space ranges, axis kinds, and viewports.
//
// A Range is a closed data interval [Min, Max] that a canvas maps onto a
// pixel axis. Ranges are pure values; the mapping itself (including log
// axes and bin assignment) lives in the canvas package.
package geom

import (
	"fmt"
	"math"
)

// Range is a closed interval of data coordinates.
type Range struct {
	Min float64
	Max float64
}

// NewRange returns the range [min, max].
func NewRange(min, max float64) Range {
	return Range{Min: min, Max: max}
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// IsValid reports whether both bounds are finite and Min < Max.
// A zero-span range is not valid: it cannot be mapped onto pixels.
func (r Range) IsValid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max) &&
		!math.IsInf(r.Min, 0) && !math.IsInf(r.Max, 0) &&
		r.Min < r.Max
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp returns v limited to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}

	return v
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 {
	return r.Min + (r.Max-r.Min)/2
}

// Expand returns the range grown by frac of its span on each side.
// Expand(0.05) pads a data range by 5% the way plot axes usually do.
func (r Range) Expand(frac float64) Range {
	pad := r.Span() * frac
	return Range{Min: r.Min - pad, Max: r.Max + pad}
}

// Union returns the smallest range covering both a and b.
// NaN bounds are ignored, so a zero Range unions cleanly with a real one
// only when the caller seeds it with math.NaN bounds via EmptyRange.
func Union(a, b Range) Range {
	out := a
	if math.IsNaN(out.Min) || b.Min < out.Min {
		out.Min = b.Min
	}
	if math.IsNaN(out.Max) || b.Max > out.Max {
		out.Max = b.Max
	}

	return out
}

// EmptyRange returns the identity element for Union: both bounds NaN.
func EmptyRange() Range {
	return Range{Min: math.NaN(), Max: math.NaN()}
}

// String implements fmt.Stringer.
func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// AxisKind selects how a canvas axis maps data coordinates to pixels.
type AxisKind uint8

const (
	AxisLinear AxisKind = 0x1 // AxisLinear maps coordinates proportionally.
	AxisLog    AxisKind = 0x2 // AxisLog maps the base-10 logarithm of coordinates proportionally.
)

func (k AxisKind) String() string {
	switch k {
	case AxisLinear:
		return "linear"
	case AxisLog:
		return "log"
	default:
		return "unknown"
	}
}

// Viewport is the visible data region a render covers.
type Viewport struct {
	X Range
	Y Range
}

// NewViewport returns the viewport covering [x0,x1] × [y0,y1].
func NewViewport(x0, x1, y0, y1 float64) Viewport {
	return Viewport{X: NewRange(x0, x1), Y: NewRange(y0, y1)}
}

// IsValid reports whether both axes hold valid ranges.
func (v Viewport) IsValid() bool {
	return v.X.IsValid() && v.Y.IsValid()
}

// String implements fmt.Stringer.
func (v Viewport) String() string {
	return fmt.Sprintf("x=%s y=%s", v.X, v.Y)
}
