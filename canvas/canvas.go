// Package canvas maps data-space coordinates onto a fixed pixel grid and
// drives the aggregation of point and line glyphs into aggregate grids.
//
// A Canvas is an immutable description of the target grid: its resolution,
// the data ranges it spans, and the axis transforms (linear or log). The
// Points and Line methods stream a source through the canvas and produce an
// agg.Grid; the same Canvas can rasterize any number of sources, from any
// number of goroutines.
package canvas

import (
	"fmt"
	"runtime"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/internal/options"
)

// Default canvas resolution used when no explicit size option is given.
const (
	DefaultWidth  = 600
	DefaultHeight = 600
)

// Canvas describes the target pixel grid for rasterization.
//
// Cell (0, 0) covers the minimum corner of the X and Y ranges; row indices
// grow toward Y max. Rendering to images flips rows, since image space runs
// top-down.
type Canvas struct {
	width   int
	height  int
	xRange  geom.Range
	yRange  geom.Range
	xKind   geom.AxisKind
	yKind   geom.AxisKind
	workers int

	xAxis axis
	yAxis axis
}

// Option configures a Canvas during New.
type Option = options.Option[*Canvas]

// New creates a Canvas with the given options.
//
// Defaults: 600x600 cells, unit ranges on both axes, linear axes, and one
// aggregation worker per CPU.
//
// Example:
//
//	cvs, err := canvas.New(
//	    canvas.WithSize(800, 400),
//	    canvas.WithXRange(geom.NewRange(-5, 5)),
//	    canvas.WithYRange(geom.NewRange(-5, 5)),
//	)
func New(opts ...Option) (*Canvas, error) {
	c := &Canvas{
		width:   DefaultWidth,
		height:  DefaultHeight,
		xRange:  geom.NewRange(0, 1),
		yRange:  geom.NewRange(0, 1),
		xKind:   geom.AxisLinear,
		yKind:   geom.AxisLinear,
		workers: runtime.GOMAXPROCS(0),
	}

	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	if c.width <= 0 || c.height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", c.width, c.height, errs.ErrInvalidCanvasSize)
	}

	var err error
	c.xAxis, err = newAxis(c.xKind, c.xRange, c.width)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	c.yAxis, err = newAxis(c.yKind, c.yRange, c.height)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}

	return c, nil
}

// WithSize sets the canvas resolution in cells.
func WithSize(width, height int) Option {
	return options.NoError(func(c *Canvas) {
		c.width = width
		c.height = height
	})
}

// WithXRange sets the data range covered by the x axis.
func WithXRange(r geom.Range) Option {
	return options.New(func(c *Canvas) error {
		if !r.IsValid() {
			return fmt.Errorf("x range %s: %w", r, errs.ErrInvalidRange)
		}
		c.xRange = r

		return nil
	})
}

// WithYRange sets the data range covered by the y axis.
func WithYRange(r geom.Range) Option {
	return options.New(func(c *Canvas) error {
		if !r.IsValid() {
			return fmt.Errorf("y range %s: %w", r, errs.ErrInvalidRange)
		}
		c.yRange = r

		return nil
	})
}

// WithViewport sets both axis ranges from a viewport.
func WithViewport(vp geom.Viewport) Option {
	return options.New(func(c *Canvas) error {
		if !vp.IsValid() {
			return fmt.Errorf("viewport %s: %w", vp, errs.ErrInvalidRange)
		}
		c.xRange = vp.X
		c.yRange = vp.Y

		return nil
	})
}

// WithXLog switches the x axis to a base-10 logarithmic transform.
// The x range must be strictly positive.
func WithXLog() Option {
	return options.NoError(func(c *Canvas) {
		c.xKind = geom.AxisLog
	})
}

// WithYLog switches the y axis to a base-10 logarithmic transform.
// The y range must be strictly positive.
func WithYLog() Option {
	return options.NoError(func(c *Canvas) {
		c.yKind = geom.AxisLog
	})
}

// WithWorkers caps the number of goroutines used for parallel point
// aggregation. Values below 1 fall back to a single worker.
func WithWorkers(n int) Option {
	return options.NoError(func(c *Canvas) {
		c.workers = n
	})
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in cells.
func (c *Canvas) Height() int { return c.height }

// XRange returns the data range covered by the x axis.
func (c *Canvas) XRange() geom.Range { return c.xRange }

// YRange returns the data range covered by the y axis.
func (c *Canvas) YRange() geom.Range { return c.yRange }

// Viewport returns both axis ranges as a viewport.
func (c *Canvas) Viewport() geom.Viewport {
	return geom.Viewport{X: c.xRange, Y: c.yRange}
}
