// Package render composes a source, a canvas, a reduction, and shading into
// a reusable pipeline.
//
// A Renderer is configured once and then re-run for every viewport: Render
// produces a shaded image, Aggregate stops after rasterization and returns
// the bare grid for clients that colormap on their own side. Dynamic wraps a
// Renderer with a viewport-keyed grid cache and request collapsing so bursts
// of pan and zoom events do not rescan the source once per event.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/canvas"
	"github.com/arloliu/dshade/decimate"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/internal/options"
	"github.com/arloliu/dshade/shade"
	"github.com/arloliu/dshade/source"
)

// Glyph selects how rows are drawn onto the canvas.
type Glyph uint8

const (
	// GlyphPoints rasterizes each row as a single point.
	GlyphPoints Glyph = iota
	// GlyphLine rasterizes consecutive rows as connected line segments.
	GlyphLine
)

var glyphNames = map[Glyph]string{
	GlyphPoints: "points",
	GlyphLine:   "line",
}

// String implements fmt.Stringer.
func (g Glyph) String() string {
	if name, ok := glyphNames[g]; ok {
		return name
	}

	return "unknown"
}

func (g Glyph) valid() bool {
	_, ok := glyphNames[g]
	return ok
}

// ParseGlyph converts a glyph name to its Glyph value.
func ParseGlyph(s string) (Glyph, error) {
	for g, name := range glyphNames {
		if s == name {
			return g, nil
		}
	}

	return 0, fmt.Errorf("unknown glyph %q", s)
}

type spreadMode uint8

const (
	spreadNone spreadMode = iota
	spreadFixed
	spreadDynamic
)

// Renderer is a configured rasterization pipeline.
//
// A Renderer is immutable after New and safe for concurrent use; each call
// re-rasterizes the source for the requested viewport.
type Renderer struct {
	src   source.Source
	xcol  string
	ycol  string
	red   agg.Reduction
	glyph Glyph

	shadeOpts  []shade.Option
	spreadMode spreadMode
	spreadPx   int
	threshold  float64
	maxPx      int
	spreadOpts []shade.SpreadOption

	xLog      bool
	yLog      bool
	workers   int
	maxPoints int
}

// Option configures a Renderer.
type Option = options.Option[*Renderer]

// WithReduction sets the per-cell reduction. The default is agg.Count.
func WithReduction(red agg.Reduction) Option {
	return options.New(func(r *Renderer) error {
		if red == nil {
			return errors.New("nil reduction")
		}
		r.red = red

		return nil
	})
}

// WithGlyph selects points or line rasterization.
func WithGlyph(g Glyph) Option {
	return options.New(func(r *Renderer) error {
		if !g.valid() {
			return fmt.Errorf("invalid glyph: %v", g)
		}
		r.glyph = g

		return nil
	})
}

// WithShadeOptions appends options forwarded to shade.Shade on every
// render: colormap, normalization, spans, alpha, color key.
func WithShadeOptions(opts ...shade.Option) Option {
	return options.NoError(func(r *Renderer) {
		r.shadeOpts = append(r.shadeOpts, opts...)
	})
}

// WithSpread post-processes every rendered image with shade.Spread at a
// fixed radius.
func WithSpread(px int, opts ...shade.SpreadOption) Option {
	return options.New(func(r *Renderer) error {
		if px < 0 {
			return fmt.Errorf("spread px %d: %w", px, errs.ErrInvalidSpreadPx)
		}
		r.spreadMode = spreadFixed
		r.spreadPx = px
		r.spreadOpts = opts

		return nil
	})
}

// WithDynspread post-processes every rendered image with shade.Dynspread,
// growing the radius until the pixel density reaches threshold.
func WithDynspread(threshold float64, maxPx int, opts ...shade.SpreadOption) Option {
	return options.New(func(r *Renderer) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("dynspread threshold %g not in (0, 1]", threshold)
		}
		if maxPx < 0 {
			return fmt.Errorf("dynspread max px %d: %w", maxPx, errs.ErrInvalidSpreadPx)
		}
		r.spreadMode = spreadDynamic
		r.threshold = threshold
		r.maxPx = maxPx
		r.spreadOpts = opts

		return nil
	})
}

// WithXLog renders with a base-10 logarithmic x axis.
func WithXLog() Option {
	return options.NoError(func(r *Renderer) {
		r.xLog = true
	})
}

// WithYLog renders with a base-10 logarithmic y axis.
func WithYLog() Option {
	return options.NoError(func(r *Renderer) {
		r.yLog = true
	})
}

// WithWorkers caps the aggregation goroutines per render.
func WithWorkers(n int) Option {
	return options.NoError(func(r *Renderer) {
		r.workers = n
	})
}

// WithMaxPoints bounds the number of rows entering rasterization by
// wrapping the source in a decimator keyed on the position columns. Wrap
// the source with decimate.New directly to control the seed or identity
// columns.
func WithMaxPoints(n int) Option {
	return options.New(func(r *Renderer) error {
		if n <= 0 {
			return fmt.Errorf("max points must be positive, got %d", n)
		}
		r.maxPoints = n

		return nil
	})
}

// New creates a Renderer that draws src's xcol/ycol columns.
//
// Defaults: count reduction, point glyph, fire colormap with eq_hist
// normalization, no spreading.
func New(src source.Source, xcol, ycol string, opts ...Option) (*Renderer, error) {
	if src == nil {
		return nil, errors.New("render nil source")
	}
	if xcol == "" || ycol == "" {
		return nil, errors.New("x and y column names are required")
	}

	r := &Renderer{
		src:   src,
		xcol:  xcol,
		ycol:  ycol,
		red:   agg.Count(),
		glyph: GlyphPoints,
	}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	if r.maxPoints > 0 {
		dec, err := decimate.New(r.src, r.maxPoints, decimate.WithColumns(r.xcol, r.ycol))
		if err != nil {
			return nil, fmt.Errorf("wrap source in decimator: %w", err)
		}
		r.src = dec
	}

	return r, nil
}

// Source returns the source the renderer reads, including any decimator
// wrapped around it by WithMaxPoints.
func (r *Renderer) Source() source.Source { return r.src }

// Reduction returns the configured per-cell reduction.
func (r *Renderer) Reduction() agg.Reduction { return r.red }

// Columns returns the position column names.
func (r *Renderer) Columns() (xcol, ycol string) { return r.xcol, r.ycol }

// Aggregate rasterizes the source for one viewport and returns the bare
// aggregate grid.
func (r *Renderer) Aggregate(ctx context.Context, vp geom.Viewport, width, height int) (*agg.Grid, error) {
	cvs, err := canvas.New(r.canvasOptions(vp, width, height)...)
	if err != nil {
		return nil, err
	}

	if r.glyph == GlyphLine {
		return cvs.Line(ctx, r.src, r.xcol, r.ycol, r.red)
	}

	return cvs.Points(ctx, r.src, r.xcol, r.ycol, r.red)
}

// Render runs the full pipeline for one viewport: aggregate, shade, spread.
func (r *Renderer) Render(ctx context.Context, vp geom.Viewport, width, height int) (*image.NRGBA, error) {
	grid, err := r.Aggregate(ctx, vp, width, height)
	if err != nil {
		return nil, err
	}

	return r.shadeGrid(grid)
}

// shadeGrid applies the configured shading and spreading to a grid.
func (r *Renderer) shadeGrid(grid *agg.Grid) (*image.NRGBA, error) {
	img, err := shade.Shade(grid, r.shadeOpts...)
	if err != nil {
		return nil, err
	}

	switch r.spreadMode {
	case spreadFixed:
		return shade.Spread(img, r.spreadPx, r.spreadOpts...)
	case spreadDynamic:
		return shade.Dynspread(img, r.threshold, r.maxPx, r.spreadOpts...)
	default:
		return img, nil
	}
}

func (r *Renderer) canvasOptions(vp geom.Viewport, width, height int) []canvas.Option {
	opts := []canvas.Option{
		canvas.WithSize(width, height),
		canvas.WithViewport(vp),
	}
	if r.xLog {
		opts = append(opts, canvas.WithXLog())
	}
	if r.yLog {
		opts = append(opts, canvas.WithYLog())
	}
	if r.workers > 0 {
		opts = append(opts, canvas.WithWorkers(r.workers))
	}

	return opts
}
