// Package dshade turns arbitrarily large tabular datasets into faithful
// raster images.
//
// The pipeline follows the datashading model: aggregate source rows into a
// fixed-size numeric grid, then map the aggregate values to colors in a
// separate shading step. Because the expensive pass produces a grid rather
// than pixels, restyling, spreading and renormalizing never touch the raw
// data again.
//
// # Core Features
//
//   - Points and line rasterization onto a pixel-aligned canvas
//   - Scalar reductions (count, any, sum, min, max, mean, std) and
//     per-category planes (by, count_cat)
//   - Histogram-equalized, linear, log and cbrt color mapping
//   - Spreading and zoom-adaptive dynamic spreading for sparse plots
//   - Deterministic decimation that keeps selections stable across pans
//   - Streaming sources: in-memory tables, CSV files, PostgreSQL queries
//   - A live render server with viewport caching (see the server package)
//
// # Basic Usage
//
// Rendering a scatter dataset to a PNG:
//
//	import "github.com/arloliu/dshade"
//
//	src := source.Blobs(42, 1_000_000, 5)
//
//	vp, _ := dshade.DataBounds(ctx, src, "x", "y")
//	img, _ := dshade.Datashade(ctx, src, "x", "y", vp, 800, 600)
//
//	f, _ := os.Create("plot.png")
//	png.Encode(f, img)
//
// Separating aggregation from styling:
//
//	grid, _ := dshade.Rasterize(ctx, src, "x", "y", vp, 800, 600,
//	    render.WithReduction(agg.Mean("value")),
//	)
//	img, _ := dshade.Shade(grid, shade.WithColormap(cm), shade.WithHow(shade.HowLog))
//
// # Package Structure
//
// This package provides top-level wrappers around the render, shade,
// decimate and source packages, covering the common one-shot cases. For
// fine-grained control (custom canvases, incremental aggregation, cached
// rendering) use those packages directly.
package dshade

import (
	"context"
	"image"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/decimate"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/render"
	"github.com/arloliu/dshade/shade"
	"github.com/arloliu/dshade/source"
)

// Viewport builds the data window [x0, x1] x [y0, y1] to rasterize.
func Viewport(x0, x1, y0, y1 float64) geom.Viewport {
	return geom.NewViewport(x0, x1, y0, y1)
}

// DataBounds scans a source once and returns the viewport covering every
// finite point of the two named columns.
//
// Use it to auto-range a plot before the first render:
//
//	vp, err := dshade.DataBounds(ctx, src, "x", "y")
//	img, err := dshade.Datashade(ctx, src, "x", "y", vp, 800, 600)
func DataBounds(ctx context.Context, src source.Source, xcol, ycol string) (geom.Viewport, error) {
	return source.Bounds(ctx, src, xcol, ycol)
}

// Rasterize aggregates a source into a width x height grid over the given
// viewport.
//
// The default reduction counts rows per cell with the points glyph; pass
// render options to change either:
//
//	grid, err := dshade.Rasterize(ctx, src, "time", "value", vp, 800, 300,
//	    render.WithGlyph(render.GlyphLine),
//	    render.WithReduction(agg.Any()),
//	)
//
// The grid holds float64 cells: NaN marks empty cells for value reductions,
// zero for count and any. Shade the grid with Shade, or inspect it directly.
func Rasterize(ctx context.Context, src source.Source, xcol, ycol string, vp geom.Viewport, width, height int, opts ...render.Option) (*agg.Grid, error) {
	r, err := render.New(src, xcol, ycol, opts...)
	if err != nil {
		return nil, err
	}

	return r.Aggregate(ctx, vp, width, height)
}

// Datashade runs the full pipeline in one call: aggregate the source over
// the viewport, then shade the grid to an image, applying any configured
// spreading.
//
// Style the output with render options:
//
//	img, err := dshade.Datashade(ctx, src, "x", "y", vp, 800, 600,
//	    render.WithShadeOptions(shade.WithColormap(cm)),
//	    render.WithDynspread(0.5, 3),
//	)
//
// For repeated renders of the same source at different viewports, build a
// render.Renderer once (or wrap it in render.Dynamic for caching) instead.
func Datashade(ctx context.Context, src source.Source, xcol, ycol string, vp geom.Viewport, width, height int, opts ...render.Option) (*image.NRGBA, error) {
	r, err := render.New(src, xcol, ycol, opts...)
	if err != nil {
		return nil, err
	}

	return r.Render(ctx, vp, width, height)
}

// Shade maps a grid's aggregate values to colors.
//
// Scalar grids are normalized (histogram equalization by default) and run
// through a colormap; categorical grids are color-mixed per cell from a
// color key. See the shade package for the options.
func Shade(grid *agg.Grid, opts ...shade.Option) (*image.NRGBA, error) {
	return shade.Shade(grid, opts...)
}

// Spread grows every opaque pixel by px in all directions, making isolated
// points visible on dense displays. px of zero returns img unchanged.
func Spread(img *image.NRGBA, px int, opts ...shade.SpreadOption) (*image.NRGBA, error) {
	return shade.Spread(img, px, opts...)
}

// Dynspread spreads only while the plot is sparse: the radius grows until
// the fraction of opaque pixels with an opaque neighbor reaches threshold,
// or until maxPx. Dense plots come back unchanged.
func Dynspread(img *image.NRGBA, threshold float64, maxPx int, opts ...shade.SpreadOption) (*image.NRGBA, error) {
	return shade.Dynspread(img, threshold, maxPx, opts...)
}

// Decimate wraps a source so that iterating it yields at most maxPoints
// rows, chosen by deterministic value-derived priorities. The same rows
// win regardless of chunking or windowing, so decimated plots stay stable
// while panning.
//
// Example:
//
//	small, err := dshade.Decimate(src, 100_000, decimate.WithSeed(1))
//	img, err := dshade.Datashade(ctx, small, "x", "y", vp, 800, 600)
func Decimate(src source.Source, maxPoints int, opts ...decimate.Option) (*decimate.Decimator, error) {
	return decimate.New(src, maxPoints, opts...)
}
