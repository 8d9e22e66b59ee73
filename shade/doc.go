// Package shade turns aggregate grids into RGBA images.
//
// Shading is the second half of the datashading pipeline: canvas aggregation
// reduces raw points to an agg.Grid, and Shade colormaps that grid into an
// image. Keeping the two stages separate means a cached grid can be reshaded
// with a different colormap, normalization, or span without touching the
// original data.
//
// # Normalization
//
// Aggregate values are mapped onto [0, 1] before colors are assigned. Four
// modes are available:
//
//   - eq_hist (default): histogram equalization. Equal numbers of non-empty
//     cells land in equal slices of the color range, so structure stays
//     visible even when cell values span many orders of magnitude.
//   - linear: straight mapping of the span.
//   - log: log1p mapping, compressing heavy tails.
//   - cbrt: cube-root mapping, a middle ground between linear and log.
//
// The span is the data min/max by default, a fixed range with WithSpan, or
// quantile-clipped with WithClipPercentiles for outlier-robust ramps.
//
// # Alpha
//
// Empty cells are fully transparent. Non-empty cells ramp from WithMinAlpha
// at the bottom of the normalized range to WithAlpha at the top, so a single
// isolated point remains visible instead of vanishing at alpha zero.
//
// Aggregates that mark empty cells with zero (count, any) shade correctly by
// default; aggregates where zero is a legitimate value should set
// WithZeroVisible.
//
// # Categorical grids
//
// Grids with category planes are colored by mixing a per-category color key
// weighted by each plane's cell value, with alpha driven by the cell total.
// The default key cycles a ten-color qualitative palette; WithColorKey
// overrides it.
//
// # Post-processing
//
// Spread and Dynspread enlarge isolated pixels after shading so sparse
// scatters stay visible; Stack composites shaded layers; Resample rescales
// the final image to the client's pixel ratio.
//
// # Example
//
//	img, err := shade.Shade(grid,
//	    shade.WithColormap(cm),
//	    shade.WithHow(shade.HowEqHist),
//	)
//	if err != nil {
//	    return err
//	}
//	img, err = shade.Dynspread(img, 0.5, 3)
package shade
