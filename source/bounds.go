package source

import (
	"context"
	"fmt"
	"math"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
)

// Bounds scans a source once and returns the viewport covering the named
// position columns. Rows with NaN or infinite coordinates are ignored, the
// same way rasterization drops them. An empty source yields an invalid
// viewport with NaN bounds.
func Bounds(ctx context.Context, src Source, xcol, ycol string) (geom.Viewport, error) {
	xr, yr := geom.EmptyRange(), geom.EmptyRange()

	for chunk, err := range src.Chunks(ctx) {
		if err != nil {
			return geom.Viewport{}, err
		}

		xs, ok := chunk.Float(xcol)
		if !ok {
			return geom.Viewport{}, fmt.Errorf("column %q: %w", xcol, errs.ErrMissingColumn)
		}
		ys, ok := chunk.Float(ycol)
		if !ok {
			return geom.Viewport{}, fmt.Errorf("column %q: %w", ycol, errs.ErrMissingColumn)
		}

		for i := range chunk.Len() {
			x, y := xs[i], ys[i]
			if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			xr = geom.Union(xr, geom.NewRange(x, x))
			yr = geom.Union(yr, geom.NewRange(y, y))
		}
	}

	return geom.Viewport{X: xr, Y: yr}, nil
}
